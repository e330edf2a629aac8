package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeLeaseStore struct {
	data map[string]string
}

func newFakeLeaseStore() *fakeLeaseStore {
	return &fakeLeaseStore{data: map[string]string{}}
}

func (f *fakeLeaseStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeLeaseStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeLeaseStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestLeaseExclusivity(t *testing.T) {
	store := newFakeLeaseStore()

	first, err := NewLease(store, "reconciler", time.Minute)
	if err != nil {
		t.Fatalf("new lease: %v", err)
	}
	second, err := NewLease(store, "reconciler", time.Minute)
	if err != nil {
		t.Fatalf("new lease: %v", err)
	}

	ok, err := first.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second holder must not acquire a held lease")
	}

	if err := first.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
}

func TestLeaseReleaseOnlyByOwner(t *testing.T) {
	store := newFakeLeaseStore()

	holder, _ := NewLease(store, "reconciler", time.Minute)
	bystander, _ := NewLease(store, "reconciler", time.Minute)

	if ok, _ := holder.Acquire(context.Background()); !ok {
		t.Fatal("holder acquire failed")
	}
	if err := bystander.Release(context.Background()); err != nil {
		t.Fatalf("bystander release: %v", err)
	}
	if ok, _ := bystander.Acquire(context.Background()); ok {
		t.Fatal("lease must survive a non-owner release")
	}
}
