package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	leasePrefix     = "lease"
	defaultLeaseTTL = time.Minute
)

// leaseStore defines the operations used by Lease.
type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Lease is a SETNX-based exclusive lease. A worker that holds the lease is
// the only one allowed to run its job until the TTL expires or it releases.
type Lease struct {
	store leaseStore
	key   string
	ttl   time.Duration
	owner string
}

// NewLease builds a lease on the namespaced key "of:lease:<name>".
func NewLease(store leaseStore, name string, ttl time.Duration) (*Lease, error) {
	if store == nil {
		return nil, errors.New("redis store required for lease")
	}
	if name == "" {
		return nil, errors.New("lease name is required")
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	key := (&Client{}).buildKey(leasePrefix, name)
	return &Lease{store: store, key: key, ttl: ttl}, nil
}

// Acquire tries to own the lease for the configured TTL.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lease only if this instance still owns it.
func (l *Lease) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lease owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lease: %w", err)
	}
	l.owner = ""
	return nil
}
