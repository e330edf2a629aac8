package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/mvcampos/oticaflow-backend/pkg/errors"
)

// SessionStore persists checkout sessions. Find returns CodeNotFound for
// unknown or expired sessions.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type sessionCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(sessionID string) string
}

type redisStore struct {
	cache sessionCache
	ttl   time.Duration
}

// NewRedisStore builds the redis-backed session store. Every save refreshes
// the TTL, an untouched session eventually expires on its own.
func NewRedisStore(cache sessionCache, ttl time.Duration) (SessionStore, error) {
	if cache == nil {
		return nil, errors.New("session cache required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &redisStore{cache: cache, ttl: ttl}, nil
}

func (s *redisStore) Save(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()
	encoded, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	key := s.cache.CheckoutSessionKey(session.ID.String())
	if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout session")
	}
	return nil
}

func (s *redisStore) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	key := s.cache.CheckoutSessionKey(id.String())
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &session, nil
}

func (s *redisStore) Delete(ctx context.Context, id uuid.UUID) error {
	key := s.cache.CheckoutSessionKey(id.String())
	if err := s.cache.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checkout session")
	}
	return nil
}

// MemoryStore keeps sessions in process memory. It round-trips sessions
// through JSON exactly like the redis store so tests exercise the same
// serialization path.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID][]byte
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()
	encoded, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = encoded
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	raw, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode checkout session")
	}
	return &session, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
