package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"vibewall/internal/models"

	"github.com/redis/go-redis/v9"
)

// Store persists sessions for their lifetime.
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Load(ctx context.Context, id string, ttl time.Duration) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions in Redis under session:<id>.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore returns a Store backed by rdb.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Save writes the session with the given TTL.
func (s *RedisStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	buf, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return s.rdb.Set(ctx, sessionKey(sess.ID), buf, ttl).Err()
}

// Load reads a session and slides its expiry forward.
func (s *RedisStore) Load(ctx context.Context, id string, ttl time.Duration) (*Session, error) {
	raw, err := s.rdb.GetEx(ctx, sessionKey(id), ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

type memoryEntry struct {
	sess    Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory. It is used when Redis is unavailable.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-process Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Save stores a copy of the session.
func (s *MemoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sess.ID] = memoryEntry{sess: *sess, expires: s.now().Add(ttl)}
	return nil
}

// Load returns a copy of the session if it has not expired.
func (s *MemoryStore) Load(_ context.Context, id string, ttl time.Duration) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || s.now().After(e.expires) {
		delete(s.entries, id)
		return nil, models.ErrNoSession
	}
	e.expires = s.now().Add(ttl)
	s.entries[id] = e
	sess := e.sess
	return &sess, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
