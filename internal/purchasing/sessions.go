package purchasing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/orders"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// ErrSessionNotFound is returned for unknown or expired editing sessions.
var ErrSessionNotFound = fmt.Errorf("purchasing: editing session not found: %w", shared.ErrNotFound)

const sessionKeyPrefix = "po:session:"

// SessionStore persists editing sessions between requests.
type SessionStore interface {
	Load(ctx context.Context, id string) (*orders.Session, error)
	Save(ctx context.Context, s *orders.Session) error
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions as JSON in Redis with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore constructs the store. A non-positive ttl keeps
// sessions for 12 hours.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

// Load fetches a session.
func (s *RedisSessionStore) Load(ctx context.Context, id string) (*orders.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, shared.WrapExternal("load session", err)
	}
	var sess orders.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("purchasing: decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Save writes the session and refreshes its TTL.
func (s *RedisSessionStore) Save(ctx context.Context, sess *orders.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID()), data, s.ttl).Err(); err != nil {
		return shared.WrapExternal("save session", err)
	}
	return nil
}

// Delete drops a session.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return shared.WrapExternal("delete session", err)
	}
	return nil
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

// NewMemorySessionStore constructs an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

// Load returns a copy of the stored session.
func (m *MemorySessionStore) Load(_ context.Context, id string) (*orders.Session, error) {
	m.mu.Lock()
	raw, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var sess orders.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save stores a snapshot of the session.
func (m *MemorySessionStore) Save(_ context.Context, sess *orders.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[sess.ID()] = raw
	m.mu.Unlock()
	return nil
}

// Delete drops a session.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
