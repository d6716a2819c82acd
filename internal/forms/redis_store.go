package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const formSessionKeyPrefix = "forms:session:"

// RedisSessionStore keeps form sessions in Redis with a TTL, so an
// abandoned draft expires on its own and a multi-step draft survives
// across requests and process restarts.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates a session store backed by Redis.
// ttl <= 0 defaults to 30 minutes.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func formSessionKey(id string) string {
	return formSessionKeyPrefix + id
}

// Save persists or updates the session, refreshing its TTL.
func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("forms: session id required")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("forms: session marshal: %w", err)
	}
	return s.rdb.Set(ctx, formSessionKey(sess.ID), data, s.ttl).Err()
}

// Get retrieves a session, returning ErrSessionNotFound once expired.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.rdb.Get(ctx, formSessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("forms: session get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("forms: session unmarshal: %w", err)
	}
	if sess.Fields == nil {
		sess.Fields = make(map[string]string)
	}
	return &sess, nil
}

// Delete removes the session.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, formSessionKey(id)).Err()
}

var _ SessionStore = (*RedisSessionStore)(nil)
