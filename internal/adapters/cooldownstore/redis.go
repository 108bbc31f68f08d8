// Package cooldownstore provides a Redis-backed cooldown store for
// deployments running more than one instance.
package cooldownstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "cabina:cooldown"

// RedisStore implements cooldown.Store on Redis. Keys expire on their own
// once the cooldown window has passed, so reads past the window simply
// miss.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// Option applies a configuration option to the RedisStore.
type Option func(*RedisStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *RedisStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

// WithTTL sets how long a last-acceptance key survives. It should be at
// least the cooldown window; expired keys read as "never submitted".
func WithTTL(ttl time.Duration) Option {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New creates a RedisStore over an existing client.
func New(rdb *redis.Client, opts ...Option) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: defaultPrefix,
		ttl:    2 * time.Minute,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RedisStore) key(session string) string {
	return s.prefix + ":" + session
}

// Last returns the stored last-acceptance time for a session.
func (s *RedisStore) Last(ctx context.Context, session string) (time.Time, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(session)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get: %w", err)
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cooldown value %q: %w", raw, err)
	}
	return time.UnixMilli(millis), true, nil
}

// SetLast records an acceptance time for a session.
func (s *RedisStore) SetLast(ctx context.Context, session string, t time.Time) error {
	if err := s.rdb.Set(ctx, s.key(session), strconv.FormatInt(t.UnixMilli(), 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
