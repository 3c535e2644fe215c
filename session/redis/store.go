// Package redis implements the session.Store interface on Redis, letting
// several gateway processes share one session space. Inactivity expiry is
// delegated to key TTLs refreshed on Save.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruilibao/live-server/session"
)

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisStore(addr, password string, db int, prefix string, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if prefix == "" {
		prefix = "liveserver:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis session store: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: logger}, nil
}

func (s *RedisStore) Create(ctx context.Context) (*session.Session, error) {
	sess := session.New(uuid.NewString())

	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	stored, err := s.client.SetNX(ctx, s.sessionKey(sess.ID), raw, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if !stored {
		return nil, fmt.Errorf("session id collision for %s", sess.ID)
	}

	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*session.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *session.Session) error {
	sess.Touch()

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// Set refreshes the TTL, which is what defers inactivity expiry.
	if err := s.client.Set(ctx, s.sessionKey(sess.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}
