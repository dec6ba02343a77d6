package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bdobrica/voicedesk/internal/voicedesk/nlu"
)

// keyPrefix namespaces session keys so the instance can share a Redis
// database with other services.
const keyPrefix = "voicedesk:session:"

// RedisStore persists session contexts in Redis.  Deployments that already
// run Redis for other services can select it over the default SQLite backend.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redisURL (redis://...) and pings the server.
// A zero ttl keeps contexts forever, matching the SQLite backend.
func NewRedis(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Load returns the context stored for key, or an empty context when the
// session has never been seen.
func (s *RedisStore) Load(ctx context.Context, key string) (nlu.DialogContext, error) {
	blob, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nlu.NewDialogContext(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}

	var dialogCtx nlu.DialogContext
	if err := json.Unmarshal([]byte(blob), &dialogCtx); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	if dialogCtx == nil {
		dialogCtx = nlu.NewDialogContext()
	}
	return dialogCtx, nil
}

// Save replaces the context blob for key.
func (s *RedisStore) Save(ctx context.Context, key string, dialogCtx nlu.DialogContext) error {
	blob, err := json.Marshal(dialogCtx)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", key, err)
	}
	return nil
}

// Count returns the number of persisted sessions.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var n int
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
