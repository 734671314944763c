package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultRedisPrefix = "locforge:tr:"

// Redis is a Store shared between machines through a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis connects to url and verifies the connection.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return NewRedisFromClient(client, ttl, ""), nil
}

// NewRedisFromClient wraps an existing client. An empty prefix selects the
// default.
func NewRedisFromClient(client *redis.Client, ttl time.Duration, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, source, lang string) (string, bool) {
	val, err := r.client.Get(ctx, r.prefix+Key(source, lang)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Msg("Redis cache lookup failed")
		return "", false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, source, lang, translated string) error {
	if err := r.client.Set(ctx, r.prefix+Key(source, lang), translated, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)
