package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "url:"
	defaultTTL = 24 * time.Hour
)

type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	TTL          time.Duration
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis connects to the server described by opts and pings it once.
func NewRedis(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	logger.Info("Connected to Redis",
		zap.String("component", "cache"),
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB))

	return NewRedisWithClient(client, opts.TTL), nil
}

// NewRedisWithClient wraps an existing client. A zero ttl means 24h; a negative ttl
// stores entries without expiry.
func NewRedisWithClient(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl == 0 {
		ttl = defaultTTL
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl}
}

func key(code string) string {
	return keyPrefix + code
}

func (r *Redis) Get(ctx context.Context, code string) (string, error) {
	url, err := r.client.Get(ctx, key(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return url, nil
}

func (r *Redis) Set(ctx context.Context, code, url string) error {
	if err := r.client.Set(ctx, key(code), url, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, key(code)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
