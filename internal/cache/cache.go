// Package cache holds the code -> url lookaside caches placed in front of the store.
//
// A cache only ever holds codes of active records. All implementations are safe for
// concurrent use.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var ErrMiss = errors.New("cache miss")

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNone   = "none"
)

type Cache interface {
	Get(ctx context.Context, code string) (string, error)
	Set(ctx context.Context, code, url string) error
	Delete(ctx context.Context, code string) error
	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	Size          int
}

// New builds the cache selected by opts.Backend.
func New(ctx context.Context, opts Options, logger *zap.Logger) (Cache, error) {
	switch opts.Backend {
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			TTL:      opts.TTL,
		}, logger)
	case BackendMemory:
		return NewMemory(opts.Size, opts.TTL), nil
	case BackendNone, "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
