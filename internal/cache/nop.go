package cache

import "context"

// Nop is a cache that stores nothing. Every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, error) { return "", ErrMiss }

func (Nop) Set(context.Context, string, string) error { return nil }

func (Nop) Delete(context.Context, string) error { return nil }

func (Nop) Ping(context.Context) error { return nil }

func (Nop) Close() error { return nil }
