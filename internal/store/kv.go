package store

import (
	"context"
	"fmt"
)

// KV is the key-value contract behind persisted dashboard state.
// Get returns ErrNotFound for a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Options selects and configures a KV backend.
type Options struct {
	Driver        string // memory, sqlite or redis
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open returns the KV backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryKV(), nil
	case "sqlite":
		return NewSQLiteKV(ctx, opts.SQLitePath)
	case "redis":
		return NewRedisKV(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
