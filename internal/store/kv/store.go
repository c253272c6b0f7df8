// Package kv persists named string slots. The mood log is kept as one JSON
// document under a single key, so the stores only need whole-value reads and
// writes.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/mindease/backend/internal/config"
)

// ErrNotFound is returned by Get when the key was never written.
var ErrNotFound = errors.New("kv: key not found")

// Store reads and replaces whole values.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreMemory, "":
		return NewMemory(), nil
	case config.StoreRedis:
		return OpenRedis(ctx, cfg.RedisURL)
	case config.StorePostgres:
		if err := RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
