// Package store provides the durable key-value stores used for preferences and timer state.
package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/pomotune/internal/infra/config"
)

// KV is a string key-value store. The last write to a key wins.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open opens the store selected by the configuration.
func Open(cfg config.StoreConfig) (KV, error) {
	switch cfg.Driver {
	case "sqlite":
		return OpenSQLite(cfg.Path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.Newf("unsupported store driver: %s", cfg.Driver)
	}
}
