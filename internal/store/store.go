// Package store holds completed research runs. The orchestrator only
// needs SaveLatest; the HTTP API additionally reads back the latest
// run and recent history.
package store

import (
	"context"
	"fmt"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/internal/agent/core"
)

// ResultStore persists research runs with overwrite-latest semantics.
type ResultStore interface {
	SaveLatest(ctx context.Context, run core.ResearchRun) error
	Latest(ctx context.Context) (core.ResearchRun, bool, error)
	History(ctx context.Context, limit int) ([]core.ResearchRun, error)
	Close() error
}

// New builds the store named by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (ResultStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(0), nil
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
