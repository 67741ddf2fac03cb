package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/internal/agent/core"
)

const watchLockKey = "marketscout:watch:lock"

// Watcher re-runs a configured research query on a cron schedule.
// When a Redis client is provided a lock ensures only one instance
// fires per tick across replicas.
type Watcher struct {
	cfg    config.WatchConfig
	orch   *core.Orchestrator
	locker *redis.Client
	logger *log.Logger
	expr   *cronexpr.Expression
	next   time.Time
}

// NewWatcher parses the schedule and prepares a watcher. locker may
// be nil for single-instance deployments.
func NewWatcher(cfg config.WatchConfig, orch *core.Orchestrator, locker *redis.Client, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[WATCH] ", log.LstdFlags)
	}
	expr, err := cronexpr.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parsing watch schedule %q: %w", cfg.Schedule, err)
	}
	return &Watcher{
		cfg:    cfg,
		orch:   orch,
		locker: locker,
		logger: logger,
		expr:   expr,
		next:   expr.Next(time.Now()),
	}, nil
}

// Run blocks until ctx is cancelled, firing the watch query whenever
// the schedule is due.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	w.logger.Printf("watching %q, next run at %s", w.cfg.Query, w.next.Format(time.RFC3339))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if now.Before(w.next) {
				continue
			}
			w.next = w.expr.Next(now)
			if !w.acquireLock(ctx) {
				continue
			}
			run, err := w.orch.Research(ctx, w.cfg.Query, "watch")
			if err != nil {
				w.logger.Printf("scheduled research failed: %v", err)
				continue
			}
			w.logger.Printf("scheduled run %s completed, next at %s", run.ID, w.next.Format(time.RFC3339))
		}
	}
}

func (w *Watcher) acquireLock(ctx context.Context) bool {
	if w.locker == nil {
		return true
	}
	ok, err := w.locker.SetNX(ctx, watchLockKey, "1", 5*time.Minute).Result()
	if err != nil {
		w.logger.Printf("watch lock: %v", err)
		return false
	}
	return ok
}
