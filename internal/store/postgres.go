package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/internal/agent/core"
)

// PostgresStore archives every run in the research_runs table. The
// latest run is simply the newest row.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens and pings the configured database. The
// schema is managed separately through migrations.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveLatest(ctx context.Context, run core.ResearchRun) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshalling run: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO research_runs (id, query, response, success, payload, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            query = EXCLUDED.query,
            response = EXCLUDED.response,
            success = EXCLUDED.success,
            payload = EXCLUDED.payload`,
		run.ID, run.Query.Text, run.Response, run.Success, raw, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context) (core.ResearchRun, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM research_runs ORDER BY created_at DESC LIMIT 1`)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return core.ResearchRun{}, false, nil
		}
		return core.ResearchRun{}, false, fmt.Errorf("reading latest run: %w", err)
	}
	var run core.ResearchRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return core.ResearchRun{}, false, fmt.Errorf("unmarshalling run: %w", err)
	}
	return run, true, nil
}

func (s *PostgresStore) History(ctx context.Context, limit int) ([]core.ResearchRun, error) {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM research_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var runs []core.ResearchRun
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		var run core.ResearchRun
		if err := json.Unmarshal(raw, &run); err != nil {
			return nil, fmt.Errorf("unmarshalling run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
