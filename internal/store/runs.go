package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

const runsSchemaSQL = `
	CREATE TABLE IF NOT EXISTS fpl.build_runs (
		run_id      TEXT PRIMARY KEY,
		method      TEXT NOT NULL,
		seed        BIGINT NOT NULL,
		config_hash TEXT NOT NULL,
		fitness     DOUBLE PRECISION NOT NULL,
		total_cost  INTEGER NOT NULL,
		player_ids  JSONB NOT NULL,
		duration_ms BIGINT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_build_runs_created ON fpl.build_runs (created_at DESC);
`

// BuildRun is the persisted summary of one squad build
type BuildRun struct {
	RunID      string         `json:"run_id"`
	Method     string         `json:"method"`
	Seed       int64          `json:"seed"`
	ConfigHash string         `json:"config_hash"`
	Fitness    float64        `json:"fitness"`
	TotalCost  contracts.Cost `json:"total_cost"`
	PlayerIDs  []int          `json:"player_ids"`
	Duration   time.Duration  `json:"duration"`
	CreatedAt  time.Time      `json:"created_at"`
}

// SaveBuildRun records a build. Re-saving the same run id is a no-op.
func (r *Repository) SaveBuildRun(ctx context.Context, run BuildRun) error {
	idsJSON, err := json.Marshal(run.PlayerIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal player ids: %w", err)
	}

	query := `
		INSERT INTO fpl.build_runs (
			run_id, method, seed, config_hash, fitness, total_cost, player_ids, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO NOTHING
	`

	_, err = r.db.Pool.Exec(ctx, query,
		run.RunID, run.Method, run.Seed, run.ConfigHash, run.Fitness,
		int(run.TotalCost), idsJSON, run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save build run: %w", err)
	}

	return nil
}

// RecentBuildRuns returns the latest runs, newest first
func (r *Repository) RecentBuildRuns(ctx context.Context, limit int) ([]BuildRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, method, seed, config_hash, fitness, total_cost, player_ids, duration_ms, created_at
		FROM fpl.build_runs
		ORDER BY created_at DESC, run_id
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query build runs: %w", err)
	}
	defer rows.Close()

	runs := make([]BuildRun, 0)
	for rows.Next() {
		var run BuildRun
		var cost int
		var idsJSON []byte
		var durationMS int64

		if err := rows.Scan(
			&run.RunID, &run.Method, &run.Seed, &run.ConfigHash, &run.Fitness,
			&cost, &idsJSON, &durationMS, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan build run: %w", err)
		}

		if err := json.Unmarshal(idsJSON, &run.PlayerIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player ids: %w", err)
		}
		run.TotalCost = contracts.Cost(cost)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
