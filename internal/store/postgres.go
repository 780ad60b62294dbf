package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/database"
)

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS fpl;

	CREATE TABLE IF NOT EXISTS fpl.players (
		player_id       INTEGER PRIMARY KEY,
		name            TEXT NOT NULL,
		web_name        TEXT NOT NULL DEFAULT '',
		category        SMALLINT NOT NULL,
		team_id         INTEGER NOT NULL,
		team_name       TEXT NOT NULL,
		cost            INTEGER NOT NULL,
		form            DOUBLE PRECISION NOT NULL DEFAULT 0,
		ict_index       DOUBLE PRECISION NOT NULL DEFAULT 0,
		points_per_game DOUBLE PRECISION NOT NULL DEFAULT 0,
		minutes         INTEGER NOT NULL DEFAULT 0,
		status          TEXT NOT NULL DEFAULT '',
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS fpl.fixtures (
		team_name  TEXT NOT NULL,
		seq        SMALLINT NOT NULL,
		gameweek   INTEGER NOT NULL,
		opponent   TEXT NOT NULL,
		difficulty SMALLINT NOT NULL,
		venue      CHAR(1) NOT NULL,
		PRIMARY KEY (team_name, seq)
	);

	CREATE TABLE IF NOT EXISTS fpl.snapshots (
		id        BIGSERIAL PRIMARY KEY,
		taken_at  TIMESTAMPTZ NOT NULL,
		source    TEXT NOT NULL,
		horizon   INTEGER NOT NULL,
		players   INTEGER NOT NULL
	);
`

// Repository stores the latest snapshot in PostgreSQL
// ⭐ SSOT: 선수/일정 스냅샷 저장소는 여기서만
type Repository struct {
	db *database.DB
}

// NewRepository creates a new repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

var (
	_ Sink                      = (*Repository)(nil)
	_ contracts.PlayerSource    = (*Repository)(nil)
	_ contracts.FixtureProvider = (*Repository)(nil)
)

// EnsureSchema creates the fpl schema and tables if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, sql := range []string{schemaSQL, runsSchemaSQL} {
		if _, err := r.db.Pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveSnapshot replaces players and fixtures in one transaction
func (r *Repository) SaveSnapshot(ctx context.Context, s *Snapshot) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := upsertPlayers(ctx, tx, s.Players); err != nil {
			return err
		}
		if err := replaceFixtures(ctx, tx, s.Fixtures); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO fpl.snapshots (taken_at, source, horizon, players)
			VALUES ($1, $2, $3, $4)
		`, s.TakenAt, s.Source, s.Horizon, len(s.Players))
		if err != nil {
			return fmt.Errorf("record snapshot: %w", err)
		}
		return nil
	})
}

func upsertPlayers(ctx context.Context, tx pgx.Tx, players []contracts.Player) error {
	query := `
		INSERT INTO fpl.players (
			player_id, name, web_name, category, team_id, team_name, cost,
			form, ict_index, points_per_game, minutes, status, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (player_id) DO UPDATE SET
			name = EXCLUDED.name,
			web_name = EXCLUDED.web_name,
			category = EXCLUDED.category,
			team_id = EXCLUDED.team_id,
			team_name = EXCLUDED.team_name,
			cost = EXCLUDED.cost,
			form = EXCLUDED.form,
			ict_index = EXCLUDED.ict_index,
			points_per_game = EXCLUDED.points_per_game,
			minutes = EXCLUDED.minutes,
			status = EXCLUDED.status,
			updated_at = NOW()
	`

	ids := make([]int32, 0, len(players))
	batch := &pgx.Batch{}
	for _, p := range players {
		ids = append(ids, int32(p.ID))
		batch.Queue(query,
			p.ID, p.Name, p.WebName, int(p.Category), int(p.Team), p.TeamName, int(p.Cost),
			p.Form, p.ICTIndex, p.PointsPerGame, p.Minutes, p.Status,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert players: %w", err)
	}

	// 스냅샷에 없는 선수는 제거 (이적/방출)
	if _, err := tx.Exec(ctx, `DELETE FROM fpl.players WHERE player_id <> ALL($1)`, ids); err != nil {
		return fmt.Errorf("prune players: %w", err)
	}
	return nil
}

func replaceFixtures(ctx context.Context, tx pgx.Tx, fm contracts.FixtureMap) error {
	if _, err := tx.Exec(ctx, `DELETE FROM fpl.fixtures`); err != nil {
		return fmt.Errorf("clear fixtures: %w", err)
	}

	rows := make([][]interface{}, 0, len(fm)*5)
	for team, fixtures := range fm {
		for i, f := range fixtures {
			rows = append(rows, []interface{}{team, i, f.Gameweek, f.Opponent, f.Difficulty, string(f.Venue)})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"fpl", "fixtures"},
		[]string{"team_name", "seq", "gameweek", "opponent", "difficulty", "venue"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy fixtures: %w", err)
	}
	return nil
}

// Players returns the stored player pool
func (r *Repository) Players(ctx context.Context) ([]contracts.Player, error) {
	query := `
		SELECT player_id, name, web_name, category, team_id, team_name, cost,
		       form, ict_index, points_per_game, minutes, status
		FROM fpl.players
		ORDER BY player_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []contracts.Player
	for rows.Next() {
		var (
			p        contracts.Player
			category int16
			team     int32
			cost     int32
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &p.WebName, &category, &team, &p.TeamName, &cost,
			&p.Form, &p.ICTIndex, &p.PointsPerGame, &p.Minutes, &p.Status,
		); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Category = contracts.Category(category)
		p.Team = contracts.TeamID(team)
		p.Cost = contracts.Cost(cost)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, ErrNoSnapshot
	}
	return players, nil
}

// FixtureMap returns the stored fixtures, at most horizon per team
func (r *Repository) FixtureMap(ctx context.Context, horizon int) (contracts.FixtureMap, error) {
	query := `
		SELECT team_name, gameweek, opponent, difficulty, venue
		FROM fpl.fixtures
		WHERE $1 <= 0 OR seq < $1
		ORDER BY team_name, seq
	`

	rows, err := r.db.Pool.Query(ctx, query, horizon)
	if err != nil {
		return nil, fmt.Errorf("query fixtures: %w", err)
	}
	defer rows.Close()

	fm := make(contracts.FixtureMap)
	for rows.Next() {
		var (
			team       string
			f          contracts.Fixture
			difficulty int16
			venue      string
		)
		if err := rows.Scan(&team, &f.Gameweek, &f.Opponent, &difficulty, &venue); err != nil {
			return nil, fmt.Errorf("scan fixture: %w", err)
		}
		f.Difficulty = int(difficulty)
		f.Venue = contracts.Venue(venue)
		fm[team] = append(fm[team], f)
	}
	return fm, rows.Err()
}

// LatestSnapshot returns the metadata of the most recent snapshot
func (r *Repository) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	err := r.db.Pool.QueryRow(ctx, `
		SELECT taken_at, source, horizon, players
		FROM fpl.snapshots
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&s.TakenAt, &s.Source, &s.Horizon, &s.PlayerCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return &s, nil
}
