package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// ErrNoSnapshot is returned when nothing has been stored yet
var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshot is one fetched player pool with its fixture map
type Snapshot struct {
	TakenAt     time.Time            `json:"taken_at"`
	Source      string               `json:"source"`
	Horizon     int                  `json:"horizon"`
	PlayerCount int                  `json:"player_count"`
	Players     []contracts.Player   `json:"players"`
	Fixtures    contracts.FixtureMap `json:"fixtures"`
}

// Sink persists snapshots
type Sink interface {
	SaveSnapshot(ctx context.Context, s *Snapshot) error
}

// Capture reads players and fixtures from upstream into a snapshot
func Capture(ctx context.Context, players contracts.PlayerSource, fixtures contracts.FixtureProvider, horizon int, source string) (*Snapshot, error) {
	ps, err := players.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture players: %w", err)
	}
	fm, err := fixtures.FixtureMap(ctx, horizon)
	if err != nil {
		return nil, fmt.Errorf("capture fixtures: %w", err)
	}
	return &Snapshot{
		TakenAt:     time.Now().UTC(),
		Source:      source,
		Horizon:     horizon,
		PlayerCount: len(ps),
		Players:     ps,
		Fixtures:    fm,
	}, nil
}

// truncate keeps at most horizon fixtures per team (horizon <= 0 keeps all)
func truncate(fm contracts.FixtureMap, horizon int) contracts.FixtureMap {
	out := make(contracts.FixtureMap, len(fm))
	for team, fixtures := range fm {
		n := len(fixtures)
		if horizon > 0 && n > horizon {
			n = horizon
		}
		out[team] = append([]contracts.Fixture{}, fixtures[:n]...)
	}
	return out
}
