package fpl

import (
	"context"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
	"github.com/wonny/fpl-squad/backend/pkg/redis"
)

// Provider serves the player pool and fixture map straight from the FPL API
type Provider struct {
	client *Client
	cache  *redis.Cache
	source DifficultySource
	logger *logger.Logger
}

// NewProvider creates a provider. cache may be nil.
func NewProvider(client *Client, cache *redis.Cache, source DifficultySource, log *logger.Logger) *Provider {
	if cache == nil {
		cache = redis.NewCache(redis.Disabled(), "fpl-squad")
	}
	if source == "" {
		source = DifficultyOfficial
	}
	return &Provider{
		client: client,
		cache:  cache,
		source: source,
		logger: log.Component("fpl"),
	}
}

var (
	_ contracts.PlayerSource    = (*Provider)(nil)
	_ contracts.FixtureProvider = (*Provider)(nil)
)

// Players returns every player with a known category
func (p *Provider) Players(ctx context.Context) ([]contracts.Player, error) {
	b, err := p.client.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	players := ToPlayers(b)
	p.logger.WithField("players", len(players)).Debug("Converted player pool")
	return players, nil
}

// FixtureMap returns the next horizon fixtures per team
func (p *Provider) FixtureMap(ctx context.Context, horizon int) (contracts.FixtureMap, error) {
	b, err := p.client.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	gw := NextGameweek(b.Events)
	if gw == 0 {
		p.logger.Warn("No upcoming gameweek, fixture map is empty")
		return BuildFixtureMap(b.Teams, nil, 0, horizon, p.source), nil
	}

	var fm contracts.FixtureMap
	key := redis.FixtureMapKey(gw, horizon, string(p.source))
	err = p.cache.GetOrSet(ctx, key, &fm, redis.TTLLong, func() (interface{}, error) {
		fixtures, err := p.client.Fixtures(ctx)
		if err != nil {
			return nil, err
		}
		return BuildFixtureMap(b.Teams, fixtures, gw, horizon, p.source), nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(map[string]interface{}{
		"gameweek": gw,
		"horizon":  horizon,
		"teams":    len(fm),
		"source":   string(p.source),
	}).Debug("Built fixture map")
	return fm, nil
}
