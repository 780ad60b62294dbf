package fpl

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/fpl-squad/backend/pkg/httputil"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
	"github.com/wonny/fpl-squad/backend/pkg/redis"
)

// DefaultBaseURL is the public Fantasy Premier League API root
const DefaultBaseURL = "https://fantasy.premierleague.com/api"

// Client handles communication with the FPL API
// ⭐ SSOT: FPL API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new FPL client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cache == nil {
		cache = redis.NewCache(redis.Disabled(), "fpl-squad")
	}
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Bootstrap fetches bootstrap-static (players, teams, gameweeks)
func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var out Bootstrap
	fetch := func() (interface{}, error) {
		var b Bootstrap
		if err := c.httpClient.GetJSON(ctx, c.baseURL+"/bootstrap-static/", &b); err != nil {
			return nil, fmt.Errorf("fetch bootstrap-static: %w", err)
		}
		c.logger.WithFields(map[string]interface{}{
			"players": len(b.Elements),
			"teams":   len(b.Teams),
		}).Debug("Fetched bootstrap-static")
		return &b, nil
	}

	if err := c.cache.GetOrSet(ctx, redis.BootstrapKey(), &out, redis.TTLMedium, fetch); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fixtures fetches the full season fixture list
func (c *Client) Fixtures(ctx context.Context) ([]FixtureRecord, error) {
	var out []FixtureRecord
	fetch := func() (interface{}, error) {
		var f []FixtureRecord
		if err := c.httpClient.GetJSON(ctx, c.baseURL+"/fixtures/", &f); err != nil {
			return nil, fmt.Errorf("fetch fixtures: %w", err)
		}
		c.logger.WithField("fixtures", len(f)).Debug("Fetched fixtures")
		return f, nil
	}

	if err := c.cache.GetOrSet(ctx, redis.FixturesKey(), &out, redis.TTLLong, fetch); err != nil {
		return nil, err
	}
	return out, nil
}

// EventLive fetches every player's stats for one finished gameweek
func (c *Client) EventLive(ctx context.Context, gameweek int) (*LiveEvent, error) {
	var out LiveEvent
	fetch := func() (interface{}, error) {
		var live LiveEvent
		url := fmt.Sprintf("%s/event/%d/live/", c.baseURL, gameweek)
		if err := c.httpClient.GetJSON(ctx, url, &live); err != nil {
			return nil, fmt.Errorf("fetch live stats for gameweek %d: %w", gameweek, err)
		}
		c.logger.WithFields(map[string]interface{}{
			"gameweek": gameweek,
			"elements": len(live.Elements),
		}).Debug("Fetched live stats")
		return &live, nil
	}

	if err := c.cache.GetOrSet(ctx, redis.EventLiveKey(gameweek), &out, redis.TTLDaily, fetch); err != nil {
		return nil, err
	}
	return &out, nil
}

// EventFixtures fetches the fixtures of one gameweek
func (c *Client) EventFixtures(ctx context.Context, gameweek int) ([]FixtureRecord, error) {
	var out []FixtureRecord
	fetch := func() (interface{}, error) {
		var f []FixtureRecord
		url := fmt.Sprintf("%s/fixtures/?event=%d", c.baseURL, gameweek)
		if err := c.httpClient.GetJSON(ctx, url, &f); err != nil {
			return nil, fmt.Errorf("fetch fixtures for gameweek %d: %w", gameweek, err)
		}
		return f, nil
	}

	if err := c.cache.GetOrSet(ctx, redis.EventFixturesKey(gameweek), &out, redis.TTLDaily, fetch); err != nil {
		return nil, err
	}
	return out, nil
}
