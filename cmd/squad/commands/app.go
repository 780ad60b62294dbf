package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/fpl-squad/backend/internal/advisor"
	"github.com/wonny/fpl-squad/backend/internal/api"
	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/internal/external/fpl"
	"github.com/wonny/fpl-squad/backend/internal/reasoning"
	"github.com/wonny/fpl-squad/backend/internal/squadconfig"
	"github.com/wonny/fpl-squad/backend/internal/store"
	"github.com/wonny/fpl-squad/backend/pkg/config"
	"github.com/wonny/fpl-squad/backend/pkg/database"
	"github.com/wonny/fpl-squad/backend/pkg/httputil"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
	"github.com/wonny/fpl-squad/backend/pkg/metrics"
	"github.com/wonny/fpl-squad/backend/pkg/redis"
)

// app holds every wired dependency a command may need
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	cache    *redis.Cache
	provider *fpl.Provider
	snapshot *store.FileStore // nil = FPL API 직접 사용
	db       *database.DB     // nil = DATABASE_URL 미설정
	repo     *store.Repository
	metrics  *metrics.Manager
	tuning   *squadconfig.Config
}

// newApp loads config and connects everything. Optional backends
// (Redis, Postgres, reasoning endpoint) are skipped when unconfigured.
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if squadConfigFile != "" {
		cfg.SquadConfigPath = squadConfigFile
	}
	if snapshotFile != "" {
		cfg.FPL.SnapshotPath = snapshotFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	// 3. Redis (cache + shared rate limiter)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
		a.redis = redis.Disabled()
	}
	a.cache = redis.NewCache(a.redis, "fpl-squad")

	// 4. FPL client
	source, err := fpl.ParseDifficultySource(cfg.FPL.Difficulty)
	if err != nil {
		a.Close()
		return nil, err
	}
	httpClient := httputil.New(log, cfg.FPL.Timeout).
		WithRequestRate(float64(cfg.FPL.RequestsPerSec)).
		WithRateLimiter(redis.NewRateLimiter(a.redis, "fpl-squad"), redis.FPLRateLimit)
	a.provider = fpl.NewProvider(fpl.NewClient(httpClient, a.cache, cfg.FPL.BaseURL, log), a.cache, source, log)

	// 5. Offline snapshot
	if cfg.FPL.SnapshotPath != "" {
		a.snapshot = store.NewFileStore(cfg.FPL.SnapshotPath)
		log.WithField("path", cfg.FPL.SnapshotPath).Info("Using snapshot file as player source")
	}

	// 6. Database (optional)
	a.db, err = database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		a.db = nil
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.repo = store.NewRepository(a.db)
		if err := a.repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	// 7. Tuning
	a.tuning, _, err = squadconfig.Load(cfg.SquadConfigPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	for _, w := range squadconfig.Warnings(a.tuning) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	if cfg.MetricsEnabled {
		a.metrics = metrics.NewManager()
	}

	return a, nil
}

// Close releases the database pool and Redis connection
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// pool is a player source that also serves fixtures
type pool interface {
	contracts.PlayerSource
	contracts.FixtureProvider
}

// sources returns where players and fixtures are read from.
// auto: 스냅샷 파일 > FPL API
func (a *app) sources() (pool, error) {
	switch sourceFlag {
	case "", "auto":
		if a.snapshot != nil {
			return a.snapshot, nil
		}
		return a.provider, nil
	case "api":
		return a.provider, nil
	case "file":
		if a.snapshot == nil {
			return nil, fmt.Errorf("--source file needs --snapshot or FPL_SNAPSHOT")
		}
		return a.snapshot, nil
	case "db":
		if a.repo == nil {
			return nil, fmt.Errorf("--source db needs DATABASE_URL")
		}
		return a.repo, nil
	}
	return nil, fmt.Errorf("unknown source %q (auto|api|file|db)", sourceFlag)
}

// sinks returns every configured snapshot store
func (a *app) sinks() []store.Sink {
	var sinks []store.Sink
	if a.repo != nil {
		sinks = append(sinks, a.repo)
	}
	if a.snapshot != nil {
		sinks = append(sinks, a.snapshot)
	}
	return sinks
}

// reasoner returns the remote generator with a template fallback,
// or the template alone when no endpoint is configured
func (a *app) reasoner() contracts.ReasonGenerator {
	template := reasoning.NewTemplate(a.tuning.Scoring.Horizon)
	rc := a.cfg.Reasoning
	limiter := redis.NewRateLimiter(a.redis, "fpl-squad")

	var remote contracts.ReasonGenerator
	switch rc.Provider {
	case "openai":
		if rc.Endpoint == "" && rc.APIKey == "" {
			return template
		}
		remote = reasoning.NewOpenAI(reasoning.OpenAIConfig{
			BaseURL: rc.Endpoint,
			APIKey:  rc.APIKey,
			Model:   rc.Model,
			Timeout: rc.Timeout,
		}, reasoning.WithWait(func(ctx context.Context) error {
			return limiter.Wait(ctx, redis.ReasoningRateLimit)
		}))
	default:
		if rc.Endpoint == "" {
			return template
		}
		client := httputil.New(a.log, rc.Timeout).
			DisableRetry().
			WithRateLimiter(limiter, redis.ReasoningRateLimit)
		if rc.APIKey != "" {
			client = client.WithHeader("Authorization", "Bearer "+rc.APIKey)
		}
		remote = reasoning.NewHTTP(client, rc.Endpoint, rc.Model)
	}

	a.log.WithField("provider", rc.Provider).Debug("Remote reasoning enabled")
	return reasoning.NewFallback(remote, template)
}

// advisor builds the squad service over the configured sources
func (a *app) advisor() (*advisor.Advisor, error) {
	src, err := a.sources()
	if err != nil {
		return nil, err
	}
	adv, err := advisor.New(src, src, a.tuning, a.log)
	if err != nil {
		return nil, err
	}
	adv = adv.WithReasoner(a.reasoner()).WithMetrics(a.metrics)
	// 라운드별 기록은 FPL API에만 있음
	if _, offline := src.(*store.FileStore); !offline {
		adv = adv.WithHistory(a.provider)
	}
	if a.repo != nil {
		adv = adv.WithRunLog(a.repo)
	}
	return adv, nil
}

// healthChecks lists the connected backends for /health
func (a *app) healthChecks() map[string]api.HealthCheck {
	checks := make(map[string]api.HealthCheck)
	if a.redis.Enabled() {
		checks["redis"] = a.redis.HealthCheck
	}
	if a.db != nil {
		checks["postgres"] = func(ctx context.Context) error {
			_, err := a.db.HealthCheck(ctx)
			return err
		}
	}
	return checks
}
