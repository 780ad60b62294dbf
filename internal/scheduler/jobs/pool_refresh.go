package jobs

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/internal/store"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
	"github.com/wonny/fpl-squad/backend/pkg/metrics"
	"github.com/wonny/fpl-squad/backend/pkg/redis"
)

// Upstream is where a refresh reads players and fixtures from
type Upstream interface {
	contracts.PlayerSource
	contracts.FixtureProvider
}

// Invalidator drops cached upstream responses
type Invalidator interface {
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// PoolRefreshJob captures the player pool and fixtures into every sink
type PoolRefreshJob struct {
	upstream Upstream
	sinks    []store.Sink
	cache    Invalidator
	metrics  *metrics.Manager
	schedule string
	horizon  int
	source   string
	logger   *logger.Logger
}

// PoolRefreshConfig configures a PoolRefreshJob
type PoolRefreshConfig struct {
	Schedule string // cron (초 포함)
	Horizon  int    // 팀당 저장할 픽스처 수 (0 = 전체)
	Source   string // 스냅샷 출처 라벨
}

// NewPoolRefreshJob creates a new pool refresh job
func NewPoolRefreshJob(upstream Upstream, sinks []store.Sink, cfg PoolRefreshConfig, log *logger.Logger) *PoolRefreshJob {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 0 */6 * * *"
	}
	if cfg.Source == "" {
		cfg.Source = "fpl"
	}
	return &PoolRefreshJob{
		upstream: upstream,
		sinks:    sinks,
		schedule: cfg.Schedule,
		horizon:  cfg.Horizon,
		source:   cfg.Source,
		logger:   log.Component("pool_refresh"),
	}
}

// WithCache makes each run drop the cached upstream responses first,
// including fixture maps derived from them
func (j *PoolRefreshJob) WithCache(cache Invalidator) *PoolRefreshJob {
	j.cache = cache
	return j
}

// WithMetrics records refresh outcomes
func (j *PoolRefreshJob) WithMetrics(m *metrics.Manager) *PoolRefreshJob {
	j.metrics = m
	return j
}

// Name returns the job name
func (j *PoolRefreshJob) Name() string {
	return "pool_refresh"
}

// Schedule returns the cron schedule
func (j *PoolRefreshJob) Schedule() string {
	return j.schedule
}

// Run executes the refresh
func (j *PoolRefreshJob) Run(ctx context.Context) error {
	snapshot, err := j.refresh(ctx)
	if err != nil {
		j.metrics.ObservePoolRefresh(0, err)
		return err
	}
	j.metrics.ObservePoolRefresh(snapshot.PlayerCount, nil)

	j.logger.WithFields(map[string]interface{}{
		"players": snapshot.PlayerCount,
		"teams":   len(snapshot.Fixtures),
		"sinks":   len(j.sinks),
	}).Info("Pool refresh completed")

	return nil
}

func (j *PoolRefreshJob) refresh(ctx context.Context) (*store.Snapshot, error) {
	if err := j.invalidate(ctx); err != nil {
		return nil, err
	}

	snapshot, err := store.Capture(ctx, j.upstream, j.upstream, j.horizon, j.source)
	if err != nil {
		return nil, err
	}
	if snapshot.PlayerCount == 0 {
		return nil, fmt.Errorf("upstream returned no players")
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, sink := range j.sinks {
		g.Go(func() error {
			if err := sink.SaveSnapshot(gctx, snapshot); err != nil {
				return fmt.Errorf("sink %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// invalidate fails the run rather than capture a stale pool
func (j *PoolRefreshJob) invalidate(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}

	for _, key := range []string{redis.BootstrapKey(), redis.FixturesKey()} {
		if err := j.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("invalidate %s: %w", key, err)
		}
	}

	n, err := j.cache.DeletePrefix(ctx, redis.FixtureMapPrefix())
	if err != nil {
		return fmt.Errorf("invalidate fixture maps: %w", err)
	}
	j.logger.WithField("fixture_maps", n).Debug("Dropped cached upstream payloads")
	return nil
}
