package advisor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/internal/scoring"
	"github.com/wonny/fpl-squad/backend/internal/squad"
	"github.com/wonny/fpl-squad/backend/internal/squadconfig"
	"github.com/wonny/fpl-squad/backend/internal/store"
	"github.com/wonny/fpl-squad/backend/internal/transfer"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
	"github.com/wonny/fpl-squad/backend/pkg/metrics"
)

// Method selects the squad construction strategy
type Method string

const (
	MethodGenetic Method = "genetic"
	MethodRandom  Method = "random"
)

// ParseMethod parses "genetic" or "random" (empty means genetic)
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodGenetic:
		return MethodGenetic, nil
	case MethodRandom:
		return MethodRandom, nil
	default:
		return "", fmt.Errorf("%w: unknown method %q", ErrInvalidRequest, s)
	}
}

var (
	// ErrInvalidRequest marks caller mistakes (unknown method, bad player ids)
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownPlayer is returned when a held player id is not in the pool
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrPlayerNotFound is returned by PlayerDetail for an id outside the pool
	ErrPlayerNotFound = errors.New("player not found")
)

// DefaultRecentGames is how many finished gameweeks PlayerDetail looks back
const DefaultRecentGames = 5

// Advisor wires sources, the score model and the optimizers together
// ⭐ SSOT: 빌드/분석 파이프라인 조율은 여기서만
type Advisor struct {
	players  contracts.PlayerSource
	fixtures contracts.FixtureProvider

	cfg        *squadconfig.Config
	configHash string
	rules      squad.Rules
	model      *scoring.Model

	reasoner contracts.ReasonGenerator
	history  contracts.GameHistory
	metrics  *metrics.Manager
	runs     RunLog
	logger   *logger.Logger
}

// RunLog persists build summaries
type RunLog interface {
	SaveBuildRun(ctx context.Context, run store.BuildRun) error
	RecentBuildRuns(ctx context.Context, limit int) ([]store.BuildRun, error)
}

// ErrNoRunLog is returned by RecentRuns when no run log is attached
var ErrNoRunLog = errors.New("build run log not configured")

// New creates an advisor. cfg nil means squadconfig.Default().
func New(players contracts.PlayerSource, fixtures contracts.FixtureProvider, cfg *squadconfig.Config, log *logger.Logger) (*Advisor, error) {
	if cfg == nil {
		cfg = squadconfig.Default()
	}
	if err := squadconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("squad config: %w", err)
	}

	rules := squad.DefaultRules()
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	hash, err := squadconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash squad config: %w", err)
	}

	return &Advisor{
		players:    players,
		fixtures:   fixtures,
		cfg:        cfg,
		configHash: hash,
		rules:      rules,
		model:      scoring.NewModel(cfg.Scoring),
		logger:     log.Component("advisor"),
	}, nil
}

// WithReasoner attaches the transfer reasoning collaborator
func (a *Advisor) WithReasoner(r contracts.ReasonGenerator) *Advisor {
	a.reasoner = r
	return a
}

// WithHistory attaches the per-gameweek stats source used by PlayerDetail
func (a *Advisor) WithHistory(h contracts.GameHistory) *Advisor {
	a.history = h
	return a
}

// WithMetrics attaches the metrics manager
func (a *Advisor) WithMetrics(m *metrics.Manager) *Advisor {
	a.metrics = m
	return a
}

// WithRunLog records every successful build
func (a *Advisor) WithRunLog(runs RunLog) *Advisor {
	a.runs = runs
	return a
}

// Config returns the active tuning
func (a *Advisor) Config() *squadconfig.Config {
	return a.cfg
}

// ConfigHash returns the sha256 of the active tuning
func (a *Advisor) ConfigHash() string {
	return a.configHash
}

// LoadPool fetches players and fixtures and scores every player
func (a *Advisor) LoadPool(ctx context.Context) ([]contracts.ScoredPlayer, error) {
	players, err := a.players.Players(ctx)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}

	fm, err := a.fixtures.FixtureMap(ctx, a.cfg.Scoring.Horizon)
	if err != nil {
		a.logger.WithError(err).Warn("Fixture map unavailable, scoring with neutral difficulty")
		fm = contracts.FixtureMap{}
	}

	scored := a.model.ScorePool(players, fm)
	a.logger.WithFields(map[string]interface{}{
		"players": len(scored),
		"teams":   len(fm),
	}).Debug("Pool scored")
	return scored, nil
}

// PlayerQuery filters the scored pool listing
type PlayerQuery struct {
	Category      contracts.Category // 0 = all
	AvailableOnly bool
	Limit         int // <= 0 = all
}

// Players returns scored players by score desc, then id
func (a *Advisor) Players(ctx context.Context, q PlayerQuery) ([]contracts.ScoredPlayer, error) {
	pool, err := a.LoadPool(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.ScoredPlayer, 0, len(pool))
	for _, p := range pool {
		if q.Category != 0 && p.Category != q.Category {
			continue
		}
		if q.AvailableOnly && !p.Available() {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// PlayerDetail returns one scored player with its last games.
// games <= 0 means DefaultRecentGames. History failures only log; Recent is then empty.
func (a *Advisor) PlayerDetail(ctx context.Context, id, games int) (*contracts.PlayerDetail, error) {
	pool, err := a.LoadPool(ctx)
	if err != nil {
		return nil, err
	}

	detail := &contracts.PlayerDetail{Recent: []contracts.GameweekStats{}}
	found := false
	for _, p := range pool {
		if p.ID == id {
			detail.Player = p
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
	}

	if a.history == nil {
		return detail, nil
	}
	if games <= 0 {
		games = DefaultRecentGames
	}

	recent, err := a.history.RecentGames(ctx, id, games)
	if err != nil {
		a.logger.WithError(err).WithField("player", id).Warn("Recent games unavailable")
		return detail, nil
	}
	if recent != nil {
		detail.Recent = recent
	}
	return detail, nil
}

// BuildRequest describes one squad build
type BuildRequest struct {
	Method Method
	Seed   int64 // 0 = time-based
	// AvailableOnly drops flagged players (injured, suspended) before building
	AvailableOnly bool
}

// BuildResult is a built squad with its run metadata
type BuildResult struct {
	RunID       string            `json:"run_id"`
	Method      Method            `json:"method"`
	Seed        int64             `json:"seed"`
	ConfigHash  string            `json:"config_hash"`
	Squad       contracts.Squad   `json:"squad"`
	Lineup      *contracts.Lineup `json:"lineup"`
	Fitness     float64           `json:"fitness"`
	TotalCost   contracts.Cost    `json:"total_cost"`
	History     []float64         `json:"history,omitempty"`
	Generations int               `json:"generations,omitempty"`
	Duration    time.Duration     `json:"duration"`
}

// BuildSquad constructs a legal squad with the requested method
func (a *Advisor) BuildSquad(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	method, err := ParseMethod(string(req.Method))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := a.build(ctx, method, req)
	a.metrics.ObserveBuild(string(method), err, time.Since(start))
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	a.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"method":  string(method),
		"seed":    result.Seed,
		"fitness": result.Fitness,
		"cost":    result.TotalCost.String(),
	}).Info("Squad built")

	a.recordRun(ctx, result)
	return result, nil
}

// recordRun saves the build summary; a failed save only logs
func (a *Advisor) recordRun(ctx context.Context, r *BuildResult) {
	if a.runs == nil {
		return
	}
	err := a.runs.SaveBuildRun(ctx, store.BuildRun{
		RunID:      r.RunID,
		Method:     string(r.Method),
		Seed:       r.Seed,
		ConfigHash: r.ConfigHash,
		Fitness:    r.Fitness,
		TotalCost:  r.TotalCost,
		PlayerIDs:  r.Squad.IDs(),
		Duration:   r.Duration,
	})
	if err != nil {
		a.logger.WithError(err).WithField("run_id", r.RunID).Warn("Build run not recorded")
	}
}

// RecentRuns returns the latest recorded builds
func (a *Advisor) RecentRuns(ctx context.Context, limit int) ([]store.BuildRun, error) {
	if a.runs == nil {
		return nil, ErrNoRunLog
	}
	return a.runs.RecentBuildRuns(ctx, limit)
}

func (a *Advisor) build(ctx context.Context, method Method, req BuildRequest) (*BuildResult, error) {
	scored, err := a.LoadPool(ctx)
	if err != nil {
		return nil, err
	}
	if req.AvailableOnly {
		scored = availableOnly(scored)
	}

	pool := squad.NewPool(scored)
	if !pool.Covers(a.rules) {
		return nil, fmt.Errorf("%w: pool of %d players cannot fill every category", squad.ErrInfeasible, pool.Len())
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	result := &BuildResult{
		Method:     method,
		Seed:       seed,
		ConfigHash: a.configHash,
	}

	switch method {
	case MethodRandom:
		s, err := squad.NewRandomBuilder(pool, a.rules, a.cfg.Random.Attempts, a.logger).Build(rng)
		if err != nil {
			return nil, err
		}
		lineup, err := squad.BestLineup(s, a.rules.Formations)
		if err != nil {
			return nil, err
		}
		result.RunID = uuid.New().String()
		result.Squad = squad.Arrange(s)
		result.Lineup = lineup
		result.Fitness = lineup.Score

	default:
		builder := squad.NewGeneticBuilder(pool, a.rules, a.cfg.Genetic, a.logger)
		if a.metrics != nil {
			builder = builder.WithObserver(a.metrics)
		}
		r, err := builder.Build(ctx, rng)
		if err != nil {
			return nil, err
		}
		result.RunID = r.RunID
		result.Squad = squad.Arrange(r.Squad)
		result.Lineup = r.Lineup
		result.Fitness = r.Fitness
		result.History = r.History
		result.Generations = r.Generations
	}

	result.TotalCost = result.Squad.TotalCost()
	return result, nil
}

func availableOnly(players []contracts.ScoredPlayer) []contracts.ScoredPlayer {
	out := make([]contracts.ScoredPlayer, 0, len(players))
	for _, p := range players {
		if p.Available() {
			out = append(out, p)
		}
	}
	return out
}

// AnalyzeRequest describes a held squad to analyze
type AnalyzeRequest struct {
	PlayerIDs []int          `json:"player_ids"`
	Transfers int            `json:"transfers"` // 단일 이적 추천 수 (<=0 이면 3)
	Bank      contracts.Cost `json:"bank"`      // 0.1m 단위, >0 이면 방출 금액에 합산
}

// AnalyzeSquad suggests a captain, single transfers and a double transfer
func (a *Advisor) AnalyzeSquad(ctx context.Context, req AnalyzeRequest) (*contracts.SquadAnalysis, error) {
	scored, err := a.LoadPool(ctx)
	if err != nil {
		return nil, err
	}

	held, err := a.resolveHeld(scored, req.PlayerIDs)
	if err != nil {
		return nil, err
	}

	cfg := a.cfg.Transfer
	if req.Bank > 0 {
		cfg.IncludeBank = true
		cfg.Bank = req.Bank
	}

	n := req.Transfers
	if n <= 0 {
		n = 3
	}

	analyzer := transfer.NewAnalyzer(held, scored, a.rules, cfg, a.logger)
	if a.reasoner != nil {
		analyzer = analyzer.WithReasoner(a.reasoner)
	}
	if a.metrics != nil {
		analyzer = analyzer.WithRecorder(a.metrics)
	}
	return analyzer.Analyze(ctx, n)
}

// resolveHeld maps ids onto scored players and checks the squad shape.
// Squad value may exceed the budget after price rises, so budget is not enforced.
func (a *Advisor) resolveHeld(pool []contracts.ScoredPlayer, ids []int) (contracts.Squad, error) {
	byID := make(map[int]contracts.ScoredPlayer, len(pool))
	for _, p := range pool {
		byID[p.ID] = p
	}

	held := make(contracts.Squad, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %w %d", ErrInvalidRequest, ErrUnknownPlayer, id)
		}
		held = append(held, p)
	}

	relaxed := a.rules
	if cost := held.TotalCost(); cost > relaxed.Budget {
		relaxed.Budget = cost
	}
	if err := relaxed.Check(held); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return held, nil
}
