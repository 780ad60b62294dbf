package squad

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

// Selection is the mating pool strategy
type Selection string

const (
	SelectionTruncation Selection = "truncation" // 상위 절반
	SelectionRoulette   Selection = "roulette"   // 적합도 비례
)

// GeneticConfig tunes the evolutionary search
type GeneticConfig struct {
	PopulationSize         int       `yaml:"population_size" json:"population_size"`
	Generations            int       `yaml:"generations" json:"generations"`
	MutationRate           float64   `yaml:"mutation_rate" json:"mutation_rate"`
	EliteFraction          float64   `yaml:"elite_fraction" json:"elite_fraction"`
	Selection              Selection `yaml:"selection" json:"selection"`
	Workers                int       `yaml:"workers" json:"workers"`                                   // 적합도 병렬 평가 (<=1 이면 순차)
	InitAttempts           int       `yaml:"init_attempts" json:"init_attempts"`                       // 개체당 초기화 재시도
	MutationAttempts       int       `yaml:"mutation_attempts" json:"mutation_attempts"`               // 교체 후보 탐색 재시도
	MutationPoolSize       int       `yaml:"mutation_pool_size" json:"mutation_pool_size"`             // 하위 N명 중 교체
	OffspringAttemptFactor int       `yaml:"offspring_attempt_factor" json:"offspring_attempt_factor"` // 세대당 자식 생성 시도 = P × factor
}

// DefaultGeneticConfig returns a configuration suited to a full upstream pool
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize:         500,
		Generations:            200,
		MutationRate:           0.2,
		EliteFraction:          0.1,
		Selection:              SelectionTruncation,
		Workers:                4,
		InitAttempts:           100,
		MutationAttempts:       100,
		MutationPoolSize:       5,
		OffspringAttemptFactor: 10,
	}
}

// Validate checks parameter ranges
func (c GeneticConfig) Validate() error {
	switch {
	case c.PopulationSize < 2:
		return fmt.Errorf("population_size must be >= 2, got %d", c.PopulationSize)
	case c.Generations < 0:
		return fmt.Errorf("generations must be >= 0, got %d", c.Generations)
	case c.MutationRate < 0 || c.MutationRate > 1:
		return fmt.Errorf("mutation_rate must be in [0,1], got %v", c.MutationRate)
	case c.EliteFraction < 0 || c.EliteFraction > 1:
		return fmt.Errorf("elite_fraction must be in [0,1], got %v", c.EliteFraction)
	case c.Selection != SelectionTruncation && c.Selection != SelectionRoulette:
		return fmt.Errorf("selection must be truncation or roulette, got %q", c.Selection)
	case c.InitAttempts < 1 || c.MutationAttempts < 1 || c.MutationPoolSize < 1 || c.OffspringAttemptFactor < 1:
		return fmt.Errorf("attempt bounds must be >= 1")
	}
	return nil
}

// Observer receives per-generation progress (pkg/metrics.Manager satisfies it)
type Observer interface {
	ObserveGeneration(best float64)
	ObserveOffspring(repaired, discarded int)
}

// Result is the outcome of a genetic run
type Result struct {
	RunID       string            `json:"run_id"`
	Squad       contracts.Squad   `json:"squad"`
	Fitness     float64           `json:"fitness"`
	Lineup      *contracts.Lineup `json:"lineup"`
	History     []float64         `json:"history"` // 세대별 최고 적합도 (초기 개체군 포함)
	Generations int               `json:"generations"`
	Repaired    int               `json:"repaired"`
	Discarded   int               `json:"discarded"`
	Duration    time.Duration     `json:"duration"`
}

// GeneticBuilder evolves a population of legal squads
type GeneticBuilder struct {
	pool     *Pool
	rules    Rules
	cfg      GeneticConfig
	repairer *Repairer
	observer Observer
	log      *logger.Logger
}

// NewGeneticBuilder creates a builder over a scored pool
func NewGeneticBuilder(pool *Pool, rules Rules, cfg GeneticConfig, log *logger.Logger) *GeneticBuilder {
	return &GeneticBuilder{
		pool:     pool,
		rules:    rules,
		cfg:      cfg,
		repairer: NewRepairer(pool, rules),
		log:      log.Component("genetic"),
	}
}

// WithObserver attaches a progress observer
func (g *GeneticBuilder) WithObserver(o Observer) *GeneticBuilder {
	g.observer = o
	return g
}

type individual struct {
	squad   contracts.Squad
	fitness float64
}

// Build runs the search. rng drives every stochastic step, so a fixed
// seed reproduces the run regardless of Workers.
func (g *GeneticBuilder) Build(ctx context.Context, rng *rand.Rand) (*Result, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("genetic config: %w", err)
	}
	if err := g.rules.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.New().String()
	log := g.log.WithField("run_id", runID)

	population := g.initialPopulation(rng)
	if len(population) == 0 {
		return nil, fmt.Errorf("initial population of %d: %w", g.cfg.PopulationSize, ErrInfeasible)
	}
	log.WithFields(map[string]interface{}{
		"population":  len(population),
		"generations": g.cfg.Generations,
		"pool":        g.pool.Len(),
	}).Info("genetic search started")

	if err := g.evaluate(ctx, population); err != nil {
		return nil, err
	}
	rankPopulation(population)

	result := &Result{RunID: runID, History: []float64{population[0].fitness}}

	for gen := 1; gen <= g.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		next, repaired, discarded := g.nextGeneration(population, rng)
		if err := g.evaluate(ctx, next); err != nil {
			return nil, err
		}
		rankPopulation(next)
		population = next

		best := population[0].fitness
		result.History = append(result.History, best)
		result.Repaired += repaired
		result.Discarded += discarded
		result.Generations = gen

		if g.observer != nil {
			g.observer.ObserveGeneration(best)
			g.observer.ObserveOffspring(repaired, discarded)
		}
		log.WithFields(map[string]interface{}{
			"generation": gen,
			"best":       best,
			"repaired":   repaired,
			"discarded":  discarded,
		}).Debug("generation evolved")
	}

	best := population[0]
	lineup, err := BestLineup(best.squad, g.rules.Formations)
	if err != nil {
		return nil, err
	}

	result.Squad = Arrange(best.squad)
	result.Fitness = best.fitness
	result.Lineup = lineup
	result.Duration = time.Since(start)

	log.WithFields(map[string]interface{}{
		"fitness":   result.Fitness,
		"cost":      int(result.Squad.TotalCost()),
		"repaired":  result.Repaired,
		"discarded": result.Discarded,
		"duration":  result.Duration.String(),
	}).Info("genetic search finished")

	return result, nil
}

// initialPopulation samples up to P legal squads, each with bounded retries
func (g *GeneticBuilder) initialPopulation(rng *rand.Rand) []individual {
	population := make([]individual, 0, g.cfg.PopulationSize)
	for i := 0; i < g.cfg.PopulationSize; i++ {
		out := Retry(g.cfg.InitAttempts, func(int) (contracts.Squad, bool) {
			return sampleSquad(g.pool, g.rules, g.repairer, rng)
		})
		if out.OK {
			population = append(population, individual{squad: out.Value})
		}
	}
	return population
}

// evaluate fills in fitness, optionally on a bounded worker pool.
// Each goroutine writes only its own index.
func (g *GeneticBuilder) evaluate(ctx context.Context, population []individual) error {
	if g.cfg.Workers <= 1 {
		for i := range population {
			population[i].fitness = Fitness(population[i].squad, g.rules.Formations)
		}
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i := range population {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			population[i].fitness = Fitness(population[i].squad, g.rules.Formations)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("fitness evaluation: %w", err)
	}
	return nil
}

// rankPopulation sorts by fitness desc; ties keep their previous order
func rankPopulation(population []individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
}

// eliteCount is max(1, floor(P × elite_fraction)), never above the population
func (g *GeneticBuilder) eliteCount(n int) int {
	k := int(float64(g.cfg.PopulationSize) * g.cfg.EliteFraction)
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// nextGeneration builds P individuals from a ranked population
func (g *GeneticBuilder) nextGeneration(ranked []individual, rng *rand.Rand) ([]individual, int, int) {
	size := g.cfg.PopulationSize
	next := make([]individual, 0, size)

	for _, elite := range ranked[:g.eliteCount(len(ranked))] {
		next = append(next, individual{squad: elite.squad.Clone(), fitness: elite.fitness})
	}

	mating := g.matingPool(ranked, rng)
	repaired, discarded := 0, 0
	budget := size * g.cfg.OffspringAttemptFactor

	for attempts := 0; len(next) < size && attempts < budget; attempts++ {
		p1, p2 := pickParents(mating, rng)

		child, ok := g.crossover(p1, p2, rng)
		if !ok {
			discarded++
			continue
		}
		if rng.Float64() < g.cfg.MutationRate {
			child = g.mutate(child, rng)
		}

		if !g.rules.IsValid(child) {
			fixed, ok := g.repairer.Repair(child, rng)
			if !ok {
				discarded++
				continue
			}
			child = fixed
			repaired++
		}
		next = append(next, individual{squad: child})
	}

	// 시도 한도를 넘기면 교배 풀 복제로 개체 수 유지
	for len(next) < size {
		parent := mating[rng.Intn(len(mating))]
		next = append(next, individual{squad: parent.Clone()})
	}

	return next, repaired, discarded
}

// matingPool selects parents: top half, or fitness-proportionate sampling
func (g *GeneticBuilder) matingPool(ranked []individual, rng *rand.Rand) []contracts.Squad {
	half := len(ranked) / 2
	if half < 1 {
		half = 1
	}

	if g.cfg.Selection == SelectionTruncation {
		pool := make([]contracts.Squad, half)
		for i := range pool {
			pool[i] = ranked[i].squad
		}
		return pool
	}

	total := 0.0
	for _, ind := range ranked {
		if ind.fitness > 0 {
			total += ind.fitness
		}
	}

	pool := make([]contracts.Squad, half)
	for i := range pool {
		if total <= 0 {
			pool[i] = ranked[rng.Intn(len(ranked))].squad
			continue
		}
		target := rng.Float64() * total
		chosen := ranked[len(ranked)-1].squad
		for _, ind := range ranked {
			if ind.fitness <= 0 {
				continue
			}
			target -= ind.fitness
			if target < 0 {
				chosen = ind.squad
				break
			}
		}
		pool[i] = chosen
	}
	return pool
}

func pickParents(mating []contracts.Squad, rng *rand.Rand) (contracts.Squad, contracts.Squad) {
	if len(mating) == 1 {
		return mating[0], mating[0]
	}
	i := rng.Intn(len(mating))
	j := rng.Intn(len(mating) - 1)
	if j >= i {
		j++
	}
	return mating[i], mating[j]
}

// crossover samples each category from the parents' union, padding from
// the pool when the union runs short under the team cap
func (g *GeneticBuilder) crossover(p1, p2 contracts.Squad, rng *rand.Rand) (contracts.Squad, bool) {
	child := make(contracts.Squad, 0, g.rules.Size)
	teams := make(map[contracts.TeamID]int)

	take := func(candidates []contracts.ScoredPlayer, need int) int {
		for _, p := range candidates {
			if need == 0 {
				break
			}
			if child.Contains(p.ID) || teams[p.Team] >= g.rules.TeamCap {
				continue
			}
			child = append(child, p)
			teams[p.Team]++
			need--
		}
		return need
	}

	for _, c := range contracts.Categories {
		union := categoryUnion(p1, p2, c)
		need := take(shuffled(union, rng), g.rules.Quota(c))
		if need > 0 {
			need = take(shuffled(g.pool.Category(c), rng), need)
		}
		if need > 0 {
			return nil, false
		}
	}
	return child, true
}

// categoryUnion merges both parents' members of a category, deduplicated by id
func categoryUnion(p1, p2 contracts.Squad, c contracts.Category) []contracts.ScoredPlayer {
	seen := make(map[int]bool)
	var union []contracts.ScoredPlayer
	for _, parent := range []contracts.Squad{p1, p2} {
		for _, p := range parent {
			if p.Category != c || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			union = append(union, p)
		}
	}
	return union
}

// mutate swaps one of the lowest scorers for a random same-category
// outsider; the child is returned unchanged when no swap is found
func (g *GeneticBuilder) mutate(child contracts.Squad, rng *rand.Rand) contracts.Squad {
	order := make([]int, len(child))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return child[order[a]].Score < child[order[b]].Score })

	bottom := g.cfg.MutationPoolSize
	if bottom > len(order) {
		bottom = len(order)
	}
	target := child[order[rng.Intn(bottom)]]

	candidates := g.pool.Category(target.Category)
	if len(candidates) == 0 {
		return child
	}
	teams := child.CountByTeam()
	teams[target.Team]--

	out := Retry(g.cfg.MutationAttempts, func(int) (contracts.ScoredPlayer, bool) {
		c := candidates[rng.Intn(len(candidates))]
		if child.Contains(c.ID) || teams[c.Team] >= g.rules.TeamCap {
			return contracts.ScoredPlayer{}, false
		}
		return c, true
	})
	if !out.OK {
		return child
	}

	mutated, err := child.Replace(target.ID, out.Value)
	if err != nil {
		return child
	}
	return mutated
}
