package squad

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

func smallConfig() GeneticConfig {
	cfg := DefaultGeneticConfig()
	cfg.PopulationSize = 30
	cfg.Generations = 15
	cfg.Workers = 1
	cfg.InitAttempts = 50
	cfg.OffspringAttemptFactor = 5
	return cfg
}

type recordingObserver struct {
	bests     []float64
	repaired  int
	discarded int
}

func (o *recordingObserver) ObserveGeneration(best float64) { o.bests = append(o.bests, best) }

func (o *recordingObserver) ObserveOffspring(repaired, discarded int) {
	o.repaired += repaired
	o.discarded += discarded
}

func TestGeneticBuildProducesLegalSquad(t *testing.T) {
	rules := DefaultRules()
	observer := &recordingObserver{}
	builder := NewGeneticBuilder(NewPool(leaguePool(21)), rules, smallConfig(), logger.Nop()).
		WithObserver(observer)

	result, err := builder.Build(context.Background(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assertLegal(t, rules, result.Squad)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 15, result.Generations)
	assert.Len(t, result.History, 16)
	assert.InDelta(t, Fitness(result.Squad, rules.Formations), result.Fitness, 1e-9)
	require.NotNil(t, result.Lineup)
	assert.InDelta(t, result.Fitness, result.Lineup.Score, 1e-9)

	assert.Len(t, observer.bests, 15)
	assert.Equal(t, result.Repaired, observer.repaired)
	assert.Equal(t, result.Discarded, observer.discarded)
}

func TestGeneticHistoryNonDecreasing(t *testing.T) {
	for _, selection := range []Selection{SelectionTruncation, SelectionRoulette} {
		t.Run(string(selection), func(t *testing.T) {
			cfg := smallConfig()
			cfg.Selection = selection
			cfg.Generations = 25

			builder := NewGeneticBuilder(NewPool(leaguePool(8)), DefaultRules(), cfg, logger.Nop())
			result, err := builder.Build(context.Background(), rand.New(rand.NewSource(3)))
			require.NoError(t, err)

			for i := 1; i < len(result.History); i++ {
				assert.GreaterOrEqual(t, result.History[i], result.History[i-1], "generation %d", i)
			}
			assert.Equal(t, result.History[len(result.History)-1], result.Fitness)
		})
	}
}

func TestGeneticScenarioPool(t *testing.T) {
	rules := DefaultRules()
	builder := NewGeneticBuilder(NewPool(scenarioPool()), rules, smallConfig(), logger.Nop())

	result, err := builder.Build(context.Background(), rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	assertLegal(t, rules, result.Squad)
}

func TestGeneticDeterministicAcrossWorkers(t *testing.T) {
	pool := NewPool(leaguePool(4))

	sequential := smallConfig()
	parallel := smallConfig()
	parallel.Workers = 4

	a, err := NewGeneticBuilder(pool, DefaultRules(), sequential, logger.Nop()).
		Build(context.Background(), rand.New(rand.NewSource(77)))
	require.NoError(t, err)
	b, err := NewGeneticBuilder(pool, DefaultRules(), parallel, logger.Nop()).
		Build(context.Background(), rand.New(rand.NewSource(77)))
	require.NoError(t, err)

	assert.Equal(t, a.Squad.Key(), b.Squad.Key())
	assert.Equal(t, a.History, b.History)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestGeneticInfeasible(t *testing.T) {
	var pool []contracts.ScoredPlayer
	for _, p := range scenarioPool() {
		if p.Category != contracts.FWD {
			pool = append(pool, p)
		}
	}

	builder := NewGeneticBuilder(NewPool(pool), DefaultRules(), smallConfig(), logger.Nop())
	_, err := builder.Build(context.Background(), rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestGeneticCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewGeneticBuilder(NewPool(leaguePool(2)), DefaultRules(), smallConfig(), logger.Nop())
	_, err := builder.Build(ctx, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneticConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *GeneticConfig)
	}{
		{"population too small", func(c *GeneticConfig) { c.PopulationSize = 1 }},
		{"negative generations", func(c *GeneticConfig) { c.Generations = -1 }},
		{"mutation rate above one", func(c *GeneticConfig) { c.MutationRate = 1.5 }},
		{"elite fraction negative", func(c *GeneticConfig) { c.EliteFraction = -0.1 }},
		{"unknown selection", func(c *GeneticConfig) { c.Selection = "tournament" }},
		{"zero attempts", func(c *GeneticConfig) { c.MutationAttempts = 0 }},
	}

	require.NoError(t, DefaultGeneticConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGeneticConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEliteCount(t *testing.T) {
	cfg := smallConfig()
	cfg.EliteFraction = 0.01
	g := NewGeneticBuilder(NewPool(nil), DefaultRules(), cfg, logger.Nop())
	assert.Equal(t, 1, g.eliteCount(30))

	cfg.EliteFraction = 0.2
	g = NewGeneticBuilder(NewPool(nil), DefaultRules(), cfg, logger.Nop())
	assert.Equal(t, 6, g.eliteCount(30))
	assert.Equal(t, 4, g.eliteCount(4))
}

func TestCrossoverDrawsFromParentUnion(t *testing.T) {
	rules := DefaultRules()
	pool := NewPool(distinctTeamsPool())
	g := NewGeneticBuilder(pool, rules, smallConfig(), logger.Nop())
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 50; i++ {
		p1, ok := sampleSquad(pool, rules, g.repairer, rng)
		require.True(t, ok)
		p2, ok := sampleSquad(pool, rules, g.repairer, rng)
		require.True(t, ok)

		child, ok := g.crossover(p1, p2, rng)
		require.True(t, ok)
		assertLegal(t, rules, child)

		for _, p := range child {
			assert.True(t, p1.Contains(p.ID) || p2.Contains(p.ID), "player %d from neither parent", p.ID)
		}
	}
}

func TestCrossoverPadsFromPool(t *testing.T) {
	rules := DefaultRules()
	pool := NewPool(distinctTeamsPool())
	g := NewGeneticBuilder(pool, rules, smallConfig(), logger.Nop())
	rng := rand.New(rand.NewSource(5))

	parent, ok := sampleSquad(pool, rules, g.repairer, rng)
	require.True(t, ok)

	// 양쪽 부모 모두 FWD가 1명뿐이면 풀에서 보충
	var short contracts.Squad
	keptFWD := false
	for _, p := range parent {
		if p.Category == contracts.FWD {
			if keptFWD {
				continue
			}
			keptFWD = true
		}
		short = append(short, p)
	}

	child, ok := g.crossover(short, short, rng)
	require.True(t, ok)
	assertLegal(t, rules, child)
	for _, p := range child {
		if p.Category != contracts.FWD {
			assert.True(t, short.Contains(p.ID))
		}
		_, inPool := pool.Get(p.ID)
		assert.True(t, inPool)
	}
}

func TestCrossoverFailsWhenPoolShort(t *testing.T) {
	rules := DefaultRules()
	raw := distinctTeamsPool()
	var onlyOneFWD []contracts.ScoredPlayer
	fwd := 0
	for _, p := range raw {
		if p.Category == contracts.FWD {
			fwd++
			if fwd > 1 {
				continue
			}
		}
		onlyOneFWD = append(onlyOneFWD, p)
	}
	g := NewGeneticBuilder(NewPool(onlyOneFWD), rules, smallConfig(), logger.Nop())

	_, ok := g.crossover(nil, nil, rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}

func TestMutateKeepsSquadShape(t *testing.T) {
	rules := DefaultRules()
	pool := NewPool(distinctTeamsPool())
	g := NewGeneticBuilder(pool, rules, smallConfig(), logger.Nop())
	rng := rand.New(rand.NewSource(12))

	parent, ok := sampleSquad(pool, rules, g.repairer, rng)
	require.True(t, ok)
	before := parent.Key()

	changed := 0
	for i := 0; i < 20; i++ {
		child := g.mutate(parent, rng)
		assertLegal(t, rules, child)
		if child.Key() != before {
			changed++
		}
	}
	assert.Equal(t, before, parent.Key(), "mutate must not modify its input")
	assert.Greater(t, changed, 0)
}
