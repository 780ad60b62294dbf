package squad

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

// greedyTopK is how many of the most expensive affordable candidates
// the greedy pass chooses between
const greedyTopK = 3

// RandomBuilder produces one legal squad that uses as much of the budget as it can
type RandomBuilder struct {
	pool     *Pool
	rules    Rules
	repairer *Repairer
	attempts int
	log      *logger.Logger
}

// NewRandomBuilder creates a builder making up to attempts tries per phase
func NewRandomBuilder(pool *Pool, rules Rules, attempts int, log *logger.Logger) *RandomBuilder {
	if attempts < 1 {
		attempts = 1
	}
	return &RandomBuilder{
		pool:     pool,
		rules:    rules,
		repairer: NewRepairer(pool, rules),
		attempts: attempts,
		log:      log.Component("random_builder"),
	}
}

// Build runs the greedy phase, keeping the most expensive legal squad,
// then falls back to uniform sampling. Returns ErrExhausted when both fail.
func (b *RandomBuilder) Build(rng *rand.Rand) (contracts.Squad, error) {
	if err := b.rules.Validate(); err != nil {
		return nil, err
	}

	var best contracts.Squad
	succeeded := 0
	for i := 0; i < b.attempts; i++ {
		s, ok := b.greedy(rng)
		if !ok {
			continue
		}
		succeeded++
		if best == nil || s.TotalCost() > best.TotalCost() {
			best = s
		}
	}
	if best != nil {
		b.log.WithFields(map[string]interface{}{
			"attempts":  b.attempts,
			"succeeded": succeeded,
			"cost":      int(best.TotalCost()),
		}).Debug("greedy squad built")
		return Arrange(best), nil
	}

	out := Retry(b.attempts, func(int) (contracts.Squad, bool) {
		return sampleSquad(b.pool, b.rules, b.repairer, rng)
	})
	if out.OK {
		b.log.WithField("attempts", out.Attempts).Debug("sampled squad built after greedy pass failed")
		return Arrange(out.Value), nil
	}

	return nil, fmt.Errorf("random builder after %d attempts: %w", b.attempts, ErrExhausted)
}

// greedy fills categories in shuffled order, preferring expensive players
// while reserving enough budget for the cheapest completion
func (b *RandomBuilder) greedy(rng *rand.Rand) (contracts.Squad, bool) {
	order := make([]contracts.Category, len(contracts.Categories))
	copy(order, contracts.Categories)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	remaining := make(map[contracts.Category]int, len(order))
	for _, c := range order {
		remaining[c] = b.rules.Quota(c)
	}

	squad := make(contracts.Squad, 0, b.rules.Size)
	teams := make(map[contracts.TeamID]int)
	budget := b.rules.Budget

	for _, c := range order {
		candidates := shuffled(b.pool.Category(c), rng)
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Cost > candidates[j].Cost })

		for remaining[c] > 0 {
			remaining[c]--
			reserve := b.reserve(remaining)

			var eligible []contracts.ScoredPlayer
			for _, p := range candidates {
				if len(eligible) == greedyTopK {
					break
				}
				if teams[p.Team] >= b.rules.TeamCap || squad.Contains(p.ID) {
					continue
				}
				if p.Cost+reserve > budget {
					continue
				}
				eligible = append(eligible, p)
			}
			if len(eligible) == 0 {
				return nil, false
			}

			pick := eligible[rng.Intn(len(eligible))]
			squad = append(squad, pick)
			teams[pick.Team]++
			budget -= pick.Cost
		}
	}

	return squad, b.rules.IsValid(squad)
}

// reserve is the minimum cost of the still-unfilled slots
func (b *RandomBuilder) reserve(remaining map[contracts.Category]int) contracts.Cost {
	var total contracts.Cost
	for c, n := range remaining {
		total += b.pool.CheapestSum(c, n)
	}
	return total
}

// sampleSquad draws each category uniformly at random under the team cap.
// An over-budget draw goes through the repairer.
func sampleSquad(pool *Pool, rules Rules, repairer *Repairer, rng *rand.Rand) (contracts.Squad, bool) {
	squad := make(contracts.Squad, 0, rules.Size)
	teams := make(map[contracts.TeamID]int)

	for _, c := range contracts.Categories {
		need := rules.Quota(c)
		for _, p := range shuffled(pool.Category(c), rng) {
			if need == 0 {
				break
			}
			if teams[p.Team] >= rules.TeamCap {
				continue
			}
			squad = append(squad, p)
			teams[p.Team]++
			need--
		}
		if need > 0 {
			return nil, false
		}
	}

	if rules.IsValid(squad) {
		return squad, true
	}
	return repairer.Repair(squad, rng)
}

// shuffled returns a shuffled copy
func shuffled(players []contracts.ScoredPlayer, rng *rand.Rand) []contracts.ScoredPlayer {
	out := make([]contracts.ScoredPlayer, len(players))
	for i, j := range rng.Perm(len(players)) {
		out[i] = players[j]
	}
	return out
}
