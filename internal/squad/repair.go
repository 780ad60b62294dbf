package squad

import (
	"math/rand"
	"sort"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// Repairer restores budget legality by swapping out poor-value members.
// It never fixes quota, size or team-cap violations.
type Repairer struct {
	pool  *Pool
	rules Rules
}

// NewRepairer creates a repairer over a pool
func NewRepairer(pool *Pool, rules Rules) *Repairer {
	return &Repairer{pool: pool, rules: rules}
}

// Repair returns a legal squad derived from s, or ok == false.
// s itself is not modified.
func (r *Repairer) Repair(s contracts.Squad, rng *rand.Rand) (contracts.Squad, bool) {
	out := s.Clone()

	for out.TotalCost() > r.rules.Budget {
		worst := worstValueIndex(out)
		candidates := r.cheaperCandidates(out, worst)
		if len(candidates) == 0 {
			return nil, false
		}
		// 각 교체가 비용을 엄격히 줄이므로 루프는 종료됨
		out[worst] = candidates[rng.Intn(len(candidates))]
	}

	if !r.rules.IsValid(out) {
		return nil, false
	}
	return out, true
}

// worstValueIndex returns the member with the lowest score per cost
func worstValueIndex(s contracts.Squad) int {
	order := make([]int, len(s))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := s[order[a]].ValuePerCost(), s[order[b]].ValuePerCost()
		if va != vb {
			return va < vb
		}
		return s[order[a]].ID < s[order[b]].ID
	})
	return order[0]
}

// cheaperCandidates lists same-category, strictly cheaper, unselected
// players that keep the team cap once s[idx] leaves
func (r *Repairer) cheaperCandidates(s contracts.Squad, idx int) []contracts.ScoredPlayer {
	out := s[idx]
	teams := s.CountByTeam()
	teams[out.Team]--

	var candidates []contracts.ScoredPlayer
	for _, c := range r.pool.Category(out.Category) {
		if c.Cost >= out.Cost || s.Contains(c.ID) {
			continue
		}
		if teams[c.Team] >= r.rules.TeamCap {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}
