package squad

import (
	"fmt"
	"sort"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// rankedByCategory groups members by category, each sorted by score desc (id asc on ties)
func rankedByCategory(s contracts.Squad) map[contracts.Category][]contracts.ScoredPlayer {
	grouped := make(map[contracts.Category][]contracts.ScoredPlayer, len(contracts.Categories))
	for _, c := range contracts.Categories {
		members := s.ByCategory(c)
		if len(members) == 0 {
			continue
		}
		sortByScoreDesc(members)
		grouped[c] = members
	}
	return grouped
}

func sortByScoreDesc(players []contracts.ScoredPlayer) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].ID < players[j].ID
	})
}

// Fitness is the best starting-11 score over the given formations,
// 0 when no formation fits
func Fitness(s contracts.Squad, formations []contracts.Formation) float64 {
	grouped := rankedByCategory(s)
	best, found := 0.0, false
	for _, f := range formations {
		score, ok := formationScore(grouped, f)
		if ok && (!found || score > best) {
			best, found = score, true
		}
	}
	return best
}

func formationScore(grouped map[contracts.Category][]contracts.ScoredPlayer, f contracts.Formation) (float64, bool) {
	total := 0.0
	for _, c := range contracts.Categories {
		need := f.Count(c)
		members := grouped[c]
		if len(members) < need {
			return 0, false
		}
		for _, p := range members[:need] {
			total += p.Score
		}
	}
	return total, true
}

// BestLineup splits a squad into the highest-scoring starting 11 and bench.
// The first formation wins ties. Bench keeps goalkeepers first.
func BestLineup(s contracts.Squad, formations []contracts.Formation) (*contracts.Lineup, error) {
	grouped := rankedByCategory(s)

	var best contracts.Formation
	bestScore, found := 0.0, false
	for _, f := range formations {
		score, ok := formationScore(grouped, f)
		if ok && (!found || score > bestScore) {
			best, bestScore, found = f, score, true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no formation fits squad of %d", ErrInfeasible, len(s))
	}

	lineup := &contracts.Lineup{Formation: best, Score: bestScore}
	var benchOutfield []contracts.ScoredPlayer
	for _, c := range contracts.Categories {
		members := grouped[c]
		need := best.Count(c)
		lineup.Starters = append(lineup.Starters, members[:need]...)
		if c == contracts.GKP {
			lineup.Bench = append(lineup.Bench, members[need:]...)
		} else {
			benchOutfield = append(benchOutfield, members[need:]...)
		}
	}
	sortByScoreDesc(benchOutfield)
	lineup.Bench = append(lineup.Bench, benchOutfield...)

	return lineup, nil
}

// Arrange orders a squad by category then score for display
func Arrange(s contracts.Squad) contracts.Squad {
	grouped := rankedByCategory(s)
	out := make(contracts.Squad, 0, len(s))
	for _, c := range contracts.Categories {
		out = append(out, grouped[c]...)
	}
	return out
}
