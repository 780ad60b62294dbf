package squad

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

func player(id int, c contracts.Category, team contracts.TeamID, cost contracts.Cost, score float64) contracts.ScoredPlayer {
	return contracts.ScoredPlayer{
		Player: contracts.Player{ID: id, Category: c, Team: team, Cost: cost},
		Score:  score,
	}
}

// scenarioPool is 4 GKP, 6 DEF, 6 MID, 4 FWD costing 4.0–8.0 over six
// teams; teams 1 and 2 hold four players each so the cap binds
func scenarioPool() []contracts.ScoredPlayer {
	layout := []struct {
		c    contracts.Category
		from int
		to   int
	}{
		{contracts.GKP, 1, 4},
		{contracts.DEF, 5, 10},
		{contracts.MID, 11, 16},
		{contracts.FWD, 17, 20},
	}

	var pool []contracts.ScoredPlayer
	for _, l := range layout {
		for id := l.from; id <= l.to; id++ {
			cost := contracts.Cost(40 + (id*7)%41)
			team := contracts.TeamID((id-1)%6 + 1)
			pool = append(pool, player(id, l.c, team, cost, float64(id%9)))
		}
	}
	return pool
}

// leaguePool is 20 teams each with 2/5/5/3 players at random prices
func leaguePool(seed int64) []contracts.ScoredPlayer {
	rng := rand.New(rand.NewSource(seed))
	quotas := []struct {
		c contracts.Category
		n int
	}{
		{contracts.GKP, 2}, {contracts.DEF, 5}, {contracts.MID, 5}, {contracts.FWD, 3},
	}

	var pool []contracts.ScoredPlayer
	id := 1
	for team := 1; team <= 20; team++ {
		for _, q := range quotas {
			for i := 0; i < q.n; i++ {
				cost := contracts.Cost(40 + rng.Intn(91))
				score := float64(cost)/15 + rng.Float64()*4
				pool = append(pool, player(id, q.c, contracts.TeamID(team), cost, score))
				id++
			}
		}
	}
	return pool
}

// distinctTeamsPool gives every player their own team so the cap never binds
func distinctTeamsPool() []contracts.ScoredPlayer {
	var pool []contracts.ScoredPlayer
	id := 1
	for _, c := range contracts.Categories {
		for i := 0; i < 10; i++ {
			pool = append(pool, player(id, c, contracts.TeamID(id), 50, float64(i)))
			id++
		}
	}
	return pool
}

func assertLegal(t *testing.T, rules Rules, s contracts.Squad) {
	t.Helper()
	require.NoError(t, rules.Check(s))
	assert.Len(t, s, SquadSize)
	assert.LessOrEqual(t, s.TotalCost(), Budget)
	for _, n := range s.CountByTeam() {
		assert.LessOrEqual(t, n, TeamCap)
	}
	counts := s.CountByCategory()
	assert.Equal(t, 2, counts[contracts.GKP])
	assert.Equal(t, 5, counts[contracts.DEF])
	assert.Equal(t, 5, counts[contracts.MID])
	assert.Equal(t, 3, counts[contracts.FWD])
}
