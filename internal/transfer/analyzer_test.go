package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/internal/squad"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

func player(id int, c contracts.Category, team contracts.TeamID, cost contracts.Cost, score float64) contracts.ScoredPlayer {
	return contracts.ScoredPlayer{
		Player: contracts.Player{ID: id, WebName: fmt.Sprintf("P%d", id), Category: c, Team: team, Cost: cost},
		Score:  score,
	}
}

// heldSquad is 15 players, one per team, cost 60, score 3
func heldSquad() contracts.Squad {
	var s contracts.Squad
	id := 1
	for _, c := range contracts.Categories {
		for i := 0; i < squad.DefaultRules().Quota(c); i++ {
			s = append(s, player(id, c, contracts.TeamID(id), 60, 3))
			id++
		}
	}
	return s
}

func leaguePool(seed int64) []contracts.ScoredPlayer {
	rng := rand.New(rand.NewSource(seed))
	quotas := map[contracts.Category]int{contracts.GKP: 2, contracts.DEF: 5, contracts.MID: 5, contracts.FWD: 3}

	var pool []contracts.ScoredPlayer
	id := 1
	for team := 1; team <= 20; team++ {
		for _, c := range contracts.Categories {
			for i := 0; i < quotas[c]; i++ {
				cost := contracts.Cost(40 + rng.Intn(91))
				pool = append(pool, player(id, c, contracts.TeamID(team), cost, float64(cost)/15+rng.Float64()*4))
				id++
			}
		}
	}
	return pool
}

func newAnalyzer(held contracts.Squad, pool []contracts.ScoredPlayer, cfg Config) *Analyzer {
	return NewAnalyzer(held, pool, squad.DefaultRules(), cfg, logger.Nop())
}

func TestSuggestCaptain(t *testing.T) {
	held := heldSquad()
	held[7].Score = 9
	held[3].Score = 8

	pick := newAnalyzer(held, nil, DefaultConfig()).SuggestCaptain()
	require.NotNil(t, pick.Captain)
	require.NotNil(t, pick.ViceCaptain)
	assert.Equal(t, held[7].ID, pick.Captain.ID)
	assert.Equal(t, held[3].ID, pick.ViceCaptain.ID)

	single := newAnalyzer(held[:1], nil, DefaultConfig()).SuggestCaptain()
	assert.NotNil(t, single.Captain)
	assert.Nil(t, single.ViceCaptain)

	empty := newAnalyzer(nil, nil, DefaultConfig()).SuggestCaptain()
	assert.Nil(t, empty.Captain)
}

func TestZeroScoreSwapRanksFirst(t *testing.T) {
	held := heldSquad()
	held[6].Score = 0 // DEF

	pool := append(contracts.Squad{}, held...)
	pool = append(pool,
		player(100, contracts.DEF, 50, 60, 5),  // 같은 비용, 점수 5
		player(101, contracts.MID, 51, 60, 6),  // gain 3
		player(102, contracts.FWD, 52, 90, 20), // 예산 초과
	)

	transfers := newAnalyzer(held, pool, DefaultConfig()).SuggestTransfers(3)
	require.NotEmpty(t, transfers)
	assert.Equal(t, held[6].ID, transfers[0].Out.ID)
	assert.Equal(t, 100, transfers[0].In.ID)
	assert.Equal(t, 5.0, transfers[0].ScoreGain)

	for _, tr := range transfers {
		assert.NotEqual(t, 102, tr.In.ID)
	}
}

func TestSuggestTransfersProperties(t *testing.T) {
	pool := leaguePool(31)
	rules := squad.DefaultRules()

	for seed := int64(1); seed <= 5; seed++ {
		held, err := squad.NewRandomBuilder(squad.NewPool(pool), rules, 20, logger.Nop()).
			Build(rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		for _, n := range []int{0, 1, 3, 10} {
			transfers := newAnalyzer(held, pool, DefaultConfig()).SuggestTransfers(n)
			assert.LessOrEqual(t, len(transfers), n)

			seen := make(map[int]bool)
			for _, tr := range transfers {
				assert.Greater(t, tr.ScoreGain, 0.0)
				assert.Equal(t, tr.Out.Category, tr.In.Category)
				assert.LessOrEqual(t, tr.In.Cost, tr.Out.Cost)
				assert.False(t, held.Contains(tr.In.ID))

				assert.False(t, seen[tr.Out.ID], "player %d reused", tr.Out.ID)
				assert.False(t, seen[tr.In.ID], "player %d reused", tr.In.ID)
				seen[tr.Out.ID], seen[tr.In.ID] = true, true

				after, err := held.Replace(tr.Out.ID, tr.In)
				require.NoError(t, err)
				for _, count := range after.CountByTeam() {
					assert.LessOrEqual(t, count, rules.TeamCap)
				}
			}

			for i := 1; i < len(transfers); i++ {
				assert.GreaterOrEqual(t, transfers[i-1].ScoreGain, transfers[i].ScoreGain)
			}
		}
	}
}

func TestSuggestTransfersTeamCap(t *testing.T) {
	held := heldSquad()
	held[0].Team, held[1].Team, held[2].Team = 40, 40, 40

	pool := append(contracts.Squad{}, held...)
	pool = append(pool, player(200, contracts.MID, 40, 50, 9))

	transfers := newAnalyzer(held, pool, DefaultConfig()).SuggestTransfers(5)
	for _, tr := range transfers {
		// 팀 40 선수를 내보내는 경우에만 허용
		if tr.In.ID == 200 {
			assert.Equal(t, contracts.TeamID(40), tr.Out.Team)
		}
	}
	assert.Empty(t, transfers, "a MID leaving cannot free a slot at team 40")
}

func TestSuggestTransfersBank(t *testing.T) {
	held := heldSquad()
	pool := append(contracts.Squad{}, held...)
	pool = append(pool, player(300, contracts.FWD, 60, 65, 7))

	assert.Empty(t, newAnalyzer(held, pool, DefaultConfig()).SuggestTransfers(3))

	cfg := DefaultConfig()
	cfg.IncludeBank = true
	cfg.Bank = 5
	transfers := newAnalyzer(held, pool, cfg).SuggestTransfers(3)
	require.Len(t, transfers, 1)
	assert.Equal(t, 300, transfers[0].In.ID)
	assert.Equal(t, contracts.Cost(5), transfers[0].CostDelta())
}

func TestSuggestDoubleTransfer(t *testing.T) {
	held := heldSquad()
	held[2].Score = 1 // DEF
	held[8].Score = 1 // MID

	pool := append(contracts.Squad{}, held...)
	pool = append(pool,
		player(400, contracts.DEF, 70, 100, 9), // 비싸지만 강함
		player(401, contracts.MID, 71, 20, 4),  // 싸고 쓸만함
		player(402, contracts.MID, 72, 70, 5),
	)

	dt := newAnalyzer(held, pool, DefaultConfig()).SuggestDoubleTransfer()
	require.NotNil(t, dt)
	assert.Greater(t, dt.ScoreGain, 0.0)
	assert.LessOrEqual(t, dt.Cost, dt.FreedBudget)
	assert.Equal(t, contracts.Cost(120), dt.FreedBudget)

	inIDs := []int{dt.In[0].ID, dt.In[1].ID}
	assert.ElementsMatch(t, []int{400, 401}, inIDs)
	assert.InDelta(t, 9+4-1-1, dt.ScoreGain, 1e-9)
}

func TestSuggestDoubleTransferProperties(t *testing.T) {
	pool := leaguePool(17)
	rules := squad.DefaultRules()

	for seed := int64(1); seed <= 5; seed++ {
		held, err := squad.NewRandomBuilder(squad.NewPool(pool), rules, 20, logger.Nop()).
			Build(rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		dt := newAnalyzer(held, pool, DefaultConfig()).SuggestDoubleTransfer()
		if dt == nil {
			continue
		}
		assert.Greater(t, dt.ScoreGain, 0.0)
		assert.LessOrEqual(t, dt.Cost, dt.Out[0].Cost+dt.Out[1].Cost)
		assert.NotEqual(t, dt.In[0].ID, dt.In[1].ID)

		after, err := held.Replace(dt.Out[0].ID, dt.In[0])
		require.NoError(t, err)
		after, err = after.Replace(dt.Out[1].ID, dt.In[1])
		require.NoError(t, err)
		assert.NoError(t, rules.Check(after))
	}
}

func TestSuggestDoubleTransferNoImprovement(t *testing.T) {
	held := heldSquad()
	pool := append(contracts.Squad{}, held...)
	pool = append(pool, player(500, contracts.DEF, 80, 40, 1), player(501, contracts.MID, 81, 40, 2))

	assert.Nil(t, newAnalyzer(held, pool, DefaultConfig()).SuggestDoubleTransfer())
}

type fakeReasoner struct {
	mu    sync.Mutex
	calls int
	fail  map[int]bool
}

func (f *fakeReasoner) Reason(ctx context.Context, out, in contracts.ScoredPlayer) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	// 역순 지연으로 완료 순서를 뒤섞음
	time.Sleep(time.Duration(1000-in.ID%1000) * time.Microsecond)
	if f.fail[in.ID] {
		return "", errors.New("upstream timeout")
	}
	return fmt.Sprintf("%s for %s", in.WebName, out.WebName), nil
}

type countingRecorder struct {
	mu          sync.Mutex
	suggestions map[string]int
	failures    int
}

func (r *countingRecorder) ObserveSuggestions(kind string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions[kind] += n
}

func (r *countingRecorder) ReasoningFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func TestAnalyzeAttachesReasonsInOrder(t *testing.T) {
	held := heldSquad()
	held[2].Score = 1
	held[8].Score = 0

	pool := append(contracts.Squad{}, held...)
	pool = append(pool,
		player(600, contracts.DEF, 90, 60, 6),
		player(601, contracts.MID, 91, 60, 7),
		player(602, contracts.FWD, 92, 60, 8),
	)

	reasoner := &fakeReasoner{fail: map[int]bool{601: true}}
	recorder := &countingRecorder{suggestions: map[string]int{}}

	analysis, err := newAnalyzer(held, pool, DefaultConfig()).
		WithReasoner(reasoner).
		WithRecorder(recorder).
		Analyze(context.Background(), 5)
	require.NoError(t, err)

	require.NotEmpty(t, analysis.Transfers)
	for _, tr := range analysis.Transfers {
		if tr.In.ID == 601 {
			assert.Empty(t, tr.Reason)
			continue
		}
		assert.Equal(t, fmt.Sprintf("%s for %s", tr.In.WebName, tr.Out.WebName), tr.Reason)
	}

	expectedCalls := len(analysis.Transfers)
	if analysis.DoubleTransfer != nil {
		expectedCalls += 2
	}
	assert.Equal(t, expectedCalls, reasoner.calls)
	assert.GreaterOrEqual(t, recorder.failures, 1)
	assert.Equal(t, len(analysis.Transfers), recorder.suggestions["single"])

	require.NotNil(t, analysis.Captain.Captain)
	require.NotNil(t, analysis.Lineup)
	assert.Len(t, analysis.Lineup.Starters, 11)
	assert.InDelta(t, held.TotalScore(), analysis.SquadScore, 1e-9)
}

func TestAnalyzeWithoutReasoner(t *testing.T) {
	held := heldSquad()
	held[0].Score = 0
	pool := append(contracts.Squad{}, held...)
	pool = append(pool, player(700, contracts.GKP, 99, 50, 4))

	analysis, err := newAnalyzer(held, pool, DefaultConfig()).Analyze(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, analysis.Transfers, 1)
	assert.Empty(t, analysis.Transfers[0].Reason)
}

func TestAnalyzeEmptySquad(t *testing.T) {
	_, err := newAnalyzer(nil, leaguePool(1), DefaultConfig()).Analyze(context.Background(), 3)
	assert.ErrorIs(t, err, ErrEmptySquad)
}

func TestAnalyzeDoubleTransferReason(t *testing.T) {
	held := heldSquad()
	held[0].Score = 0 // GKP
	held[2].Score = 1 // DEF
	held[8].Score = 1 // MID

	pool := append(contracts.Squad{}, held...)
	pool = append(pool,
		player(700, contracts.GKP, 99, 50, 4),
		player(400, contracts.DEF, 70, 100, 9),
		player(401, contracts.MID, 71, 20, 4),
		player(402, contracts.MID, 72, 70, 5),
	)

	tests := []struct {
		name string
		fail map[int]bool
		want func(dt *contracts.DoubleTransfer) string
	}{
		{
			name: "both reasons in slot order",
			want: func(dt *contracts.DoubleTransfer) string {
				return fmt.Sprintf("%s for %s %s for %s",
					dt.In[0].WebName, dt.Out[0].WebName, dt.In[1].WebName, dt.Out[1].WebName)
			},
		},
		{
			name: "failed slot is left out",
			fail: map[int]bool{400: true},
			want: func(*contracts.DoubleTransfer) string { return "P401 for P9" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := newAnalyzer(held, pool, DefaultConfig()).
				WithReasoner(&fakeReasoner{fail: tt.fail}).
				Analyze(context.Background(), 5)
			require.NoError(t, err)

			// 단일 이적 두 건 뒤에 더블 이적 두 슬롯이 이어짐
			require.Len(t, analysis.Transfers, 2)
			assert.Equal(t, "P700 for P1", analysis.Transfers[0].Reason)
			assert.Equal(t, "P401 for P9", analysis.Transfers[1].Reason)

			dt := analysis.DoubleTransfer
			require.NotNil(t, dt)
			assert.ElementsMatch(t, []int{3, 9}, []int{dt.Out[0].ID, dt.Out[1].ID})
			assert.ElementsMatch(t, []int{400, 401}, []int{dt.In[0].ID, dt.In[1].ID})
			assert.Equal(t, tt.want(dt), dt.Reason)
		})
	}
}
