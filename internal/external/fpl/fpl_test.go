package fpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/httputil"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

const bootstrapJSON = `{
  "events": [
    {"id": 9, "is_current": true, "is_next": false, "finished": true},
    {"id": 10, "is_current": false, "is_next": true, "finished": false}
  ],
  "teams": [
    {"id": 1, "name": "Arsenal", "short_name": "ARS", "strength_overall_home": 1350, "strength_overall_away": 1300},
    {"id": 2, "name": "Burnley", "short_name": "BUR", "strength_overall_home": 1050, "strength_overall_away": 1000},
    {"id": 3, "name": "Man Utd", "short_name": "MUN", "strength_overall_home": 1200, "strength_overall_away": 1150}
  ],
  "elements": [
    {"id": 7, "first_name": "Bukayo", "second_name": "Saka", "web_name": "Saka", "element_type": 3, "team": 1,
     "now_cost": 95, "form": "7.5", "ict_index": "180.2", "points_per_game": "6.1", "minutes": 810, "status": "a"},
    {"id": 3, "first_name": "", "second_name": "", "web_name": "Pope", "element_type": 1, "team": 2,
     "now_cost": 50, "form": 2.0, "ict_index": "", "points_per_game": null, "minutes": 0, "status": "d"},
    {"id": 99, "web_name": "Manager", "element_type": 5, "team": 3, "now_cost": 5, "form": "0.0"}
  ]
}`

const fixturesJSON = `[
  {"id": 1, "event": 9, "team_h": 1, "team_a": 2, "team_h_difficulty": 2, "team_a_difficulty": 5, "finished": true},
  {"id": 3, "event": 11, "team_h": 3, "team_a": 1, "team_h_difficulty": 4, "team_a_difficulty": 3, "finished": false},
  {"id": 2, "event": 10, "team_h": 1, "team_a": 2, "team_h_difficulty": 2, "team_a_difficulty": 5, "finished": false},
  {"id": 4, "event": null, "team_h": 2, "team_a": 3, "team_h_difficulty": 3, "team_a_difficulty": 3, "finished": false},
  {"id": 5, "event": 12, "team_h": 2, "team_a": 3, "team_h_difficulty": 3, "team_a_difficulty": 2, "finished": false}
]`

const eventFixturesJSON = `[
  {"id": 1, "event": 9, "team_h": 1, "team_a": 2, "team_h_difficulty": 2, "team_a_difficulty": 5,
   "finished": true, "started": true, "kickoff_time": "2024-10-26T14:00:00Z"}
]`

const liveJSON = `{
  "elements": [
    {"id": 7, "stats": {"minutes": 90, "goals_scored": 1, "assists": 2, "clean_sheets": 1, "bonus": 3, "bps": 41,
      "total_points": 16, "influence": "62.4", "creativity": "55.1", "threat": "48.0", "ict_index": "16.6",
      "expected_goals": "0.71", "expected_assists": "0.45", "expected_goal_involvements": "1.16",
      "expected_goals_conceded": "0.30"}, "explain": [{"fixture": 1}]},
    {"id": 3, "stats": {"minutes": 0, "total_points": 0}, "explain": [{"fixture": 1}]}
  ]
}`

func newTestServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/bootstrap-static/":
			_, _ = w.Write([]byte(bootstrapJSON))
		case "/fixtures/":
			if r.URL.Query().Get("event") == "9" {
				_, _ = w.Write([]byte(eventFixturesJSON))
				return
			}
			_, _ = w.Write([]byte(fixturesJSON))
		case "/event/9/live/":
			_, _ = w.Write([]byte(liveJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestClient(baseURL string) *Client {
	httpClient := httputil.New(logger.Nop(), time.Second).DisableRetry()
	return NewClient(httpClient, nil, baseURL, logger.Nop())
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{`"5.2"`, 5.2, false},
		{`5.2`, 5.2, false},
		{`" 3 "`, 3, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Decimal
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, d.Float64(), 1e-9)
		})
	}
}

func TestClient_Bootstrap(t *testing.T) {
	server, _ := newTestServer(t)
	client := newTestClient(server.URL + "/")

	b, err := client.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Len(t, b.Elements, 3)
	assert.Len(t, b.Teams, 3)
	assert.InDelta(t, 180.2, b.Elements[0].ICTIndex.Float64(), 1e-9)
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Fixtures(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch fixtures")
}

func TestToPlayers(t *testing.T) {
	var b Bootstrap
	require.NoError(t, json.Unmarshal([]byte(bootstrapJSON), &b))

	players := ToPlayers(&b)
	require.Len(t, players, 2, "element_type 5 is skipped")

	pope := players[0]
	assert.Equal(t, 3, pope.ID)
	assert.Equal(t, "Pope", pope.Name)
	assert.Equal(t, contracts.GKP, pope.Category)
	assert.Equal(t, "Burnley", pope.TeamName)
	assert.Equal(t, contracts.Cost(50), pope.Cost)
	assert.Zero(t, pope.ICTIndex)
	assert.False(t, pope.Available())

	saka := players[1]
	assert.Equal(t, "Bukayo Saka", saka.Name)
	assert.Equal(t, contracts.MID, saka.Category)
	assert.Equal(t, contracts.TeamID(1), saka.Team)
	assert.InDelta(t, 7.5, saka.Form, 1e-9)
	assert.InDelta(t, 6.1, saka.PointsPerGame, 1e-9)
	assert.Equal(t, 810, saka.Minutes)
}

func TestNextGameweek(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   int
	}{
		{"is_next", []Event{{ID: 1, Finished: true}, {ID: 2, IsNext: true}}, 2},
		{"first unfinished", []Event{{ID: 3}, {ID: 1, Finished: true}, {ID: 2}}, 2},
		{"season over", []Event{{ID: 38, Finished: true}}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextGameweek(tt.events))
		})
	}
}

func TestBuildFixtureMap_Official(t *testing.T) {
	var b Bootstrap
	require.NoError(t, json.Unmarshal([]byte(bootstrapJSON), &b))
	var fixtures []FixtureRecord
	require.NoError(t, json.Unmarshal([]byte(fixturesJSON), &fixtures))

	fm := BuildFixtureMap(b.Teams, fixtures, 10, 5, DifficultyOfficial)
	require.Len(t, fm, 3)

	assert.Equal(t, []contracts.Fixture{
		{Gameweek: 10, Opponent: "BUR", Difficulty: 2, Venue: contracts.Home},
		{Gameweek: 11, Opponent: "MUN", Difficulty: 3, Venue: contracts.Away},
	}, fm["Arsenal"])

	assert.Equal(t, []contracts.Fixture{
		{Gameweek: 10, Opponent: "ARS", Difficulty: 5, Venue: contracts.Away},
		{Gameweek: 12, Opponent: "MUN", Difficulty: 3, Venue: contracts.Home},
	}, fm["Burnley"])

	// horizon truncates
	fm = BuildFixtureMap(b.Teams, fixtures, 10, 1, DifficultyOfficial)
	assert.Len(t, fm["Arsenal"], 1)
	assert.Equal(t, 10, fm["Arsenal"][0].Gameweek)
}

func TestBuildFixtureMap_Strength(t *testing.T) {
	teams := []Team{
		{ID: 1, Name: "Strong", ShortName: "STR", StrengthOverallHome: 1400, StrengthOverallAway: 1300},
		{ID: 2, Name: "Weak", ShortName: "WEA", StrengthOverallHome: 1100, StrengthOverallAway: 1000},
	}
	gw := 5
	fixtures := []FixtureRecord{{ID: 1, Event: &gw, TeamH: 1, TeamA: 2, TeamHDifficulty: 2, TeamADifficulty: 4}}

	fm := BuildFixtureMap(teams, fixtures, 1, 0, DifficultyStrength)

	// Strong at home faces Weak away (1000 -> 1), Weak away faces Strong at home (1400 -> 5)
	assert.Equal(t, 1, fm["Strong"][0].Difficulty)
	assert.Equal(t, 5, fm["Weak"][0].Difficulty)
}

func TestParseDifficultySource(t *testing.T) {
	src, err := ParseDifficultySource("")
	require.NoError(t, err)
	assert.Equal(t, DifficultyOfficial, src)

	src, err = ParseDifficultySource(" Strength ")
	require.NoError(t, err)
	assert.Equal(t, DifficultyStrength, src)

	_, err = ParseDifficultySource("vibes")
	assert.Error(t, err)
}

func TestNormalizeStrength(t *testing.T) {
	tests := []struct {
		strength, lo, hi, want int
	}{
		{1000, 1000, 1400, 1},
		{1400, 1000, 1400, 5},
		{1200, 1000, 1400, 3},
		{1050, 1000, 1400, 2}, // 1.5 rounds up
		{1200, 1200, 1200, 3},
		{900, 1000, 1400, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStrength(tt.strength, tt.lo, tt.hi), "%+v", tt)
	}
}

func TestSanitizeTeamName(t *testing.T) {
	tests := map[string]string{
		"Arsenal FC":                "arsenal",
		"Manchester United FC":      "man utd",
		"Man Utd":                   "man utd",
		"Manchester City":           "man city",
		"Tottenham Hotspur":         "spurs",
		"Brighton & Hove Albion FC": "brighton",
		"Wolverhampton Wanderers":   "wolves",
		"Nottingham Forest":         "nott'm forest",
		"West Ham United":           "west ham",
		"  Newcastle   United ":     "newcastle",
	}

	for in, want := range tests {
		assert.Equal(t, want, SanitizeTeamName(in), in)
	}
}

func TestMatcher_Resolve(t *testing.T) {
	m := NewMatcher([]string{"Arsenal", "Man City", "Man Utd", "Spurs", "Bournemouth", "Nott'm Forest", "Wolves"})

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"Arsenal FC", "Arsenal", true},
		{"Manchester United", "Man Utd", true},
		{"Manchester City FC", "Man City", true},
		{"Tottenham Hotspur", "Spurs", true},
		{"AFC Bournemouth", "Bournemouth", true},
		{"Nottingham Forest", "Nott'm Forest", true},
		{"Arsenall", "Arsenal", true},
		{"Real Madrid", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := m.Resolve(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"arsenal", "arsenal", 1},
		{"arsenal", "arsenall", 1 - 1.0/8},
		{"wolves", "wolfs", 1 - 2.0/6},
		{"", "", 1},
		{"brentford", "", 0},
		{"münchen", "munchen", 1 - 1.0/7}, // 룬 단위
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestMatcher_Rekey(t *testing.T) {
	m := NewMatcher([]string{"Arsenal", "Man Utd"})

	fm, unmatched := m.Rekey(contracts.FixtureMap{
		"Arsenal FC":        {{Gameweek: 2, Opponent: "MUN", Difficulty: 3}},
		"Manchester United": {{Gameweek: 2, Opponent: "ARS", Difficulty: 4}},
		"Real Madrid":       {{Gameweek: 2, Opponent: "BAR", Difficulty: 5}},
	})

	assert.Equal(t, []string{"Real Madrid"}, unmatched)
	require.Len(t, fm, 2)
	assert.Equal(t, "MUN", fm["Arsenal"][0].Opponent)
	assert.Equal(t, 4, fm["Man Utd"][0].Difficulty)
}

func TestProvider(t *testing.T) {
	server, calls := newTestServer(t)
	provider := NewProvider(newTestClient(server.URL), nil, DifficultyOfficial, logger.Nop())
	ctx := context.Background()

	players, err := provider.Players(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 2)

	fm, err := provider.FixtureMap(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, fm["Arsenal"], 2)
	assert.Len(t, fm["Man Utd"], 2)
	assert.Equal(t, 10, fm["Burnley"][0].Gameweek)

	assert.Equal(t, int32(3), atomic.LoadInt32(calls), "disabled cache fetches every time")
}

func TestClient_EventLive(t *testing.T) {
	server, _ := newTestServer(t)
	client := newTestClient(server.URL)

	live, err := client.EventLive(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, live.Elements, 2)

	saka := live.Elements[0]
	assert.Equal(t, 90, saka.Stats.Minutes)
	assert.Equal(t, 16, saka.Stats.TotalPoints)
	assert.InDelta(t, 0.71, saka.Stats.ExpectedGoals.Float64(), 1e-9)
	require.Len(t, saka.Explain, 1)
	assert.Equal(t, 1, saka.Explain[0].Fixture)

	_, err = client.EventLive(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gameweek 10")
}

func TestClient_EventFixtures(t *testing.T) {
	server, _ := newTestServer(t)

	fixtures, err := newTestClient(server.URL).EventFixtures(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, fixtures, 1)
	require.NotNil(t, fixtures[0].KickoffTime)
	assert.Equal(t, time.Date(2024, 10, 26, 14, 0, 0, 0, time.UTC), fixtures[0].KickoffTime.UTC())
}

func TestLastFinished(t *testing.T) {
	events := []Event{
		{ID: 1, Finished: true}, {ID: 3, Finished: true}, {ID: 2, Finished: true},
		{ID: 4, IsCurrent: true}, {ID: 5},
	}

	tests := []struct {
		name string
		n    int
		want []int
	}{
		{"newest first", 5, []int{3, 2, 1}},
		{"truncated", 2, []int{3, 2}},
		{"none", 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastFinished(events, tt.n)
			assert.Equal(t, len(tt.want), len(got))
			for i := range tt.want {
				assert.Equal(t, tt.want[i], got[i])
			}
		})
	}
}

func TestPlayerGames(t *testing.T) {
	teams := []Team{{ID: 1, ShortName: "ARS"}, {ID: 2, ShortName: "BUR"}, {ID: 3, ShortName: "MUN"}}
	line := func(id, fixture, minutes, points int) LiveElement {
		return LiveElement{
			ID:      id,
			Stats:   LiveStats{Minutes: minutes, TotalPoints: points},
			Explain: []LiveExplain{{Fixture: fixture}},
		}
	}

	weeks := []gameweekData{
		{ // 원정
			gameweek: 12,
			live:     &LiveEvent{Elements: []LiveElement{line(7, 30, 90, 8)}},
			fixtures: []FixtureRecord{{ID: 30, TeamH: 3, TeamA: 1}},
		},
		{ // 결장
			gameweek: 11,
			live:     &LiveEvent{Elements: []LiveElement{line(7, 20, 0, 0)}},
			fixtures: []FixtureRecord{{ID: 20, TeamH: 1, TeamA: 3}},
		},
		{ // 경기 정보 없음
			gameweek: 10,
			live:     &LiveEvent{Elements: []LiveElement{line(7, 99, 90, 2)}},
			fixtures: []FixtureRecord{{ID: 10, TeamH: 1, TeamA: 2}},
		},
		{ // 선수 기록 없음
			gameweek: 9,
			live:     &LiveEvent{Elements: []LiveElement{line(8, 5, 90, 2)}},
			fixtures: []FixtureRecord{{ID: 5, TeamH: 1, TeamA: 2}},
		},
		{ // 홈, 상대 팀 미상
			gameweek: 8,
			live:     &LiveEvent{Elements: []LiveElement{line(7, 4, 45, 1)}},
			fixtures: []FixtureRecord{{ID: 4, TeamH: 1, TeamA: 42}},
		},
	}

	games := playerGames(7, 1, teams, weeks)
	require.Len(t, games, 2)

	assert.Equal(t, 12, games[0].Gameweek)
	assert.Equal(t, "MUN", games[0].Opponent)
	assert.Equal(t, contracts.Away, games[0].Venue)
	assert.Equal(t, 8, games[0].TotalPoints)

	assert.Equal(t, 8, games[1].Gameweek)
	assert.Equal(t, "N/A", games[1].Opponent)
	assert.Equal(t, contracts.Home, games[1].Venue)
	assert.Equal(t, 45, games[1].Minutes)
}

func TestProvider_RecentGames(t *testing.T) {
	server, _ := newTestServer(t)
	provider := NewProvider(newTestClient(server.URL), nil, DifficultyOfficial, logger.Nop())
	ctx := context.Background()

	games, err := provider.RecentGames(ctx, 7, 5)
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, 9, g.Gameweek)
	assert.Equal(t, 1, g.FixtureID)
	assert.Equal(t, "BUR", g.Opponent)
	assert.Equal(t, contracts.Home, g.Venue)
	require.NotNil(t, g.Kickoff)
	assert.Equal(t, 1, g.GoalsScored)
	assert.Equal(t, 2, g.Assists)
	assert.Equal(t, 16, g.TotalPoints)
	assert.InDelta(t, 16.6, g.ICTIndex, 1e-9)
	assert.InDelta(t, 1.16, g.ExpectedGoalInvolvements, 1e-9)

	// 출전 시간 0분은 제외
	games, err = provider.RecentGames(ctx, 3, 5)
	require.NoError(t, err)
	assert.Empty(t, games)

	_, err = provider.RecentGames(ctx, 404, 5)
	require.Error(t, err)
}
