package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fpl-squad/backend/internal/advisor"
	"github.com/wonny/fpl-squad/backend/internal/api/handlers"
	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/internal/squad"
	"github.com/wonny/fpl-squad/backend/internal/store"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
	"github.com/wonny/fpl-squad/backend/pkg/metrics"
)

type fakeService struct {
	lastQuery   advisor.PlayerQuery
	lastBuild   advisor.BuildRequest
	lastAnalyze advisor.AnalyzeRequest
	lastLimit   int
	lastPlayer  [2]int // id, games
	playerErr   error
	buildErr    error
	analyzeErr  error
	runsErr     error
}

func (f *fakeService) Players(_ context.Context, q advisor.PlayerQuery) ([]contracts.ScoredPlayer, error) {
	f.lastQuery = q
	return []contracts.ScoredPlayer{
		{Player: contracts.Player{ID: 1, Name: "Salah", Category: contracts.MID, Cost: 130}, Score: 9.4},
		{Player: contracts.Player{ID: 2, Name: "Palmer", Category: contracts.MID, Cost: 105}, Score: 8.7},
	}, nil
}

func (f *fakeService) PlayerDetail(_ context.Context, id, games int) (*contracts.PlayerDetail, error) {
	f.lastPlayer = [2]int{id, games}
	if f.playerErr != nil {
		return nil, f.playerErr
	}
	return &contracts.PlayerDetail{
		Player: contracts.ScoredPlayer{Player: contracts.Player{ID: id, Name: "Salah", Category: contracts.MID}, Score: 9.4},
		Recent: []contracts.GameweekStats{{Gameweek: 9, Opponent: "BUR", Venue: contracts.Home, Minutes: 90, TotalPoints: 12}},
	}, nil
}

func (f *fakeService) BuildSquad(_ context.Context, req advisor.BuildRequest) (*advisor.BuildResult, error) {
	f.lastBuild = req
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &advisor.BuildResult{RunID: "run-42", Method: req.Method, Seed: req.Seed, Fitness: 70}, nil
}

func (f *fakeService) AnalyzeSquad(_ context.Context, req advisor.AnalyzeRequest) (*contracts.SquadAnalysis, error) {
	f.lastAnalyze = req
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &contracts.SquadAnalysis{SquadScore: 61.2}, nil
}

func (f *fakeService) RecentRuns(_ context.Context, limit int) ([]store.BuildRun, error) {
	f.lastLimit = limit
	if f.runsErr != nil {
		return nil, f.runsErr
	}
	return []store.BuildRun{{RunID: "run-42", Method: "genetic", PlayerIDs: []int{1, 2}}}, nil
}

func newTestRouter(svc *fakeService, m *metrics.Manager, mcp http.Handler) http.Handler {
	return NewRouter(RouterDeps{
		Squad:   handlers.NewSquadHandler(svc, logger.Nop()),
		Runs:    handlers.NewRunsHandler(svc, logger.Nop()),
		Metrics: m,
		MCP:     mcp,
		Logger:  logger.Nop(),
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&fakeService{}, nil, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestHealthChecks(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			checks:     map[string]HealthCheck{"redis": func(context.Context) error { return nil }},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"redis": "ok"},
		},
		{
			name: "postgres down",
			checks: map[string]HealthCheck{
				"redis":    func(context.Context) error { return nil },
				"postgres": func(context.Context) error { return fmt.Errorf("connection refused") },
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantChecks: map[string]string{"redis": "ok", "postgres": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			h := NewRouter(RouterDeps{
				Squad:  handlers.NewSquadHandler(svc, logger.Nop()),
				Checks: tt.checks,
				Logger: logger.Nop(),
			})

			rec := do(t, h, http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantCode, rec.Code)

			var body HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantChecks, body.Checks)
		})
	}
}

func TestGetPlayers(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc, nil, nil)

	rec := do(t, router, http.MethodGet, "/api/players?category=mid&available=true&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, advisor.PlayerQuery{Category: contracts.MID, AvailableOnly: true, Limit: 10}, svc.lastQuery)

	var resp handlers.PlayersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Salah", resp.Players[0].Name)

	tests := []string{
		"/api/players?category=manager",
		"/api/players?available=maybe",
		"/api/players?limit=-1",
	}
	for _, target := range tests {
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, target, "").Code, target)
	}
}

func TestBuildSquad(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc, nil, nil)

	rec := do(t, router, http.MethodGet, "/api/squad/build?method=random&seed=12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, advisor.BuildRequest{Method: advisor.MethodRandom, Seed: 12}, svc.lastBuild)

	var result advisor.BuildResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "run-42", result.RunID)

	rec = do(t, router, http.MethodGet, "/api/squad/build", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, advisor.MethodGenetic, svc.lastBuild.Method)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/squad/build?method=annealing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/squad/build?seed=abc", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, router, http.MethodPost, "/api/squad/build", "").Code)
}

func TestUnmatchedRoutes(t *testing.T) {
	router := newTestRouter(&fakeService{}, nil, nil)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodPost, "/api/squad/build", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/squad/analyze", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/players", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/squads", http.StatusNotFound},
		{http.MethodGet, "/api/player/abc", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, "")
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestBuildSquadErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", squad.ErrInfeasible), http.StatusUnprocessableEntity},
		{squad.ErrExhausted, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			router := newTestRouter(&fakeService{buildErr: tt.err}, nil, nil)
			rec := do(t, router, http.MethodGet, "/api/squad/build?method=genetic", "")
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestAnalyzeSquad(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc, nil, nil)

	rec := do(t, router, http.MethodPost, "/api/squad/analyze", `{"player_ids":[1,2,3],"transfers":2,"bank":15}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{1, 2, 3}, svc.lastAnalyze.PlayerIDs)
	assert.Equal(t, 2, svc.lastAnalyze.Transfers)
	assert.Equal(t, contracts.Cost(15), svc.lastAnalyze.Bank)

	var analysis contracts.SquadAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.InDelta(t, 61.2, analysis.SquadScore, 1e-9)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/squad/analyze", `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/squad/analyze", `{"player_ids":[]}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/squad/analyze", `{"player_ids":[1],"bank":-5}`).Code)

	svc.analyzeErr = fmt.Errorf("%w: unknown player 99", advisor.ErrInvalidRequest)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/squad/analyze", `{"player_ids":[99]}`).Code)
}

func TestGetRuns(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc, nil, nil)

	rec := do(t, router, http.MethodGet, "/api/squad/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, svc.lastLimit)

	var resp handlers.RunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "run-42", resp.Runs[0].RunID)

	do(t, router, http.MethodGet, "/api/squad/runs?limit=5", "")
	assert.Equal(t, 5, svc.lastLimit)

	for _, target := range []string{"/api/squad/runs?limit=0", "/api/squad/runs?limit=500", "/api/squad/runs?limit=x"} {
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, target, "").Code, target)
	}

	svc.runsErr = advisor.ErrNoRunLog
	assert.Equal(t, http.StatusNotImplemented, do(t, router, http.MethodGet, "/api/squad/runs", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewManager()
	router := newTestRouter(&fakeService{}, m, nil)

	do(t, router, http.MethodGet, "/api/squad/build?seed=1", "")
	do(t, router, http.MethodGet, "/api/squad/build?seed=abc", "")

	rec := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `fpl_squad_http_requests_total{method="GET",route="/api/squad/build",status_code="200"} 1`)
	assert.Contains(t, body, `fpl_squad_http_requests_total{method="GET",route="/api/squad/build",status_code="400"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	rec := do(t, newTestRouter(&fakeService{}, nil, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMCPMounted(t *testing.T) {
	var hits int
	stub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusAccepted)
	})
	router := newTestRouter(&fakeService{}, nil, stub)

	assert.Equal(t, http.StatusAccepted, do(t, router, http.MethodPost, "/mcp", `{}`).Code)
	assert.Equal(t, http.StatusAccepted, do(t, router, http.MethodDelete, "/mcp", "").Code)
	assert.Equal(t, 2, hits)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestGetPlayer(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		playerErr  error
		wantStatus int
		wantCall   [2]int
	}{
		{"default games", "/api/player/7", nil, http.StatusOK, [2]int{7, advisor.DefaultRecentGames}},
		{"custom games", "/api/player/7?games=10", nil, http.StatusOK, [2]int{7, 10}},
		{"zero id", "/api/player/0", nil, http.StatusBadRequest, [2]int{}},
		{"games too low", "/api/player/7?games=0", nil, http.StatusBadRequest, [2]int{}},
		{"games too high", "/api/player/7?games=39", nil, http.StatusBadRequest, [2]int{}},
		{"games not a number", "/api/player/7?games=all", nil, http.StatusBadRequest, [2]int{}},
		{"unknown player", "/api/player/9999", fmt.Errorf("%w: 9999", advisor.ErrPlayerNotFound), http.StatusNotFound, [2]int{9999, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{playerErr: tt.playerErr}
			rec := do(t, newTestRouter(svc, nil, nil), http.MethodGet, tt.target, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantCall, svc.lastPlayer)

			if tt.wantStatus == http.StatusOK {
				var body contracts.PlayerDetail
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, 7, body.Player.ID)
				require.Len(t, body.Recent, 1)
				assert.Equal(t, "BUR", body.Recent[0].Opponent)
			}
		})
	}
}
