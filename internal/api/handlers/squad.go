package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/fpl-squad/backend/internal/advisor"
	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

// SquadService is the part of the advisor the HTTP layer needs
type SquadService interface {
	Players(ctx context.Context, q advisor.PlayerQuery) ([]contracts.ScoredPlayer, error)
	PlayerDetail(ctx context.Context, id, games int) (*contracts.PlayerDetail, error)
	BuildSquad(ctx context.Context, req advisor.BuildRequest) (*advisor.BuildResult, error)
	AnalyzeSquad(ctx context.Context, req advisor.AnalyzeRequest) (*contracts.SquadAnalysis, error)
}

// SquadHandler handles player, build and analysis endpoints
// ⭐ SSOT: 스쿼드 API 핸들러는 이 구조체에서만
type SquadHandler struct {
	service SquadService
	logger  *logger.Logger
}

// NewSquadHandler creates a new squad handler
func NewSquadHandler(service SquadService, log *logger.Logger) *SquadHandler {
	return &SquadHandler{
		service: service,
		logger:  log,
	}
}

// PlayersResponse is the scored player listing
type PlayersResponse struct {
	Count   int                      `json:"count"`
	Players []contracts.ScoredPlayer `json:"players"`
}

// GetPlayers returns the scored pool
// GET /api/players?category=MID&available=true&limit=50
func (h *SquadHandler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var query advisor.PlayerQuery
	if c := q.Get("category"); c != "" {
		category, err := contracts.ParseCategory(c)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid category")
			return
		}
		query.Category = category
	}
	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid available flag")
			return
		}
		query.AvailableOnly = available
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		query.Limit = limit
	}

	players, err := h.service.Players(r.Context(), query)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load players")
		respondError(w, statusFor(err), "Failed to load players")
		return
	}

	respondJSON(w, http.StatusOK, PlayersResponse{Count: len(players), Players: players})
}

// maxRecentGames is one full season of gameweeks
const maxRecentGames = 38

// GetPlayer returns one scored player with recent match stats
// GET /api/player/{id}?games=5
func (h *SquadHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	games := advisor.DefaultRecentGames
	if v := r.URL.Query().Get("games"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRecentGames {
			respondError(w, http.StatusBadRequest, "games must be between 1 and 38")
			return
		}
		games = n
	}

	detail, err := h.service.PlayerDetail(r.Context(), id, games)
	if err != nil {
		h.logger.WithError(err).WithField("player", id).Error("Failed to load player")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// BuildSquad builds a squad
// GET /api/squad/build?method=genetic|random&seed=N&available=true
func (h *SquadHandler) BuildSquad(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	method, err := advisor.ParseMethod(q.Get("method"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := advisor.BuildRequest{Method: method}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid seed")
			return
		}
		req.Seed = seed
	}
	if v := q.Get("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid available flag")
			return
		}
		req.AvailableOnly = available
	}

	result, err := h.service.BuildSquad(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).WithField("method", string(method)).Error("Squad build failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// AnalyzeSquad analyzes a held squad
// POST /api/squad/analyze {"player_ids":[...], "transfers":3, "bank":15}
func (h *SquadHandler) AnalyzeSquad(w http.ResponseWriter, r *http.Request) {
	var req advisor.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.PlayerIDs) == 0 {
		respondError(w, http.StatusBadRequest, "player_ids is required")
		return
	}
	if req.Bank < 0 {
		respondError(w, http.StatusBadRequest, "bank must be >= 0")
		return
	}

	analysis, err := h.service.AnalyzeSquad(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("Squad analysis failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, analysis)
}
