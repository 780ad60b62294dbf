package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wonny/fpl-squad/backend/internal/advisor"
	"github.com/wonny/fpl-squad/backend/internal/contracts"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
)

// Service is the part of the advisor exposed as tools
type Service interface {
	Players(ctx context.Context, q advisor.PlayerQuery) ([]contracts.ScoredPlayer, error)
	PlayerDetail(ctx context.Context, id, games int) (*contracts.PlayerDetail, error)
	BuildSquad(ctx context.Context, req advisor.BuildRequest) (*advisor.BuildResult, error)
	AnalyzeSquad(ctx context.Context, req advisor.AnalyzeRequest) (*contracts.SquadAnalysis, error)
}

type ListPlayersArgs struct {
	Category      string `json:"category,omitempty" jsonschema:"GKP DEF MID or FWD (empty = all)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum players returned (default 25)"`
	AvailableOnly bool   `json:"available_only,omitempty" jsonschema:"Drop injured or suspended players"`
}

type PlayerDetailArgs struct {
	PlayerID int `json:"player_id" jsonschema:"FPL element id"`
	Games    int `json:"games,omitempty" jsonschema:"Finished gameweeks to look back over (1-38, default 5)"`
}

type BuildSquadArgs struct {
	Method        string `json:"method,omitempty" jsonschema:"genetic (default) or random"`
	Seed          int64  `json:"seed,omitempty" jsonschema:"Random seed for a reproducible build (0 = time based)"`
	AvailableOnly bool   `json:"available_only,omitempty" jsonschema:"Drop injured or suspended players"`
}

type AnalyzeSquadArgs struct {
	PlayerIDs []int   `json:"player_ids" jsonschema:"The 15 FPL element ids of the held squad"`
	Transfers int     `json:"transfers,omitempty" jsonschema:"Number of single transfers to suggest (default 3)"`
	Bank      float64 `json:"bank,omitempty" jsonschema:"Money in the bank in millions"`
}

const (
	defaultListLimit = 25
	maxRecentGames   = 38
)

// Tools holds the handlers registered on the MCP server
type Tools struct {
	service Service
	logger  *logger.Logger
}

// NewServer creates an MCP server exposing list_players, player_detail,
// build_squad and analyze_squad
func NewServer(service Service, version string, log *logger.Logger) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fpl-squad-mcp",
			Version: version,
		},
		nil,
	)

	t := &Tools{service: service, logger: log.Component("mcp")}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_players",
		Description: "List scored players (score desc), optionally filtered by category",
	}, t.listPlayers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "player_detail",
		Description: "Show one scored player with stats from their most recent finished gameweeks",
	}, t.playerDetail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_squad",
		Description: "Build a legal 15-man squad within 100.0m with at most 3 players per club",
	}, t.buildSquad)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_squad",
		Description: "Suggest captain, single transfers and a double transfer for a held squad",
	}, t.analyzeSquad)

	return server
}

// Handler serves the MCP server over streamable HTTP
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (t *Tools) listPlayers(ctx context.Context, req *mcp.CallToolRequest, args ListPlayersArgs) (*mcp.CallToolResult, any, error) {
	query := advisor.PlayerQuery{AvailableOnly: args.AvailableOnly, Limit: args.Limit}
	if query.Limit <= 0 {
		query.Limit = defaultListLimit
	}
	if args.Category != "" {
		category, err := contracts.ParseCategory(args.Category)
		if err != nil {
			return toolError(err), nil, nil
		}
		query.Category = category
	}

	players, err := t.service.Players(ctx, query)
	if err != nil {
		return t.fail("list_players", err), nil, nil
	}
	return toolJSON(players)
}

func (t *Tools) playerDetail(ctx context.Context, req *mcp.CallToolRequest, args PlayerDetailArgs) (*mcp.CallToolResult, any, error) {
	if args.PlayerID <= 0 {
		return toolError(fmt.Errorf("player_id is required")), nil, nil
	}
	games := args.Games
	if games == 0 {
		games = advisor.DefaultRecentGames
	}
	if games < 1 || games > maxRecentGames {
		return toolError(fmt.Errorf("games must be between 1 and %d", maxRecentGames)), nil, nil
	}

	detail, err := t.service.PlayerDetail(ctx, args.PlayerID, games)
	if err != nil {
		return t.fail("player_detail", err), nil, nil
	}
	return toolJSON(detail)
}

func (t *Tools) buildSquad(ctx context.Context, req *mcp.CallToolRequest, args BuildSquadArgs) (*mcp.CallToolResult, any, error) {
	method, err := advisor.ParseMethod(args.Method)
	if err != nil {
		return toolError(err), nil, nil
	}

	result, err := t.service.BuildSquad(ctx, advisor.BuildRequest{
		Method:        method,
		Seed:          args.Seed,
		AvailableOnly: args.AvailableOnly,
	})
	if err != nil {
		return t.fail("build_squad", err), nil, nil
	}
	return toolJSON(result)
}

func (t *Tools) analyzeSquad(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeSquadArgs) (*mcp.CallToolResult, any, error) {
	if len(args.PlayerIDs) == 0 {
		return toolError(fmt.Errorf("player_ids is required")), nil, nil
	}
	if args.Bank < 0 {
		return toolError(fmt.Errorf("bank must be >= 0")), nil, nil
	}

	analysis, err := t.service.AnalyzeSquad(ctx, advisor.AnalyzeRequest{
		PlayerIDs: args.PlayerIDs,
		Transfers: args.Transfers,
		Bank:      contracts.CostFromMillions(args.Bank),
	})
	if err != nil {
		return t.fail("analyze_squad", err), nil, nil
	}
	return toolJSON(analysis)
}

func (t *Tools) fail(tool string, err error) *mcp.CallToolResult {
	t.logger.WithError(err).WithField("tool", tool).Warn("Tool call failed")
	return toolError(err)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
