package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fpl-squad/backend/internal/api"
	"github.com/wonny/fpl-squad/backend/internal/api/handlers"
	"github.com/wonny/fpl-squad/backend/internal/mcptools"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버와 MCP 엔드포인트를 시작합니다.

Endpoints:
  GET  /health              - Health check (Redis/Postgres 연결 포함)
  GET  /metrics             - Prometheus metrics (METRICS_ENABLED)
  GET  /api/players         - 점수순 선수 목록
  GET  /api/squad/build     - 스쿼드 구성 (?method=&seed=&available=)
  POST /api/squad/analyze   - 보유 스쿼드 분석
  GET  /api/squad/runs      - 최근 빌드 기록 (DATABASE_URL)
  *    /mcp                 - MCP tools (list_players, build_squad, analyze_squad)

Example:
  go run ./cmd/squad api
  go run ./cmd/squad api --port 8080 --no-mcp`,
	RunE: runAPIServer,
}

var (
	apiPort  string
	apiNoMCP bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().BoolVar(&apiNoMCP, "no-mcp", false, "/mcp 엔드포인트 비활성화")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FPL Squad API Server ===")

	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	adv, err := a.advisor()
	if err != nil {
		return err
	}

	deps := api.RouterDeps{
		Squad:   handlers.NewSquadHandler(adv, log),
		Metrics: a.metrics,
		Checks:  a.healthChecks(),
		Logger:  log,
	}
	if a.repo != nil {
		deps.Runs = handlers.NewRunsHandler(adv, log)
	}
	if !apiNoMCP {
		deps.MCP = mcptools.Handler(mcptools.NewServer(adv, version, log))
	}

	server := api.New(a.cfg, log, api.NewRouter(deps))

	log.WithFields(map[string]interface{}{
		"port":        a.cfg.Port,
		"config_hash": adv.ConfigHash(),
		"mcp":         deps.MCP != nil,
	}).Info("API server starting")

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	if a.metrics != nil {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("  GET  /api/players")
	fmt.Println("  GET  /api/squad/build")
	fmt.Println("  POST /api/squad/analyze")
	if deps.Runs != nil {
		fmt.Println("  GET  /api/squad/runs")
	}
	if deps.MCP != nil {
		fmt.Println("  *    /mcp")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Graceful shutdown with timeout
	if err := server.Run(ctx, 30*time.Second); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
