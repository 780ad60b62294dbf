package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/fpl-squad/backend/internal/advisor"
	"github.com/wonny/fpl-squad/backend/internal/contracts"
)

// buildCmd builds a squad from scratch
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "새 15인 스쿼드 구성",
	Long: `선수 풀을 점수화한 뒤 예산 100.0m, 포지션 2/5/5/3,
팀당 최대 3명 규칙을 지키는 스쿼드를 구성합니다.

Methods:
  genetic - 유전 알고리즘 (기본값)
  random  - 무작위 탐욕 구성 (빠름)

Example:
  go run ./cmd/squad build
  go run ./cmd/squad build --method random --seed 7
  go run ./cmd/squad build --available --json`,
	RunE: runBuild,
}

// analyzeCmd analyzes a held squad
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "보유 스쿼드 분석 (주장, 이적 추천)",
	Long: `보유 중인 15명의 선수 ID로 주장/부주장, 단일 이적,
더블 이적 추천을 계산합니다.

Example:
  go run ./cmd/squad analyze --ids 1,5,12,... --transfers 3 --bank 1.5`,
	RunE: runAnalyze,
}

// playersCmd lists scored players
var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "점수순 선수 목록",
	Example: `  go run ./cmd/squad players --category fwd --limit 10
  go run ./cmd/squad players --available`,
	RunE: runPlayers,
}

// playerCmd shows one player's recent games
var playerCmd = &cobra.Command{
	Use:   "player <id>",
	Short: "선수 상세 (최근 경기 기록)",
	Long: `선수 점수와 함께 최근 종료된 라운드의 경기 기록을 보여줍니다.
라운드별 기록은 FPL API에서만 조회됩니다 (--source file 에서는 생략).

Example:
  go run ./cmd/squad player 328
  go run ./cmd/squad player 328 --games 10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPlayer,
}

// runsCmd lists recorded builds
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "최근 빌드 기록 조회 (DATABASE_URL 필요)",
	RunE:  runRuns,
}

var (
	runsLimit int

	buildMethod    string
	buildSeed      int64
	buildAvailable bool

	analyzeIDs       string
	analyzeTransfers int
	analyzeBank      float64

	playersCategory  string
	playersLimit     int
	playersAvailable bool

	playerGames int

	jsonOutput bool
)

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of runs shown")

	buildCmd.Flags().StringVar(&buildMethod, "method", "genetic", "build method (genetic|random)")
	buildCmd.Flags().Int64Var(&buildSeed, "seed", 0, "random seed (0 = time based)")
	buildCmd.Flags().BoolVar(&buildAvailable, "available", false, "부상/징계 선수 제외")

	analyzeCmd.Flags().StringVar(&analyzeIDs, "ids", "", "comma separated player ids (15)")
	analyzeCmd.Flags().IntVar(&analyzeTransfers, "transfers", 3, "number of single transfers to suggest")
	analyzeCmd.Flags().Float64Var(&analyzeBank, "bank", 0, "money in the bank (millions)")
	_ = analyzeCmd.MarkFlagRequired("ids")

	playersCmd.Flags().StringVar(&playersCategory, "category", "", "GKP|DEF|MID|FWD (empty = all)")
	playersCmd.Flags().IntVar(&playersLimit, "limit", 20, "maximum players shown (0 = all)")
	playersCmd.Flags().BoolVar(&playersAvailable, "available", false, "부상/징계 선수 제외")

	playerCmd.Flags().IntVar(&playerGames, "games", advisor.DefaultRecentGames, "finished gameweeks to look back over (1-38)")

	for _, cmd := range []*cobra.Command{buildCmd, analyzeCmd, playersCmd, playerCmd, runsCmd} {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	method, err := advisor.ParseMethod(buildMethod)
	if err != nil {
		return err
	}

	return withAdvisor(cmd.Context(), func(adv *advisor.Advisor) error {
		result, err := adv.BuildSquad(cmd.Context(), advisor.BuildRequest{
			Method:        method,
			Seed:          buildSeed,
			AvailableOnly: buildAvailable,
		})
		if err != nil {
			return fmt.Errorf("build squad: %w", err)
		}

		if jsonOutput {
			return PrintJSON(result)
		}
		PrintBuildResult(result)
		fmt.Println()
		PrintSuccess(fmt.Sprintf("Squad built in %s", result.Duration))
		return nil
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(analyzeIDs)
	if err != nil {
		return err
	}
	if analyzeBank < 0 {
		return fmt.Errorf("--bank must be >= 0")
	}

	return withAdvisor(cmd.Context(), func(adv *advisor.Advisor) error {
		analysis, err := adv.AnalyzeSquad(cmd.Context(), advisor.AnalyzeRequest{
			PlayerIDs: ids,
			Transfers: analyzeTransfers,
			Bank:      contracts.CostFromMillions(analyzeBank),
		})
		if err != nil {
			return fmt.Errorf("analyze squad: %w", err)
		}

		if jsonOutput {
			return PrintJSON(analysis)
		}
		PrintAnalysis(analysis)
		return nil
	})
}

func runPlayers(cmd *cobra.Command, args []string) error {
	query := advisor.PlayerQuery{AvailableOnly: playersAvailable, Limit: playersLimit}
	if playersCategory != "" {
		category, err := contracts.ParseCategory(playersCategory)
		if err != nil {
			return err
		}
		query.Category = category
	}

	return withAdvisor(cmd.Context(), func(adv *advisor.Advisor) error {
		players, err := adv.Players(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}

		if jsonOutput {
			return PrintJSON(players)
		}
		PrintHeader(fmt.Sprintf("Players (%d)", len(players)))
		PrintPlayers(players)
		return nil
	})
}

func runPlayer(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid player id %q", args[0])
	}
	if playerGames < 1 || playerGames > 38 {
		return fmt.Errorf("--games must be between 1 and 38")
	}

	return withAdvisor(cmd.Context(), func(adv *advisor.Advisor) error {
		detail, err := adv.PlayerDetail(cmd.Context(), id, playerGames)
		if err != nil {
			return fmt.Errorf("player detail: %w", err)
		}

		if jsonOutput {
			return PrintJSON(detail)
		}
		PrintPlayerDetail(detail)
		return nil
	})
}

func runRuns(cmd *cobra.Command, args []string) error {
	return withAdvisor(cmd.Context(), func(adv *advisor.Advisor) error {
		runs, err := adv.RecentRuns(cmd.Context(), runsLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		if jsonOutput {
			return PrintJSON(runs)
		}
		PrintHeader(fmt.Sprintf("Build Runs (%d)", len(runs)))
		PrintRuns(runs)
		return nil
	})
}

// withAdvisor wires the app, runs fn and releases connections
func withAdvisor(ctx context.Context, fn func(adv *advisor.Advisor) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	adv, err := a.advisor()
	if err != nil {
		return err
	}
	return fn(adv)
}
