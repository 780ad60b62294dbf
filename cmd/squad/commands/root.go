package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is overridden at build time (-ldflags "-X ...commands.version=...")
var version = "dev"

var (
	// Global flags
	squadConfigFile string
	snapshotFile    string
	sourceFlag      string
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "squad",
	Short:         "FPL Squad - 판타지 프리미어리그 스쿼드 최적화",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `FPL Squad Unified CLI

판타지 프리미어리그 선수 풀을 점수화하고
예산 100.0m, 팀당 최대 3명 규칙 안에서 15인 스쿼드를 구성합니다.
보유 스쿼드의 주장, 이적, 더블 이적 추천도 제공합니다.

Usage:
  go run ./cmd/squad [command]

Examples:
  go run ./cmd/squad build --method genetic --seed 42
  go run ./cmd/squad analyze --ids 1,2,3,... --bank 0.5
  go run ./cmd/squad players --category mid --limit 10
  go run ./cmd/squad api
  go run ./cmd/squad scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Version = version

	// Global flags
	rootCmd.PersistentFlags().StringVar(&squadConfigFile, "squad-config", "", "optimizer tuning YAML (default: SQUAD_CONFIG or built-in)")
	rootCmd.PersistentFlags().StringVar(&snapshotFile, "snapshot", "", "read players and fixtures from a JSON snapshot instead of the FPL API")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "auto", "player source (auto|api|file|db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
