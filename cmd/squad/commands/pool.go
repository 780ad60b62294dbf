package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fpl-squad/backend/internal/store"
)

// poolCmd groups snapshot maintenance commands
var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "선수 풀 스냅샷 관리",
	Long: `FPL API에서 선수 풀과 픽스처를 받아 저장하거나
마지막으로 저장된 스냅샷 정보를 조회합니다.

Example:
  go run ./cmd/squad pool refresh --snapshot ./data/pool.json
  go run ./cmd/squad pool status`,
}

var poolRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "스냅샷 즉시 갱신",
	RunE:  runPoolRefresh,
}

var poolStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "저장된 스냅샷 조회",
	RunE:  runPoolStatus,
}

func init() {
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolRefreshCmd)
	poolCmd.AddCommand(poolStatusCmd)

	poolRefreshCmd.Flags().IntVar(&refreshHorizon, "horizon", 0, "fixtures stored per team (0 = all remaining)")
}

func runPoolRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	job := poolRefreshJob(a)
	if job == nil {
		return fmt.Errorf("no snapshot store configured: set DATABASE_URL or --snapshot")
	}
	if err := job.Run(cmd.Context()); err != nil {
		return err
	}

	PrintSuccess("Pool snapshot saved")
	return printSnapshots(cmd.Context(), a)
}

func runPoolStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	return printSnapshots(cmd.Context(), a)
}

func printSnapshots(ctx context.Context, a *app) error {
	if a.repo == nil && a.snapshot == nil {
		PrintWarning("No snapshot store configured (DATABASE_URL or --snapshot)")
		return nil
	}

	if a.repo != nil {
		s, err := a.repo.LatestSnapshot(ctx)
		switch {
		case errors.Is(err, store.ErrNoSnapshot):
			PrintInfo("Postgres: no snapshot stored")
		case err != nil:
			return err
		default:
			printSnapshot("Postgres", s)
		}
	}

	if a.snapshot != nil {
		s, err := a.snapshot.Load()
		switch {
		case errors.Is(err, store.ErrNoSnapshot):
			PrintInfo(fmt.Sprintf("File %s: no snapshot stored", a.snapshot.Path()))
		case err != nil:
			return err
		default:
			printSnapshot(a.snapshot.Path(), s)
		}
	}
	return nil
}

func printSnapshot(where string, s *store.Snapshot) {
	PrintHeader(fmt.Sprintf("Snapshot (%s)", where))
	PrintKeyValue("Taken", s.TakenAt.Format("2006-01-02 15:04:05 MST"), 8)
	PrintKeyValue("Source", s.Source, 8)
	PrintKeyValue("Players", fmt.Sprintf("%d", s.PlayerCount), 8)
	if len(s.Fixtures) > 0 {
		PrintKeyValue("Teams", fmt.Sprintf("%d", len(s.Fixtures)), 8)
	}
	PrintSeparator()
}
