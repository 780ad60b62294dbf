package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fpl-squad/backend/internal/scheduler"
	"github.com/wonny/fpl-squad/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `선수 풀 스냅샷 갱신 스케줄러를 시작하거나 작업을 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/squad scheduler start
  go run ./cmd/squad scheduler run pool_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- pool_refresh: FPL_REFRESH_CRON (기본 6시간마다) 선수 풀과 픽스처를
  Postgres(DATABASE_URL) 및 스냅샷 파일(FPL_SNAPSHOT)에 저장

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var refreshHorizon int

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().IntVar(&refreshHorizon, "horizon", 0, "fixtures stored per team (0 = all remaining)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FPL Squad Scheduler ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, registered, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, job := range registered {
		fmt.Printf("  - %s (%s)\n", job.Name(), job.Schedule())
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, registered, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	schedules := make(map[string]string, len(registered))
	for _, job := range registered {
		schedules[job.Name()] = job.Schedule()
	}

	fmt.Println("Registered jobs:")
	for _, name := range sched.Jobs() {
		fmt.Printf("  - %-14s %s\n", name, schedules[name])
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, registered, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	name := args[0]
	for _, job := range registered {
		if job.Name() != name {
			continue
		}

		fmt.Printf("▶️  Running %s...\n", name)
		runErr := sched.RunJob(cmd.Context(), name, job)

		if stats, err := sched.Stats(name); err == nil {
			PrintKeyValue("Duration", stats.LastDuration.Round(time.Millisecond).String(), 9)
			if history, err := sched.History(name); err == nil && len(history) > 0 {
				PrintKeyValue("Attempts", fmt.Sprint(history[len(history)-1].Attempts), 9)
			}
		}
		if runErr != nil {
			return runErr
		}
		PrintSuccess(fmt.Sprintf("%s completed", name))
		return nil
	}

	return fmt.Errorf("unknown job %q (available: %v)", name, sched.Jobs())
}

// initScheduler registers every job the app can serve
func initScheduler(a *app) (*scheduler.Scheduler, []scheduler.Job, error) {
	sched := scheduler.New(a.log)

	var registered []scheduler.Job
	if job := poolRefreshJob(a); job != nil {
		registered = append(registered, job)
	} else {
		PrintWarning("pool_refresh disabled: set DATABASE_URL or FPL_SNAPSHOT")
	}

	for _, job := range registered {
		if err := sched.AddJob(job); err != nil {
			return nil, nil, err
		}
	}
	return sched, registered, nil
}

// poolRefreshJob returns nil when no sink is configured
func poolRefreshJob(a *app) *jobs.PoolRefreshJob {
	sinks := a.sinks()
	if len(sinks) == 0 {
		return nil
	}
	return jobs.NewPoolRefreshJob(a.provider, sinks, jobs.PoolRefreshConfig{
		Schedule: a.cfg.FPL.RefreshCron,
		Horizon:  refreshHorizon,
		Source:   a.cfg.FPL.BaseURL,
	}, a.log).
		WithCache(a.cache).
		WithMetrics(a.metrics)
}
