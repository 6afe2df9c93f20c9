package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rmottanelli/clareza/internal/activity"
	"github.com/rmottanelli/clareza/internal/automation"
	"github.com/rmottanelli/clareza/internal/config"
	"github.com/rmottanelli/clareza/internal/db"
	"github.com/rmottanelli/clareza/internal/logging"
	"github.com/rmottanelli/clareza/internal/notify"
	"github.com/rmottanelli/clareza/internal/queue"
	"github.com/rmottanelli/clareza/internal/repository"
	"github.com/rmottanelli/clareza/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "clareza",
		Short:         "Task automation and dependency engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(
		newWorkerCmd(&configPath),
		newSweepCmd(&configPath),
		newDueCheckCmd(&configPath),
	)
	return root
}

// app holds the wired runtime shared by every command.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	database *sql.DB
	rq       *queue.RedisQueue

	engine     *automation.Engine
	notifier   *notify.Handler
	recorder   *activity.Recorder
	dispatcher *notify.Dispatcher
}

func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	rq, err := queue.NewRedisQueue(cfg.RedisURL)
	if err != nil {
		database.Close()
		return nil, err
	}

	uow := db.NewSQLiteUnitOfWork(database)
	dispatcher := notify.NewDispatcher(rq)
	recorder := activity.NewRecorder(repository.NewSQLiteActivityRepo(database), log)
	engine := automation.NewEngine(database, uow, rq, dispatcher, recorder, log)
	notifier := notify.NewHandler(
		repository.NewSQLiteTaskRepo(database),
		repository.NewSQLiteUserRepo(database),
		notify.NewLogDeliverer(log),
		log,
	)

	return &app{
		cfg:        cfg,
		log:        log,
		database:   database,
		rq:         rq,
		engine:     engine,
		notifier:   notifier,
		recorder:   recorder,
		dispatcher: dispatcher,
	}, nil
}

func (a *app) close() {
	a.rq.Close()
	a.database.Close()
}

func newWorkerCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background job workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wcfg := queue.DefaultWorkerConfig()
			wcfg.Concurrency = a.cfg.Worker.Concurrency
			wcfg.MaxAttempts = a.cfg.Worker.MaxAttempts
			wcfg.RetryDelay = a.cfg.Worker.RetryDelay
			wcfg.SoftTimeout = a.cfg.Worker.SoftTimeout
			wcfg.HardTimeout = a.cfg.Worker.HardTimeout
			wcfg.MaxJobsPerWorker = a.cfg.Worker.MaxJobsPerWorker

			pool := queue.NewPool(a.rq, wcfg, a.log)
			pool.Register(automation.JobName, a.engine.HandleProcess)
			pool.Register(notify.JobName, a.notifier.HandleSend)

			a.log.Info().Int("concurrency", wcfg.Concurrency).Msg("workers starting")
			pool.Run(ctx)
			a.log.Info().Msg("workers stopped")
			return nil
		},
	}
}

func newSweepCmd(configPath *string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete activity records past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if days == 0 {
				days = a.cfg.RetentionDays
			}
			removed, err := a.recorder.Sweep(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d activity records\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention window in days (default from config)")
	return cmd
}

func newDueCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "duecheck",
		Short: "Scan for tasks due tomorrow or overdue and notify assignees",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			svc := service.NewDueDateService(a.database, a.engine, a.dispatcher, a.log)
			report, err := svc.CheckDueDates(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "due soon: %d, overdue: %d\n", report.DueSoon, report.Overdue)
			return nil
		},
	}
}
