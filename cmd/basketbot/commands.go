package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/maccabipedia/basketbot/internal/api/rest"
	"github.com/maccabipedia/basketbot/internal/api/websocket"
	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/scheduler"
	"github.com/maccabipedia/basketbot/internal/store"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one update cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			reports := a.runner.RunCycle(ctx)
			if saver := a.reportSaver(); saver != nil {
				if err := saver.Save(ctx, reports); err != nil {
					logger.Warn("failed to save cycle reports", "error", err)
				}
			}

			if err := writeJSON(cmd, reports); err != nil {
				return err
			}
			return cycleOutcome(reports)
		},
	}
}

// cycleOutcome maps reports onto an exit status.
func cycleOutcome(reports []pipeline.CycleReport) error {
	var failedSources, failedGames int
	for _, r := range reports {
		if r.Err != nil {
			failedSources++
		}
		failedGames += len(r.Failed)
	}
	if failedSources == 0 && failedGames == 0 {
		return nil
	}
	return &exitError{
		code: exitPartial,
		err:  errors.Newf("%d source(s) and %d game(s) failed", failedSources, failedGames),
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run cycles on an interval with the REST and websocket APIs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := signalContext()
			defer cancel()

			hub := websocket.NewHub(logger)
			go hub.Run(ctx)

			a, err := newApp(ctx, cfg, logger, hub)
			if err != nil {
				return err
			}
			defer a.Close()

			var saver scheduler.ReportSaver
			if s := a.reportSaver(); s != nil {
				saver = s
			}
			sched := scheduler.NewOrchestrator(a.runner, saver, scheduler.Config{
				Interval:   cfg.CycleInterval,
				MaxRetries: 3,
				RetryDelay: 30 * time.Second,
				RunOnStart: true,
			}, logger)

			deps := rest.Deps{Cycles: a.runner, Scheduler: sched, Health: a.health}
			if a.records != nil {
				deps.Records = a.records
			}
			if a.cycles != nil {
				deps.History = a.cycles
			}

			restServer := rest.NewServer(cfg.RESTPort, deps, logger)
			go func() {
				logger.Info("rest api listening", "port", cfg.RESTPort)
				if err := restServer.Start(); err != nil {
					logger.Warn("rest server stopped", "error", err)
				}
			}()

			wsServer := websocket.NewServer(hub)
			go func() {
				if err := wsServer.Start(cfg.WSPort); err != nil {
					logger.Warn("websocket server stopped", "error", err)
				}
			}()

			logger.Info("basketbot started", "version", serviceVersion, "sources", len(a.adapters))
			sched.Start(ctx)

			logger.Info("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := restServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("rest api shutdown", "error", err)
			}
			if err := wsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("websocket shutdown", "error", err)
			}
			return nil
		},
	}
}

type discovered struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
	Score     string `json:"score"`
	Exists    bool   `json:"exists"`
}

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List candidate games and whether their records exist, without publishing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			var out []discovered
			for _, adapter := range a.adapters {
				candidates, err := adapter.Discover(ctx, cfg.TrackedTeam, cfg.GamesToCheck)
				if err != nil {
					logger.Error("discovery failed", "source", adapter.Name(), "error", err)
					continue
				}
				if len(candidates) == 0 {
					continue
				}

				titles := make([]string, len(candidates))
				for i, c := range candidates {
					titles[i] = c.IdentityKey
				}
				index, err := a.index.CheckExistence(ctx, titles)
				if err != nil {
					return errors.Wrap(err, "check existence")
				}
				for _, c := range candidates {
					out = append(out, discovered{
						Source:    adapter.Name(),
						Title:     c.IdentityKey,
						SourceURL: c.SourceURL,
						Score:     fmt.Sprintf("%d-%d", c.OwnScore(), c.OpponentScore()),
						Exists:    index != nil && index(c.IdentityKey),
					})
				}
			}
			return writeJSON(cmd, out)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply ledger database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}

			ctx, cancel := signalContext()
			defer cancel()

			db, err := store.NewDatabase(ctx, cfg.DatabaseURL, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.RunMigrations(ctx)
		},
	}
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
