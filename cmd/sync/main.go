// cmd/sync/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/commercekit/skusync/internal/cms"
	"github.com/commercekit/skusync/internal/config"
	"github.com/commercekit/skusync/internal/notify"
	"github.com/commercekit/skusync/internal/repository/postgres"
	"github.com/commercekit/skusync/internal/storage"
	"github.com/commercekit/skusync/internal/syncer"
	"github.com/commercekit/skusync/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "sync",
		Usage: "Allocate pending order demand across SKU stock lots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run one allocation pass over every active SKU and exit",
				Action: runOnce,
			},
			{
				Name:  "schedule",
				Usage: "Run allocation passes on a cron schedule until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "cron",
						Usage:   "Cron expression with seconds field",
						EnvVars: []string{"SYNC_SCHEDULE"},
					},
				},
				Action: runScheduled,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("sync failed")
	}
}

func runOnce(c *cli.Context) error {
	s, cleanup, err := buildSyncer()
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := s.SyncAll(c.Context)
	if err != nil {
		return err
	}

	logger.Log.Info().
		Int64("run_id", run.ID).
		Int("total", run.TotalSKUs).
		Int("updated", run.UpdatedSKUs).
		Int("shortages", run.ShortageSKUs).
		Int("failed", run.FailedSKUs).
		Msg("Allocation run completed")
	return nil
}

func runScheduled(c *cli.Context) error {
	cfg := config.Load()

	spec := c.String("cron")
	if spec == "" {
		spec = cfg.Sync.Schedule
	}

	s, cleanup, err := buildSyncer()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(spec, func() {
		run, err := s.SyncAll(ctx)
		if err != nil {
			logger.Log.Error().Err(err).Msg("scheduled allocation run failed")
			return
		}
		logger.Log.Info().
			Int64("run_id", run.ID).
			Int("updated", run.UpdatedSKUs).
			Int("shortages", run.ShortageSKUs).
			Msg("Scheduled allocation run completed")
	}); err != nil {
		return err
	}

	logger.Log.Info().Str("schedule", spec).Msg("Starting allocation scheduler")
	scheduler.Start()

	<-ctx.Done()
	logger.Log.Info().Msg("Stopping allocation scheduler")
	<-scheduler.Stop().Done()
	return nil
}

func buildSyncer() (*syncer.Syncer, func(), error) {
	cfg := config.Load()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { db.Close() }

	store := cms.NewClient(cfg.CMS.BaseURL, cfg.CMS.Token)
	orders := postgres.NewOrderStatsRepository(db)
	runs := postgres.NewRunRepository(db)

	var notifier notify.Notifier
	if cfg.Slack.Token != "" {
		notifier = notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel, cfg.Slack.DryRun)
	}

	var reports storage.ReportStore
	if cfg.Storage.Enabled {
		minioStore, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		reports = minioStore
	}

	s := syncer.NewSyncer(store, orders, runs, notifier, reports, syncer.Config{
		Concurrency: cfg.Sync.Concurrency,
	})
	return s, cleanup, nil
}
