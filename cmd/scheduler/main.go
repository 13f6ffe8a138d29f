package main

import (
	"context"
	"flag"
	"os"
	"time"

	"wealthwarriors/internal/cli"
	applog "wealthwarriors/internal/log"
	"wealthwarriors/internal/services"
)

func main() {
	once := flag.Bool("once", false, "run a single pass and exit (for cron)")
	flag.Parse()

	cfg, logger := cli.Bootstrap(applog.ComponentScheduler)

	ctx, stop := cli.SignalContext()
	defer stop()

	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Close()

	opts := []services.Option{services.WithPersistTimeout(cfg.PersistTimeout)}
	if store.States != nil {
		opts = append(opts, services.WithStateStore(store.States))
	}
	svc := services.NewFamilyService(store.Families, opts...)
	sched := services.NewScheduler(svc, time.Now)

	pass := func(ctx context.Context) error {
		// Reload so edits made by the server since the last pass are kept.
		if err := svc.Load(ctx); err != nil {
			return err
		}
		report, err := sched.RunOnce(ctx)
		logger.Info("Scheduler pass completed",
			"allowances", report.Allowances,
			"interest", report.Interest)
		return err
	}

	if *once {
		if err := pass(ctx); err != nil {
			logger.Error("Scheduler pass failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.SchedulerInterval <= 0 {
		logger.Error("SCHEDULER_INTERVAL must be set unless -once is given")
		os.Exit(1)
	}

	logger.Info("Starting scheduler", "interval", cfg.SchedulerInterval)
	ticker := time.NewTicker(cfg.SchedulerInterval)
	defer ticker.Stop()
	for {
		if err := pass(ctx); err != nil {
			logger.Error("Scheduler pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
