package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"wealthwarriors/internal/amqp"
	"wealthwarriors/internal/cli"
	apphttp "wealthwarriors/internal/http"
	applog "wealthwarriors/internal/log"
	"wealthwarriors/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentServer)

	ctx, stop := cli.SignalContext()
	defer stop()

	store := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	opts := []services.Option{services.WithPersistTimeout(cfg.PersistTimeout)}
	if store.States != nil {
		opts = append(opts, services.WithStateStore(store.States))
	}

	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		opts = append(opts, services.WithPublisher(publisher))
		logger.Info("AMQP publisher enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - ledger export relies on the worker's periodic pass")
	}

	svc := services.NewFamilyService(store.Families, opts...)
	if err := svc.Load(ctx); err != nil {
		logger.Error("Failed to load family", "error", err)
		os.Exit(1)
	}

	readyChecks := map[string]apphttp.ReadyCheck{}
	if store.Ping != nil {
		readyChecks["store"] = apphttp.ReadyCheck(store.Ping)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReadyChecks:        readyChecks,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting wealthwarriors server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.SchedulerInterval > 0 {
		g.Go(func() error {
			return services.NewScheduler(svc, time.Now).Run(gctx, cfg.SchedulerInterval)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
