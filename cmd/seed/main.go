package main

import (
	"flag"
	"os"

	"wealthwarriors/internal/cli"
	"wealthwarriors/internal/engine"
	applog "wealthwarriors/internal/log"
	"wealthwarriors/internal/seed"
	"wealthwarriors/internal/services"
)

func main() {
	path := flag.String("file", "data/seed.toml", "TOML family fixture")
	force := flag.Bool("force", false, "replace an existing family")
	flag.Parse()

	cfg, logger := cli.Bootstrap(applog.ComponentSeed)

	ctx, stop := cli.SignalContext()
	defer stop()

	f, err := os.Open(*path)
	if err != nil {
		logger.Error("Failed to open fixture", "path", *path, "error", err)
		os.Exit(1)
	}
	fixture, err := seed.Parse(f)
	f.Close()
	if err != nil {
		logger.Error("Invalid fixture", "path", *path, "error", err)
		os.Exit(1)
	}

	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Close()

	opts := []services.Option{services.WithPersistTimeout(cfg.PersistTimeout)}
	if store.States != nil {
		opts = append(opts, services.WithStateStore(store.States))
	}
	svc := services.NewFamilyService(store.Families, opts...)
	if err := svc.Load(ctx); err != nil {
		logger.Error("Failed to load existing family", "error", err)
		os.Exit(1)
	}
	if existing := svc.State().Family; existing != nil {
		if !*force {
			logger.Error("A family already exists; pass -force to replace it",
				applog.FieldFamilyID, existing.ID)
			os.Exit(1)
		}
		if _, err := svc.DispatchAsParent(ctx, engine.Reset{}); err != nil {
			logger.Error("Failed to reset existing family", "error", err)
			os.Exit(1)
		}
		logger.Warn("Replacing existing family", applog.FieldFamilyID, existing.ID)
	}

	st, err := seed.Apply(ctx, svc, fixture)
	if err != nil {
		logger.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Seeded family",
		applog.FieldFamilyID, st.Family.ID,
		"name", st.Family.Name,
		"kids", len(st.Family.Kids))
}
