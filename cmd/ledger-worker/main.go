package main

import (
	"os"

	"wealthwarriors/internal/amqp"
	"wealthwarriors/internal/cli"
	"wealthwarriors/internal/ledger"
	"wealthwarriors/internal/ledger/google"
	"wealthwarriors/internal/ledger/memory"
	applog "wealthwarriors/internal/log"
	"wealthwarriors/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting ledger-worker")

	ctx, stop := cli.SignalContext()
	defer stop()

	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Close()

	if store.Ledger == nil {
		logger.Error("Backend cannot list ledger entries", applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	var writer ledger.Writer
	if cfg.HasSheets() {
		creds, err := cfg.GoogleCredentialsJSON()
		if err != nil {
			logger.Error("Failed to read Google credentials", "error", err)
			os.Exit(1)
		}
		client, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleLedgerSheetName, creds)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets ledger enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New()
		logger.Info("Google Sheets disabled - exporting to an in-memory ledger")
	}

	var consume worker.ConsumeFunc
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		consume = client.ConsumeFamilySaved
	} else {
		logger.Info("AMQP disabled - exporting on the sync interval only", "interval", cfg.SyncInterval)
	}

	w := worker.NewLedgerWorker(store.Ledger, writer, cfg.SyncBatchSize)
	if err := w.Run(ctx, cfg.SyncInterval, consume); err != nil {
		logger.Error("Ledger worker stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("Ledger worker shutdown complete")
}
