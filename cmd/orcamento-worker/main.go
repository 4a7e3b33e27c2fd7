package main

import (
	"context"
	"os"
	"time"

	"orcamento/internal/amqp"
	"orcamento/internal/cli"
	"orcamento/internal/log"
	gsheet "orcamento/internal/sheets/google"
	"orcamento/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig()
	cli.MustValidate(logger, cfg.Validate, cfg.ValidateWorker)

	logger.Info("Starting orcamento-worker",
		"backend", cfg.DataBackend,
		"sync_interval", cfg.SyncInterval)

	// The worker only consumes; the store is opened without a publisher.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	res := cli.InitBackend(context.Background(), logger, &storeCfg)
	defer res.Cleanup()

	exporter, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		ExpensesSheet:   cfg.GoogleExpensesSheet,
		BudgetsSheet:    cfg.GoogleBudgetsSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	exportWorker := worker.NewExportWorker(res.Store, exporter, logger)
	if err := exportWorker.Run(ctx, amqpClient, cfg.SyncInterval); err != nil {
		logger.Error("Export worker stopped", log.FieldError, err)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
