package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"orcamento/internal/cli"
	apphttp "orcamento/internal/http"
	"orcamento/internal/log"
	"orcamento/internal/report"
	"orcamento/internal/services"
)

func main() {
	cfg, logger := cli.LoadConfig()
	cli.MustValidate(logger, cfg.Validate)

	logger.Info("Starting orcamento API", "backend", cfg.DataBackend)

	res := cli.InitBackend(context.Background(), logger, cfg)

	expenseService := services.NewExpenseService(res.Store, res.Publisher, logger)
	budgetService := services.NewBudgetService(res.Store, res.Publisher, logger)
	reportEngine := report.NewEngine(res.Store,
		report.WithLogger(logger))

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}, apphttp.Dependencies{
		Expenses: expenseService,
		Budgets:  budgetService,
		Reports:  reportEngine,
		Health:   res.Store,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Listening", "port", cfg.Port,
		"cors_origins", cfg.CORSAllowedOrigins,
		"rate_limit_per_minute", cfg.RateLimitPerMinute,
		"events_enabled", res.Publisher != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
