package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chariot-app/globemap/internal/config"
	"github.com/chariot-app/globemap/internal/ingestion"
	"github.com/chariot-app/globemap/internal/logging"
	"github.com/chariot-app/globemap/internal/observability"
	"github.com/chariot-app/globemap/internal/repository"
)

// One-shot ingestion run for operators and cron jobs. Exits non-zero only
// when the store layer fails; individual source failures are logged and
// absorbed by the run.
func main() {
	reset := flag.Bool("reset", false, "clear all stored crises and charities before ingesting")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *reset {
		if err := db.Reset(ctx); err != nil {
			logging.Fatalf("Failed to reset database: %v", err)
		}
		slog.Info("database reset")
	}

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	agg := ingestion.BuildAggregator(cfg, db, metrics)

	summary, err := agg.Run(ctx)
	if err != nil {
		slog.Error("ingestion run failed", "error", err)
		os.Exit(1)
	}

	total, err := db.CountCrises(ctx)
	if err != nil {
		logging.Fatalf("Failed to count stored crises: %v", err)
	}

	slog.Info("ingestion run finished",
		"crises_inserted", summary.CrisesInserted,
		"crises_skipped", summary.CrisesSkipped,
		"charities_inserted", summary.CharitiesInserted,
		"failed_sources", summary.FailedSources,
		"crises_total", total,
		"duration", summary.Duration,
	)
}
