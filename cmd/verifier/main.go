package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storm-platform/internal/config"
	"storm-platform/internal/notify"
	"storm-platform/internal/repository"
	"storm-platform/internal/services"
	"storm-platform/pkg/database"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	once := flag.Bool("once", false, "Run a single verification batch and exit")
	limit := flag.Int("limit", 0, "Maximum alerts per batch (0 uses the configured default)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("storm-verifier", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[VERIFIER_START] Starting verification runner", logging.Fields{
		"version":  "1.0.0",
		"once":     *once,
		"interval": cfg.Verification.Interval.String(),
		"db_host":  cfg.Database.Host,
		"db_name":  cfg.Database.Database,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("storm_verifier")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[VERIFIER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repositories
	alertRepo := repository.NewAlertRepository(db, logger, metricsCollector)
	reportRepo := repository.NewReportRepository(db, logger, metricsCollector)

	// Initialize the event publisher
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Kafka.Enabled {
		notifier = notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger, metricsCollector)
	}
	defer notifier.Close()

	// Initialize service
	verificationService := services.NewVerificationService(alertRepo, reportRepo, notifier, logger, metricsCollector, nil)

	batchLimit := cfg.Verification.BatchLimit
	if *limit > 0 {
		batchLimit = *limit
	}

	if *once {
		result, err := verificationService.RunBatch(ctx, batchLimit)
		if err != nil {
			logger.Fatal(ctx, "[VERIFIER_ERROR] Verification run failed", logging.Fields{}, err)
		}

		fmt.Printf("Processed: %d\nMatched:   %d\nUpdated:   %d\n", result.Processed, result.Matched, result.Updated)
		return
	}

	// Scheduled mode: run on a fixed interval until interrupted. A run that
	// overlaps the next tick makes that tick a logged no-op.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Verification.Interval)
	defer ticker.Stop()

	runOnce := func() {
		runCtx, cancel := context.WithTimeout(ctx, cfg.Verification.Interval)
		defer cancel()

		if _, err := verificationService.RunBatch(runCtx, batchLimit); err != nil {
			if errors.Is(err, services.ErrBatchInProgress) {
				logger.Warn(ctx, "[VERIFIER_SKIP] Previous run still in progress, skipping tick", logging.Fields{})
				return
			}
			logger.Error(ctx, "[VERIFIER_RUN_ERROR] Verification run failed", logging.Fields{}, err)
		}
	}

	// First run immediately, then on every tick
	runOnce()

	for {
		select {
		case <-ticker.C:
			runOnce()
		case <-quit:
			logger.Info(ctx, "[VERIFIER_SHUTDOWN] Verification runner stopped", logging.Fields{})
			return
		}
	}
}
