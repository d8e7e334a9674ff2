package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"storm-platform/internal/config"
	"storm-platform/internal/repository"
	"storm-platform/internal/services"
	"storm-platform/pkg/database"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	reportsDir := flag.String("reports-dir", "", "Directory containing SPC report CSV files")
	alertsFile := flag.String("alerts-file", "", "NWS alert feed file (GeoJSON FeatureCollection)")
	batchSize := flag.Int("batch-size", 1000, "Number of records to process in each batch")
	flag.Parse()

	if *reportsDir == "" && *alertsFile == "" {
		fmt.Fprintln(os.Stderr, "Nothing to do: provide -reports-dir and/or -alerts-file")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("storm-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting storm data ingestion", logging.Fields{
		"version":     "1.0.0",
		"reports_dir": *reportsDir,
		"alerts_file": *alertsFile,
		"batch_size":  *batchSize,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("storm_ingester")

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
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repositories
	alertRepo := repository.NewAlertRepository(db, logger, metricsCollector)
	reportRepo := repository.NewReportRepository(db, logger, metricsCollector)

	// Initialize service
	ingestionService := services.NewIngestionService(alertRepo, reportRepo, logger, metricsCollector)

	// Ingest storm reports
	if *reportsDir != "" {
		result, err := ingestionService.IngestReportsDirectory(ctx, *reportsDir, *batchSize)
		if err != nil {
			logger.Fatal(ctx, "[INGESTION_ERROR] Report ingestion failed", logging.Fields{
				"reports_dir": *reportsDir,
			}, err)
		}
		printResult("REPORT INGESTION COMPLETE", result)
	}

	// Ingest alert feed
	if *alertsFile != "" {
		result, err := ingestionService.IngestAlertsFile(ctx, *alertsFile)
		if err != nil {
			logger.Fatal(ctx, "[INGESTION_ERROR] Alert ingestion failed", logging.Fields{
				"alerts_file": *alertsFile,
			}, err)
		}
		printResult("ALERT INGESTION COMPLETE", result)
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{})
}

func printResult(title string, result *services.IngestionResult) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Failed Records:     %d\n", result.FailedRecords)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}
}
