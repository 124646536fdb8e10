package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"salespipe/internal/config"
	"salespipe/internal/infrastructure"
	"salespipe/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: probe config.yaml, configs/config.yaml)")
	inputDir := flag.String("input-dir", "", "override the directory holding the three source CSVs")
	outputDir := flag.String("output-dir", "", "override the directory for generated artifacts")
	logLevel := flag.String("log-level", "", "override log level: debug | info | warn | error")
	strict := flag.Bool("strict", false, "abort the run on the first degenerate KPI instead of skipping it")
	workbook := flag.Bool("workbook", false, "also write the dashboard workbook")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("salespipe %s\n", infrastructure.ServiceVersion)
		return
	}

	// Local development keeps SALES_* overrides in a .env file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	applyFlagOverrides(cfg, *inputDir, *outputDir, *logLevel, *strict, *workbook)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration after flag overrides", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer func() {
		_ = infrastructure.CloseLogFile()
	}()

	ctx := context.Background()
	tracing, err := infrastructure.InitializeTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Error("Failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.ValidateInputs(); err != nil {
		logger.Error("Input validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runner, err := pipeline.NewRunner(cfg, logger, tracing.Tracer)
	if err != nil {
		logger.Error("Failed to build pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Pipeline run failed",
			slog.String("run_id", summary.RunID),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Run %s complete in %s: %d clean rows, %d outputs written\n",
		summary.RunID,
		summary.Duration().Round(time.Millisecond),
		summary.Cleaning.CleanRows,
		len(summary.Outputs))
}

// applyFlagOverrides layers command-line values over the resolved config.
// Flags win over both file and environment.
func applyFlagOverrides(cfg *config.Config, inputDir, outputDir, logLevel string, strict, workbook bool) {
	if inputDir != "" {
		cfg.Input.Dir = inputDir
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if strict {
		cfg.Analytics.FailFast = true
	}
	if workbook {
		cfg.Output.WriteWorkbook = true
	}
}
