package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespipe/internal/analytics"
	"salespipe/internal/cleaning"
	"salespipe/internal/config"
	apperrors "salespipe/internal/errors"
	"salespipe/internal/exporter"
	"salespipe/internal/infrastructure"
	"salespipe/internal/sources"
	"salespipe/pkg/contracts/domain"
)

// Runner executes one batch pass over the configured sources.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	tracer trace.Tracer

	adapters   []*sources.Adapter
	cleaner    *cleaning.Cleaner
	aggregator *analytics.Aggregator
	masterCSV  *exporter.CSVWriter
	results    *exporter.ResultsWriter
	workbook   *exporter.WorkbookWriter
}

// NewRunner wires the stages from configuration. A nil tracer falls back
// to the global provider, which is a no-op unless tracing was initialized.
func NewRunner(cfg *config.Config, logger *slog.Logger, tracer trace.Tracer) (*Runner, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("pipeline requires a configuration", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(infrastructure.TracerName)
	}

	specs := sources.BuiltinSpecs()
	adapters := make([]*sources.Adapter, 0, len(specs))
	for _, spec := range specs {
		adapter, err := sources.NewAdapter(spec, logger)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	cleaner, err := cleaning.NewCleaner(cfg.Cleaning.OutlierPercentile, logger)
	if err != nil {
		return nil, err
	}
	aggregator, err := analytics.NewAggregator(cfg.Analytics.SignificanceLevel, cfg.Analytics.FailFast, logger)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:        cfg,
		logger:     logger,
		tracer:     tracer,
		adapters:   adapters,
		cleaner:    cleaner,
		aggregator: aggregator,
		masterCSV:  exporter.NewCSVWriter(cfg.Output.CSVBom, logger),
		results:    exporter.NewResultsWriter(logger),
		workbook:   exporter.NewWorkbookWriter(logger),
	}, nil
}

// Run executes one full pass and returns the run summary. On a stage
// error the summary comes back alongside the error with the failed stage
// marked and the stages after it still pending.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()

	// Every log line of the run carries the run ID via the trace handler.
	ctx = infrastructure.WithTraceID(ctx, runID)
	ctx, span := r.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	r.logger.InfoContext(ctx, "pipeline run started",
		slog.String("input_dir", r.cfg.Input.Dir),
		slog.String("output_dir", r.cfg.Output.Dir))

	summary := newSummary(runID)

	var tables [][]domain.SalesRecord
	if err := r.runStage(ctx, summary, StageIDLoad, func(ctx context.Context, state *StageState) error {
		for _, adapter := range r.adapters {
			name := adapter.Spec().Name
			path, err := r.sourcePath(name)
			if err != nil {
				return err
			}
			records, err := adapter.Load(ctx, path)
			if err != nil {
				return err
			}
			tables = append(tables, records)
			summary.Sources = append(summary.Sources, SourceRows{Source: name, Rows: len(records)})
			state.RowsOut += len(records)
		}
		return nil
	}); err != nil {
		return r.abort(ctx, summary, err)
	}

	var merged []domain.SalesRecord
	if err := r.runStage(ctx, summary, StageIDMerge, func(ctx context.Context, state *StageState) error {
		merged = sources.Merge(tables...)
		state.RowsIn = len(merged)
		state.RowsOut = len(merged)
		summary.MergedRows = len(merged)
		return nil
	}); err != nil {
		return r.abort(ctx, summary, err)
	}

	var cleaned *cleaning.Result
	if err := r.runStage(ctx, summary, StageIDClean, func(ctx context.Context, state *StageState) error {
		state.RowsIn = len(merged)
		cleaned = r.cleaner.Run(ctx, merged)
		state.RowsOut = len(cleaned.Clean)
		summary.Cleaning = cleaned.Report
		return nil
	}); err != nil {
		return r.abort(ctx, summary, err)
	}

	var analysis *domain.AnalysisResult
	if err := r.runStage(ctx, summary, StageIDAggregate, func(ctx context.Context, state *StageState) error {
		state.RowsIn = len(cleaned.Clean)
		result, err := r.aggregator.Analyze(ctx, cleaned.Clean, cleaned.AllRows)
		if err != nil {
			return err
		}
		result.RunID = summary.RunID
		analysis = result
		for _, failure := range analysis.Failures {
			summary.FailedKPIs = append(summary.FailedKPIs, failure.KPI)
		}
		return nil
	}); err != nil {
		return r.abort(ctx, summary, err)
	}

	if err := r.runStage(ctx, summary, StageIDExport, func(ctx context.Context, state *StageState) error {
		state.RowsIn = len(cleaned.Clean)

		csvPath := r.cfg.CleanCSVPath()
		if err := r.masterCSV.WriteMaster(ctx, csvPath, cleaned.Clean); err != nil {
			return err
		}
		summary.Outputs = append(summary.Outputs, csvPath)

		jsonPath := r.cfg.ResultsJSONPath()
		if err := r.results.WriteResults(ctx, jsonPath, analysis); err != nil {
			return err
		}
		summary.Outputs = append(summary.Outputs, jsonPath)

		if r.cfg.Output.WriteWorkbook {
			workbookPath := r.cfg.WorkbookPath()
			if err := r.workbook.WriteWorkbook(ctx, workbookPath, analysis); err != nil {
				return err
			}
			summary.Outputs = append(summary.Outputs, workbookPath)
		}

		state.RowsOut = len(cleaned.Clean)
		return nil
	}); err != nil {
		return r.abort(ctx, summary, err)
	}

	summary.complete()
	r.logger.InfoContext(ctx, "pipeline run complete",
		slog.String("run_id", summary.RunID),
		slog.Duration("duration", summary.Duration()),
		slog.Int("merged_rows", summary.MergedRows),
		slog.Int("clean_rows", cleaned.Report.CleanRows),
		slog.Int("all_rows", cleaned.Report.AllRowsCount),
		slog.Int("warnings", len(cleaned.Report.Warnings)),
		slog.Int("failed_kpis", len(summary.FailedKPIs)),
		slog.Any("outputs", summary.Outputs))
	return summary, nil
}

// runStage executes one stage inside its own span, keeping the stage
// state and span status in step with the outcome.
func (r *Runner) runStage(ctx context.Context, summary *Summary, id string, fn func(context.Context, *StageState) error) error {
	state := summary.Stage(id)

	ctx, span := r.tracer.Start(ctx, "pipeline.stage."+id,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stage.id", id),
			attribute.String("run.id", summary.RunID)))
	defer span.End()

	state.start()
	r.logger.InfoContext(ctx, "stage started", slog.String("stage", id))

	if err := fn(ctx, state); err != nil {
		state.fail(err)
		infrastructure.RecordError(ctx, err)
		r.logger.ErrorContext(ctx, "stage failed",
			slog.String("stage", id),
			slog.Duration("duration", state.Duration()),
			slog.String("error", err.Error()))
		return err
	}

	state.complete()
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"rows.in":  state.RowsIn,
		"rows.out": state.RowsOut,
	})
	r.logger.InfoContext(ctx, "stage completed",
		slog.String("stage", id),
		slog.Duration("duration", state.Duration()),
		slog.Int("rows_in", state.RowsIn),
		slog.Int("rows_out", state.RowsOut))
	return nil
}

func (r *Runner) abort(ctx context.Context, summary *Summary, err error) (*Summary, error) {
	summary.fail()
	infrastructure.RecordError(ctx, err)
	r.logger.ErrorContext(ctx, "pipeline run failed",
		slog.String("run_id", summary.RunID),
		slog.Duration("duration", summary.Duration()),
		slog.String("error", err.Error()))
	return summary, err
}

func (r *Runner) sourcePath(name string) (string, error) {
	switch name {
	case sources.Online().Name:
		return r.cfg.OnlinePath(), nil
	case sources.Retail().Name:
		return r.cfg.RetailPath(), nil
	case sources.Wholesale().Name:
		return r.cfg.WholesalePath(), nil
	default:
		return "", apperrors.NewConfigError(fmt.Sprintf("no input path configured for source %q", name), nil)
	}
}
