package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salespipe/pkg/contracts/domain"
)

// ResultsWriter persists the KPI result document as indented JSON.
type ResultsWriter struct {
	logger *slog.Logger
}

// NewResultsWriter builds a results writer.
func NewResultsWriter(logger *slog.Logger) *ResultsWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsWriter{logger: logger}
}

// WriteResults marshals the analysis document to path. Sections that
// failed their degeneracy guards are absent from the document; their
// failure entries are in the failures list instead of NaN placeholders.
func (w *ResultsWriter) WriteResults(ctx context.Context, path string, result *domain.AnalysisResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write analysis results: %w", err)
	}

	w.logger.InfoContext(ctx, "wrote analysis results",
		"path", path,
		"bytes", len(data),
		"failed_kpis", len(result.Failures),
	)
	return nil
}
