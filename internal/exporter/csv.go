package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salespipe/pkg/contracts/domain"
)

// CSVWriter writes the clean sales table as the master CSV.
type CSVWriter struct {
	bomPrefix bool
	logger    *slog.Logger
}

// NewCSVWriter builds a CSV writer. With bomPrefix set, files start
// with a UTF-8 BOM for Excel compatibility.
func NewCSVWriter(bomPrefix bool, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{bomPrefix: bomPrefix, logger: logger}
}

// WriteOptions configures a raw CSV write.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// MasterHeaders returns the master CSV column order: canonical fields
// first, derived calendar fields after, matching the clean-table shape
// dashboard consumers expect.
func MasterHeaders() []string {
	return []string{
		"transaction_id", "date", "product_name", "category", "region",
		"channel", "quantity", "unit_price", "revenue", "payment_method",
		"customer_id", "discount_pct", "is_returned",
		"year", "month", "quarter", "month_name", "week",
	}
}

// WriteMaster persists the clean table to path, preserving row order.
func (w *CSVWriter) WriteMaster(ctx context.Context, path string, records []domain.SalesRecord) error {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, recordToRow(record))
	}

	if err := w.WriteCSV(path, WriteOptions{
		Headers:   MasterHeaders(),
		Records:   rows,
		BOMPrefix: w.bomPrefix,
	}); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "wrote master dataset",
		"path", path,
		"rows", len(records),
	)
	return nil
}

// WriteCSV writes one CSV file with the given options, creating parent
// directories as needed.
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

// recordToRow renders one clean-table record. Null revenue stays an
// empty cell; an unfillable category surfaced a warning upstream and
// the gap belongs in the output.
func recordToRow(record domain.SalesRecord) []string {
	revenue := ""
	if record.HasRevenue() {
		revenue = formatFloat(*record.Revenue)
	}
	return []string{
		record.TransactionID,
		record.Date.Format("2006-01-02"),
		record.ProductName,
		record.Category,
		record.Region,
		record.Channel,
		formatInt(record.Quantity),
		formatFloat(record.UnitPrice),
		revenue,
		record.PaymentMethod,
		record.CustomerID,
		formatFloat(record.DiscountPct),
		formatBool(record.IsReturned),
		formatInt(record.Year),
		formatInt(record.Month),
		formatInt(record.Quarter),
		record.MonthName,
		formatInt(record.Week),
	}
}
