package cleaning

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "salespipe/internal/errors"
	"salespipe/internal/stats"
	"salespipe/pkg/contracts/domain"
)

// DefaultOutlierPercentile caps revenue at the 99.9th percentile.
const DefaultOutlierPercentile = 0.999

// Cleaner applies the ordered repair and filter pipeline to a merged
// sales table.
type Cleaner struct {
	percentile float64
	logger     *slog.Logger
}

// Result holds the two table lineages a cleaning run produces plus the
// per-step audit report.
type Result struct {
	// Clean excludes returns and carries derived calendar fields. Basis
	// for every revenue KPI.
	Clean []domain.SalesRecord

	// AllRows keeps returned transactions and rows above the outlier
	// threshold. Basis for return-rate KPIs only.
	AllRows []domain.SalesRecord

	Report *Report
}

// NewCleaner builds a cleaner that caps revenue at the given percentile.
func NewCleaner(percentile float64, logger *slog.Logger) (*Cleaner, error) {
	if percentile <= 0 || percentile >= 1 {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("outlier percentile %v is outside (0, 1)", percentile), nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{percentile: percentile, logger: logger}, nil
}

// Run cleans the merged table. Every defect is absorbed and counted:
// rows are dropped or repaired, never failed on. The input slice is
// left untouched.
func (c *Cleaner) Run(ctx context.Context, merged []domain.SalesRecord) *Result {
	report := &Report{InitialRows: len(merged)}
	c.logger.InfoContext(ctx, "cleaning merged table", "rows", len(merged))

	dated := c.dropNullDates(ctx, merged, report)
	imputed := c.imputeRevenue(ctx, dated, report)
	capped := c.filterOutliers(ctx, imputed, report)
	deduped, dupes := dedupeKeepFirst(capped)
	report.DuplicatesDropped = dupes
	c.logger.InfoContext(ctx, "dropped duplicate transaction ids",
		"dropped", dupes, "remaining", len(deduped))

	// The all-rows lineage forks before the outlier filter, so the
	// return-rate base counts every dated, deduplicated transaction.
	allRows, allDupes := dedupeKeepFirst(imputed)
	report.AllRowsDuplicates = allDupes

	clean := c.excludeReturns(ctx, deduped, report)
	for i := range clean {
		clean[i].ComputeDerived()
	}

	report.CleanRows = len(clean)
	report.AllRowsCount = len(allRows)
	c.logger.InfoContext(ctx, "cleaning complete",
		"clean_rows", len(clean),
		"all_rows", len(allRows),
		"removed", report.InitialRows-len(clean),
		"warnings", len(report.Warnings),
	)

	return &Result{Clean: clean, AllRows: allRows, Report: report}
}

// dropNullDates removes rows whose date failed to parse upstream.
func (c *Cleaner) dropNullDates(ctx context.Context, records []domain.SalesRecord, report *Report) []domain.SalesRecord {
	kept := make([]domain.SalesRecord, 0, len(records))
	for _, record := range records {
		if record.HasDate() {
			kept = append(kept, record)
		}
	}
	report.NullDatesDropped = len(records) - len(kept)
	c.logger.InfoContext(ctx, "dropped null dates",
		"dropped", report.NullDatesDropped, "remaining", len(kept))
	return kept
}

// imputeRevenue fills null revenue with the median revenue of the same
// category, computed over the date-filtered table before any later
// filter runs. Categories with no revenue values at all cannot be
// imputed; those rows stay null and are surfaced as warnings.
func (c *Cleaner) imputeRevenue(ctx context.Context, records []domain.SalesRecord, report *Report) []domain.SalesRecord {
	byCategory := make(map[string][]float64)
	for _, record := range records {
		if record.HasRevenue() {
			byCategory[record.Category] = append(byCategory[record.Category], *record.Revenue)
		}
	}

	out := make([]domain.SalesRecord, len(records))
	copy(out, records)

	medians := make(map[string]float64)
	unfilled := make(map[string]int)
	for i := range out {
		if out[i].HasRevenue() {
			continue
		}
		category := out[i].Category
		median, ok := medians[category]
		if !ok {
			values := byCategory[category]
			if len(values) == 0 {
				unfilled[category]++
				continue
			}
			median, _ = stats.Median(values)
			medians[category] = median
		}
		value := median
		out[i].Revenue = &value
		report.RevenueImputed++
	}

	for category, count := range unfilled {
		report.RevenueUnfilled += count
		report.warnf("category %q has no revenue values to impute from; %d rows left null", category, count)
	}
	c.logger.InfoContext(ctx, "imputed missing revenue",
		"filled", report.RevenueImputed, "unfilled", report.RevenueUnfilled)
	return out
}

// filterOutliers drops rows with revenue strictly above the configured
// percentile of the current table. Null revenue is never above the
// threshold. The threshold is recomputed each run from the data.
func (c *Cleaner) filterOutliers(ctx context.Context, records []domain.SalesRecord, report *Report) []domain.SalesRecord {
	values := make([]float64, 0, len(records))
	for _, record := range records {
		if record.HasRevenue() {
			values = append(values, *record.Revenue)
		}
	}
	if len(values) == 0 {
		report.warnf("no revenue values in table; outlier filter skipped")
		c.logger.WarnContext(ctx, "outlier filter skipped", "reason", "no revenue values")
		return records
	}

	threshold, err := stats.Percentile(values, c.percentile)
	if err != nil {
		report.warnf("outlier threshold unavailable: %v", err)
		c.logger.WarnContext(ctx, "outlier filter skipped", "error", err)
		return records
	}

	kept := make([]domain.SalesRecord, 0, len(records))
	for _, record := range records {
		if record.HasRevenue() && *record.Revenue > threshold {
			continue
		}
		kept = append(kept, record)
	}
	report.OutlierThreshold = &threshold
	report.OutliersDropped = len(records) - len(kept)
	c.logger.InfoContext(ctx, "removed revenue outliers",
		"threshold", threshold,
		"percentile", c.percentile,
		"dropped", report.OutliersDropped,
	)
	return kept
}

// excludeReturns splits returned transactions out of the clean lineage.
func (c *Cleaner) excludeReturns(ctx context.Context, records []domain.SalesRecord, report *Report) []domain.SalesRecord {
	kept := make([]domain.SalesRecord, 0, len(records))
	for _, record := range records {
		if !record.IsReturned {
			kept = append(kept, record)
		}
	}
	report.ReturnsExcluded = len(records) - len(kept)
	c.logger.InfoContext(ctx, "excluded returned transactions",
		"excluded", report.ReturnsExcluded, "remaining", len(kept))
	return kept
}

// dedupeKeepFirst drops rows whose transaction ID was already seen,
// keeping the first occurrence. Stable with respect to merge order.
func dedupeKeepFirst(records []domain.SalesRecord) ([]domain.SalesRecord, int) {
	seen := make(map[string]struct{}, len(records))
	kept := make([]domain.SalesRecord, 0, len(records))
	for _, record := range records {
		if _, dup := seen[record.TransactionID]; dup {
			continue
		}
		seen[record.TransactionID] = struct{}{}
		kept = append(kept, record)
	}
	return kept, len(records) - len(kept)
}
