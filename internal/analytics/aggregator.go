package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	apperrors "salespipe/internal/errors"
	"salespipe/pkg/contracts/domain"
)

// DefaultSignificanceLevel classifies the Q4 test at p < 0.05.
const DefaultSignificanceLevel = 0.05

// Aggregator computes KPIs over the clean and all-rows tables. It holds
// no table state; Analyze is a pure function of its inputs.
type Aggregator struct {
	significance float64
	failFast     bool
	logger       *slog.Logger
}

// NewAggregator builds an aggregator. With failFast set, the first KPI
// degeneracy aborts the whole analysis; otherwise failed KPIs are
// skipped and recorded while the rest of the document is produced.
func NewAggregator(significance float64, failFast bool, logger *slog.Logger) (*Aggregator, error) {
	if significance <= 0 || significance >= 1 {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("significance level %v is outside (0, 1)", significance), nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{significance: significance, failFast: failFast, logger: logger}, nil
}

// Analyze produces the KPI result document. Revenue KPIs read the clean
// table; return rates read the all-rows table, which still includes
// returned transactions.
func (a *Aggregator) Analyze(ctx context.Context, clean, allRows []domain.SalesRecord) (*domain.AnalysisResult, error) {
	result := &domain.AnalysisResult{GeneratedAt: time.Now().UTC()}

	fail := func(kpi string, err error) error {
		if a.failFast {
			return err
		}
		a.logger.WarnContext(ctx, "kpi computation skipped",
			"kpi", kpi, "error", err.Error())
		result.Failures = append(result.Failures, domain.KPIFailure{KPI: kpi, Error: err.Error()})
		return nil
	}

	if summary, err := a.RevenueSummary(clean); err != nil {
		if abort := fail("revenue_summary", err); abort != nil {
			return nil, abort
		}
	} else {
		result.RevenueSummary = summary
	}

	if quarterly, err := a.QuarterlyAnalysis(clean); err != nil {
		if abort := fail("quarterly", err); abort != nil {
			return nil, abort
		}
	} else {
		result.Quarterly = quarterly
	}

	if categories, err := a.CategoryAnalysis(clean); err != nil {
		if abort := fail("categories", err); abort != nil {
			return nil, abort
		}
	} else {
		result.Categories = categories
	}

	if regions, err := a.RegionAnalysis(clean); err != nil {
		if abort := fail("regions", err); abort != nil {
			return nil, abort
		}
	} else {
		result.Regions = regions
	}

	if channels, err := a.ChannelAnalysis(clean); err != nil {
		if abort := fail("channels", err); abort != nil {
			return nil, abort
		}
	} else {
		result.Channels = channels
	}

	if monthly, err := a.MonthlyTrend(clean); err != nil {
		if abort := fail("monthly", err); abort != nil {
			return nil, abort
		}
	} else {
		result.Monthly = monthly
	}

	if returns, err := a.ReturnRate(allRows); err != nil {
		if abort := fail("returns", err); abort != nil {
			return nil, abort
		}
	} else {
		result.Returns = returns
	}

	if tests, err := a.StatisticalTests(clean); err != nil {
		if abort := fail("stats_tests", err); abort != nil {
			return nil, abort
		}
	} else {
		result.StatsTests = tests
	}

	a.logger.InfoContext(ctx, "analysis complete",
		"clean_rows", len(clean),
		"all_rows", len(allRows),
		"failed_kpis", len(result.Failures),
	)
	return result, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
func round6(v float64) float64 { return math.Round(v*1000000) / 1000000 }

// nonNullRevenues collects the revenue values present on the given
// rows. Rows that survived cleaning with null revenue contribute to
// counts but never to sums or means.
func nonNullRevenues(records []domain.SalesRecord) []float64 {
	values := make([]float64, 0, len(records))
	for _, record := range records {
		if record.HasRevenue() {
			values = append(values, *record.Revenue)
		}
	}
	return values
}
