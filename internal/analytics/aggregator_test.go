package analytics

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespipe/internal/errors"
	"salespipe/pkg/contracts/domain"
)

func newTestAggregator(t *testing.T, failFast bool) *Aggregator {
	t.Helper()
	aggregator, err := NewAggregator(DefaultSignificanceLevel, failFast,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return aggregator
}

// cleanRow builds a clean-table record with derived fields populated,
// dated to the 15th of the given month in 2024.
func cleanRow(id string, month int, category, region, channel string, revenue float64) domain.SalesRecord {
	record := domain.SalesRecord{
		TransactionID: id,
		Date:          time.Date(2024, time.Month(month), 15, 0, 0, 0, 0, time.UTC),
		ProductName:   "Widget",
		Category:      category,
		Region:        region,
		Channel:       channel,
		Quantity:      2,
		UnitPrice:     revenue / 2,
		Revenue:       &revenue,
	}
	record.ComputeDerived()
	return record
}

func TestNewAggregator_RejectsBadSignificance(t *testing.T) {
	for _, level := range []float64{0, 1, -0.1, 1.5} {
		_, err := NewAggregator(level, false, nil)
		assert.Error(t, err, "significance %v", level)
	}
}

func TestRevenueSummary(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 100),
		cleanRow("T2", 2, "Electronics", "North", "Online", 200),
		cleanRow("T3", 3, "Books", "South", "Retail", 300),
	}

	summary, err := newTestAggregator(t, false).RevenueSummary(clean)
	require.NoError(t, err)

	assert.InDelta(t, 600.0, summary.TotalRevenue, 1e-9)
	assert.Equal(t, 3, summary.TotalOrders)
	assert.InDelta(t, 200.0, summary.AvgOrderValue, 1e-9)
}

func TestRevenueSummary_NullRevenueCountsOrdersOnly(t *testing.T) {
	nullRow := cleanRow("T4", 4, "Gifts", "North", "Online", 0)
	nullRow.Revenue = nil
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 100),
		cleanRow("T2", 2, "Electronics", "North", "Online", 300),
		nullRow,
	}

	summary, err := newTestAggregator(t, false).RevenueSummary(clean)
	require.NoError(t, err)

	assert.InDelta(t, 400.0, summary.TotalRevenue, 1e-9)
	assert.Equal(t, 3, summary.TotalOrders)
	// Mean over present values only, matching dataframe null handling.
	assert.InDelta(t, 200.0, summary.AvgOrderValue, 1e-9)
}

func TestRevenueSummary_EmptyTable(t *testing.T) {
	_, err := newTestAggregator(t, false).RevenueSummary(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEmptyTable)
	assert.Equal(t, apperrors.ErrTypeStatistics, apperrors.GetErrorType(err))
}

func TestQuarterlyAnalysis(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 7, "Electronics", "North", "Online", 400000),
		cleanRow("T2", 8, "Electronics", "North", "Online", 600000),
		cleanRow("T3", 10, "Electronics", "North", "Online", 500000),
		cleanRow("T4", 11, "Electronics", "North", "Online", 400000),
		cleanRow("T5", 12, "Electronics", "North", "Online", 330000),
	}

	quarterly, err := newTestAggregator(t, false).QuarterlyAnalysis(clean)
	require.NoError(t, err)

	assert.InDelta(t, 1000000.0, quarterly.Q3Revenue, 1e-6)
	assert.InDelta(t, 1230000.0, quarterly.Q4Revenue, 1e-6)
	assert.InDelta(t, 23.0, quarterly.Q4VsQ3GrowthPct, 0.01)

	require.Len(t, quarterly.QuarterlyRevenue, 2)
	assert.Equal(t, 3, quarterly.QuarterlyRevenue[0].Quarter)
	assert.Equal(t, 4, quarterly.QuarterlyRevenue[1].Quarter)

	require.Len(t, quarterly.Q4MonthlyRevenue, 3)
	assert.Equal(t, 10, quarterly.Q4MonthlyRevenue[0].Month)
	assert.InDelta(t, 500000.0, quarterly.Q4MonthlyRevenue[0].Revenue, 1e-6)
	assert.Equal(t, 12, quarterly.Q4MonthlyRevenue[2].Month)
}

func TestQuarterlyAnalysis_ZeroQ3(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 10, "Electronics", "North", "Online", 100),
	}

	_, err := newTestAggregator(t, false).QuarterlyAnalysis(clean)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrZeroDenominator)
}

func TestCategoryAnalysis(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 250),
		cleanRow("T2", 2, "Electronics", "North", "Online", 350),
		cleanRow("T3", 3, "Books", "South", "Retail", 300),
		cleanRow("T4", 4, "Toys", "East", "Online", 100),
	}

	categories, err := newTestAggregator(t, false).CategoryAnalysis(clean)
	require.NoError(t, err)

	require.Len(t, categories.AllCategories, 3)
	assert.Equal(t, "Electronics", categories.AllCategories[0].Category)
	assert.InDelta(t, 600.0, categories.AllCategories[0].TotalRevenue, 1e-9)
	assert.Equal(t, 2, categories.AllCategories[0].TotalOrders)
	assert.InDelta(t, 300.0, categories.AllCategories[0].AvgOrderValue, 1e-9)
	assert.InDelta(t, 2.0, categories.AllCategories[0].AvgQuantity, 1e-9)
	assert.InDelta(t, 60.0, categories.AllCategories[0].RevenueSharePct, 1e-9)

	assert.Equal(t, "Books", categories.AllCategories[1].Category)
	assert.Equal(t, "Toys", categories.AllCategories[2].Category)
	assert.Len(t, categories.Top3Categories, 3)
}

func TestCategoryAnalysis_SharesSumToHundred(t *testing.T) {
	// Equal thirds round to 33.3 each; the sum may be off by rounding
	// slack but never more than half a point.
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 100),
		cleanRow("T2", 2, "Books", "North", "Online", 100),
		cleanRow("T3", 3, "Toys", "North", "Online", 100),
	}

	categories, err := newTestAggregator(t, false).CategoryAnalysis(clean)
	require.NoError(t, err)

	var sum float64
	for _, category := range categories.AllCategories {
		sum += category.RevenueSharePct
	}
	assert.InDelta(t, 100.0, sum, 0.5)
}

func TestCategoryAnalysis_Top3OfMany(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 400),
		cleanRow("T2", 2, "Books", "North", "Online", 300),
		cleanRow("T3", 3, "Toys", "North", "Online", 200),
		cleanRow("T4", 4, "Garden", "North", "Online", 100),
	}

	categories, err := newTestAggregator(t, false).CategoryAnalysis(clean)
	require.NoError(t, err)

	assert.Len(t, categories.AllCategories, 4)
	require.Len(t, categories.Top3Categories, 3)
	assert.Equal(t, "Electronics", categories.Top3Categories[0].Category)
	assert.Equal(t, "Toys", categories.Top3Categories[2].Category)
}

func TestRegionAnalysis_SortsByRevenueThenName(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "West", "Online", 100),
		cleanRow("T2", 2, "Electronics", "East", "Online", 100),
		cleanRow("T3", 3, "Electronics", "North", "Online", 500),
	}

	regions, err := newTestAggregator(t, false).RegionAnalysis(clean)
	require.NoError(t, err)

	require.Len(t, regions.RegionRevenue, 3)
	assert.Equal(t, "North", regions.RegionRevenue[0].Region)
	// Equal revenue ties break alphabetically for determinism.
	assert.Equal(t, "East", regions.RegionRevenue[1].Region)
	assert.Equal(t, "West", regions.RegionRevenue[2].Region)
}

func TestChannelAnalysis_CoverageIdentity(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 120.55),
		cleanRow("T2", 2, "Electronics", "North", "Retail", 301.10),
		cleanRow("T3", 3, "Books", "South", "Retail", 78.35),
		cleanRow("T4", 4, "Books", "South", "Wholesale", 1500.00),
	}
	aggregator := newTestAggregator(t, false)

	summary, err := aggregator.RevenueSummary(clean)
	require.NoError(t, err)
	channels, err := aggregator.ChannelAnalysis(clean)
	require.NoError(t, err)

	var channelTotal float64
	for _, channel := range channels.ChannelRevenue {
		channelTotal += channel.TotalRevenue
	}
	assert.InDelta(t, summary.TotalRevenue, channelTotal, 0.05)

	assert.Equal(t, "Wholesale", channels.ChannelRevenue[0].Channel)
	var shareSum float64
	for _, channel := range channels.ChannelRevenue {
		shareSum += channel.SharePct
	}
	assert.InDelta(t, 100.0, shareSum, 0.5)
}

func TestMonthlyTrend(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 100),
		cleanRow("T2", 2, "Electronics", "North", "Online", 110),
		cleanRow("T3", 3, "Electronics", "North", "Online", 99),
	}

	monthly, err := newTestAggregator(t, false).MonthlyTrend(clean)
	require.NoError(t, err)
	require.Len(t, monthly.MonthlyTrend, 3)

	january := monthly.MonthlyTrend[0]
	assert.Equal(t, 1, january.Month)
	assert.Equal(t, "Jan", january.MonthName)
	assert.InDelta(t, 100.0, january.Revenue, 1e-9)
	assert.Equal(t, 1, january.Orders)
	assert.Nil(t, january.MoMGrowthPct, "first month has no prior month")

	february := monthly.MonthlyTrend[1]
	require.NotNil(t, february.MoMGrowthPct)
	assert.InDelta(t, 10.0, *february.MoMGrowthPct, 1e-9)

	march := monthly.MonthlyTrend[2]
	require.NotNil(t, march.MoMGrowthPct)
	assert.InDelta(t, -10.0, *march.MoMGrowthPct, 1e-9)
}

func TestMonthlyTrend_AtMostTwelveMonths(t *testing.T) {
	var clean []domain.SalesRecord
	for month := 1; month <= 12; month++ {
		clean = append(clean, cleanRow("T"+time.Month(month).String(), month,
			"Electronics", "North", "Online", float64(100+month)))
	}

	monthly, err := newTestAggregator(t, false).MonthlyTrend(clean)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(monthly.MonthlyTrend), 12)
	var undefined int
	for _, month := range monthly.MonthlyTrend {
		if month.MoMGrowthPct == nil {
			undefined++
		}
	}
	assert.Equal(t, 1, undefined, "growth undefined exactly for the first month")
}

func TestMonthlyTrend_ZeroPreviousMonth(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 0),
		cleanRow("T2", 2, "Electronics", "North", "Online", 100),
	}

	_, err := newTestAggregator(t, false).MonthlyTrend(clean)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrZeroDenominator)
}

func TestReturnRate(t *testing.T) {
	allRows := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 100),
		cleanRow("T2", 2, "Electronics", "North", "Online", 100),
		cleanRow("T3", 3, "Electronics", "North", "Online", 100),
		cleanRow("T4", 4, "Electronics", "North", "Online", 100),
		cleanRow("T5", 5, "Books", "North", "Online", 100),
		cleanRow("T6", 6, "Books", "North", "Online", 100),
		cleanRow("T7", 7, "Books", "North", "Online", 100),
		cleanRow("T8", 8, "Books", "North", "Online", 100),
	}
	allRows[0].IsReturned = true

	returns, err := newTestAggregator(t, false).ReturnRate(allRows)
	require.NoError(t, err)

	assert.InDelta(t, 12.5, returns.OverallReturnRatePct, 1e-9)
	require.Len(t, returns.ByCategory, 2)
	assert.Equal(t, "Books", returns.ByCategory[0].Category)
	assert.Equal(t, 0, returns.ByCategory[0].Returns)
	assert.InDelta(t, 0.0, returns.ByCategory[0].ReturnRatePct, 1e-9)
	assert.Equal(t, "Electronics", returns.ByCategory[1].Category)
	assert.Equal(t, 1, returns.ByCategory[1].Returns)
	assert.Equal(t, 4, returns.ByCategory[1].Total)
	assert.InDelta(t, 25.0, returns.ByCategory[1].ReturnRatePct, 1e-9)
}

func TestReturnRate_EmptyTable(t *testing.T) {
	_, err := newTestAggregator(t, false).ReturnRate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEmptyTable)
}

func TestStatisticalTests(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 10, "Electronics", "North", "Online", 2),
		cleanRow("T2", 10, "Electronics", "North", "Online", 4),
		cleanRow("T3", 11, "Electronics", "North", "Online", 6),
		cleanRow("T4", 12, "Electronics", "North", "Online", 8),
		cleanRow("T5", 1, "Electronics", "North", "Online", 1),
		cleanRow("T6", 2, "Electronics", "North", "Online", 2),
		cleanRow("T7", 3, "Electronics", "North", "Online", 3),
		cleanRow("T8", 4, "Electronics", "North", "Online", 4),
	}

	tests, err := newTestAggregator(t, false).StatisticalTests(clean)
	require.NoError(t, err)

	assert.InDelta(t, 1.7321, tests.TStatistic, 1e-9)
	assert.InDelta(t, 0.133975, tests.PValue, 1e-9)
	assert.InDelta(t, 1.2247, tests.CohensD, 1e-9)
	assert.False(t, tests.Significant)
}

func TestStatisticalTests_InsufficientSample(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 10, "Electronics", "North", "Online", 100),
		cleanRow("T2", 1, "Electronics", "North", "Online", 90),
		cleanRow("T3", 2, "Electronics", "North", "Online", 95),
	}

	_, err := newTestAggregator(t, false).StatisticalTests(clean)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientSample)
	assert.True(t, apperrors.IsDegeneracy(err))
}

func TestAnalyze_LenientRecordsFailures(t *testing.T) {
	// Only Q1 data: quarterly growth and the Q4 test cannot run, but
	// the rest of the document must still be produced.
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 100),
		cleanRow("T2", 2, "Books", "South", "Retail", 200),
	}

	result, err := newTestAggregator(t, false).Analyze(context.Background(), clean, clean)
	require.NoError(t, err)
	require.NotNil(t, result)

	failed := make(map[string]bool)
	for _, failure := range result.Failures {
		failed[failure.KPI] = true
	}
	assert.True(t, failed["quarterly"])
	assert.True(t, failed["stats_tests"])

	assert.Nil(t, result.Quarterly)
	assert.Nil(t, result.StatsTests)
	assert.NotNil(t, result.Categories)
	assert.NotNil(t, result.Regions)
	assert.NotNil(t, result.Channels)
	assert.NotNil(t, result.Monthly)
	assert.NotNil(t, result.Returns)
	assert.InDelta(t, 300.0, result.TotalRevenue, 1e-9)
}

func TestAnalyze_StrictAbortsOnFirstFailure(t *testing.T) {
	clean := []domain.SalesRecord{
		cleanRow("T1", 1, "Electronics", "North", "Online", 100),
	}

	result, err := newTestAggregator(t, true).Analyze(context.Background(), clean, clean)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrZeroDenominator)
}

func TestAnalyze_EmptyTables(t *testing.T) {
	result, err := newTestAggregator(t, false).Analyze(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	failed := make(map[string]bool)
	for _, failure := range result.Failures {
		failed[failure.KPI] = true
	}
	for _, kpi := range []string{"revenue_summary", "quarterly", "categories", "channels", "returns", "stats_tests"} {
		assert.True(t, failed[kpi], "expected %s to fail on empty input", kpi)
	}

	// Group-only sections have no denominators and stay present, empty.
	require.NotNil(t, result.Regions)
	assert.Empty(t, result.Regions.RegionRevenue)
	require.NotNil(t, result.Monthly)
	assert.Empty(t, result.Monthly.MonthlyTrend)
}
