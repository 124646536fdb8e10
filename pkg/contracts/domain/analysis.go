package domain

import (
	"time"
)

// AnalysisResult is the KPI document produced by one aggregation pass and
// consumed by external dashboards. Grouped outputs are ordered record
// slices, never maps, so consumers iterate deterministically. Sections are
// pointers: a section skipped because of a statistical degeneracy is absent
// from the marshalled document rather than carrying NaN placeholders.
type AnalysisResult struct {
	GeneratedAt time.Time `json:"generated_at"`
	RunID       string    `json:"run_id,omitempty"`

	RevenueSummary

	Quarterly  *QuarterlyAnalysis `json:"quarterly,omitempty"`
	Categories *CategoryAnalysis  `json:"categories,omitempty"`
	Regions    *RegionAnalysis    `json:"regions,omitempty"`
	Channels   *ChannelAnalysis   `json:"channels,omitempty"`
	Monthly    *MonthlyAnalysis   `json:"monthly,omitempty"`
	Returns    *ReturnAnalysis    `json:"returns,omitempty"`
	StatsTests *StatsTests        `json:"stats_tests,omitempty"`

	// Failures lists KPI computations skipped under the lenient policy,
	// with the degeneracy that stopped each one.
	Failures []KPIFailure `json:"failures,omitempty"`
}

// RevenueSummary holds the headline KPIs. It is embedded so its fields
// marshal at the top level of the result document.
type RevenueSummary struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalOrders   int     `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// QuarterRevenue is one quarter's total revenue.
type QuarterRevenue struct {
	Quarter int     `json:"quarter"`
	Revenue float64 `json:"revenue"`
}

// MonthRevenue is one month's total revenue.
type MonthRevenue struct {
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
}

// QuarterlyAnalysis covers quarterly revenue and the Q4-over-Q3 growth KPI.
type QuarterlyAnalysis struct {
	QuarterlyRevenue []QuarterRevenue `json:"quarterly_revenue"`
	Q3Revenue        float64          `json:"q3_revenue"`
	Q4Revenue        float64          `json:"q4_revenue"`
	Q4VsQ3GrowthPct  float64          `json:"q4_vs_q3_growth_pct"`
	Q4MonthlyRevenue []MonthRevenue   `json:"q4_monthly_revenue"`
}

// CategoryMetrics is one category's aggregate block.
type CategoryMetrics struct {
	Category        string  `json:"category"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalOrders     int     `json:"total_orders"`
	AvgOrderValue   float64 `json:"avg_order_value"`
	AvgQuantity     float64 `json:"avg_quantity"`
	RevenueSharePct float64 `json:"revenue_share_pct"`
}

// CategoryAnalysis lists all categories descending by revenue plus the
// top-3 subset.
type CategoryAnalysis struct {
	AllCategories  []CategoryMetrics `json:"all_categories"`
	Top3Categories []CategoryMetrics `json:"top3_categories"`
}

// RegionMetrics is one region's aggregate block.
type RegionMetrics struct {
	Region       string  `json:"region"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalOrders  int     `json:"total_orders"`
}

// RegionAnalysis lists regions descending by revenue.
type RegionAnalysis struct {
	RegionRevenue []RegionMetrics `json:"region_revenue"`
}

// ChannelMetrics is one sales channel's aggregate block.
type ChannelMetrics struct {
	Channel      string  `json:"channel"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalOrders  int     `json:"total_orders"`
	SharePct     float64 `json:"share_pct"`
}

// ChannelAnalysis lists channels descending by revenue.
type ChannelAnalysis struct {
	ChannelRevenue []ChannelMetrics `json:"channel_revenue"`
}

// MonthMetrics is one month's trend block. MoMGrowthPct is nil for the
// first chronological month, which has no prior month to compare against;
// it marshals as JSON null.
type MonthMetrics struct {
	Month        int      `json:"month"`
	MonthName    string   `json:"month_name"`
	Revenue      float64  `json:"revenue"`
	Orders       int      `json:"orders"`
	MoMGrowthPct *float64 `json:"mom_growth_pct"`
}

// MonthlyAnalysis lists months ascending with month-over-month growth.
type MonthlyAnalysis struct {
	MonthlyTrend []MonthMetrics `json:"monthly_trend"`
}

// CategoryReturnRate is one category's return-rate block, computed over the
// all-rows table.
type CategoryReturnRate struct {
	Category      string  `json:"category"`
	Returns       int     `json:"returns"`
	Total         int     `json:"total"`
	ReturnRatePct float64 `json:"return_rate_pct"`
}

// ReturnAnalysis covers overall and per-category return rates.
type ReturnAnalysis struct {
	OverallReturnRatePct float64              `json:"overall_return_rate_pct"`
	ByCategory           []CategoryReturnRate `json:"by_category"`
}

// StatsTests reports the Q4-versus-rest significance test.
type StatsTests struct {
	TStatistic  float64 `json:"t_statistic"`
	PValue      float64 `json:"p_value"`
	CohensD     float64 `json:"cohens_d"`
	Significant bool    `json:"significant"`
}

// KPIFailure records a KPI skipped by the lenient aggregation policy.
type KPIFailure struct {
	KPI   string `json:"kpi"`
	Error string `json:"error"`
}
