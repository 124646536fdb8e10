package analytics

import (
	"sort"

	apperrors "salespipe/internal/errors"
	"salespipe/internal/stats"
	"salespipe/pkg/contracts/domain"
)

// RevenueSummary computes the headline KPIs: total revenue, order count,
// and average order value.
func (a *Aggregator) RevenueSummary(clean []domain.SalesRecord) (domain.RevenueSummary, error) {
	if len(clean) == 0 {
		return domain.RevenueSummary{}, apperrors.NewStatisticsError(
			"revenue summary needs at least one row", apperrors.ErrEmptyTable)
	}
	revenues := nonNullRevenues(clean)
	if len(revenues) == 0 {
		return domain.RevenueSummary{}, apperrors.NewStatisticsError(
			"clean table has no revenue values", apperrors.ErrEmptyTable)
	}

	mean, err := stats.Mean(revenues)
	if err != nil {
		return domain.RevenueSummary{}, apperrors.NewStatisticsError("average order value", err)
	}
	return domain.RevenueSummary{
		TotalRevenue:  round2(stats.Sum(revenues)),
		TotalOrders:   len(clean),
		AvgOrderValue: round2(mean),
	}, nil
}

// QuarterlyAnalysis groups revenue by quarter and computes the Q4 over
// Q3 growth percentage. Q3 revenue sits in a denominator, so a zero
// there fails the whole section rather than emitting infinity.
func (a *Aggregator) QuarterlyAnalysis(clean []domain.SalesRecord) (*domain.QuarterlyAnalysis, error) {
	totals := make(map[int]float64)
	for _, record := range clean {
		if _, seen := totals[record.Quarter]; !seen {
			totals[record.Quarter] = 0
		}
		totals[record.Quarter] += record.RevenueValue()
	}

	quarters := make([]int, 0, len(totals))
	for quarter := range totals {
		quarters = append(quarters, quarter)
	}
	sort.Ints(quarters)

	quarterly := make([]domain.QuarterRevenue, 0, len(quarters))
	for _, quarter := range quarters {
		quarterly = append(quarterly, domain.QuarterRevenue{
			Quarter: quarter,
			Revenue: round2(totals[quarter]),
		})
	}

	q3 := totals[3]
	q4 := totals[4]
	if q3 == 0 {
		return nil, apperrors.NewStatisticsError(
			"quarter 3 revenue is zero, Q4 growth is undefined", apperrors.ErrZeroDenominator)
	}
	growth := round1((q4 - q3) / q3 * 100)

	q4Months := make(map[int]float64)
	for _, record := range clean {
		if record.Quarter != 4 {
			continue
		}
		if _, seen := q4Months[record.Month]; !seen {
			q4Months[record.Month] = 0
		}
		q4Months[record.Month] += record.RevenueValue()
	}
	months := make([]int, 0, len(q4Months))
	for month := range q4Months {
		months = append(months, month)
	}
	sort.Ints(months)
	q4Monthly := make([]domain.MonthRevenue, 0, len(months))
	for _, month := range months {
		q4Monthly = append(q4Monthly, domain.MonthRevenue{
			Month:   month,
			Revenue: round2(q4Months[month]),
		})
	}

	return &domain.QuarterlyAnalysis{
		QuarterlyRevenue: quarterly,
		Q3Revenue:        round2(q3),
		Q4Revenue:        round2(q4),
		Q4VsQ3GrowthPct:  growth,
		Q4MonthlyRevenue: q4Monthly,
	}, nil
}

type categoryAccumulator struct {
	revenueSum  float64
	revenues    []float64
	orders      int
	quantitySum int
}

// CategoryAnalysis ranks categories by revenue with share percentages
// and extracts the top three.
func (a *Aggregator) CategoryAnalysis(clean []domain.SalesRecord) (*domain.CategoryAnalysis, error) {
	groups := make(map[string]*categoryAccumulator)
	for _, record := range clean {
		group := groups[record.Category]
		if group == nil {
			group = &categoryAccumulator{}
			groups[record.Category] = group
		}
		group.orders++
		group.quantitySum += record.Quantity
		if record.HasRevenue() {
			group.revenueSum += *record.Revenue
			group.revenues = append(group.revenues, *record.Revenue)
		}
	}

	var grandTotal float64
	for _, group := range groups {
		grandTotal += group.revenueSum
	}
	if grandTotal == 0 {
		return nil, apperrors.NewStatisticsError(
			"total category revenue is zero, shares are undefined", apperrors.ErrZeroDenominator)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := groups[names[i]].revenueSum, groups[names[j]].revenueSum
		if ri != rj {
			return ri > rj
		}
		return names[i] < names[j]
	})

	all := make([]domain.CategoryMetrics, 0, len(names))
	for _, name := range names {
		group := groups[name]
		var avgOrder float64
		if len(group.revenues) > 0 {
			avgOrder, _ = stats.Mean(group.revenues)
		}
		all = append(all, domain.CategoryMetrics{
			Category:        name,
			TotalRevenue:    round2(group.revenueSum),
			TotalOrders:     group.orders,
			AvgOrderValue:   round2(avgOrder),
			AvgQuantity:     round2(float64(group.quantitySum) / float64(group.orders)),
			RevenueSharePct: round1(group.revenueSum / grandTotal * 100),
		})
	}

	top := len(all)
	if top > 3 {
		top = 3
	}
	top3 := make([]domain.CategoryMetrics, top)
	copy(top3, all[:top])

	return &domain.CategoryAnalysis{AllCategories: all, Top3Categories: top3}, nil
}

// RegionAnalysis totals revenue and orders per region, descending by
// revenue. An empty table yields an empty list rather than an error;
// no denominator is involved.
func (a *Aggregator) RegionAnalysis(clean []domain.SalesRecord) (*domain.RegionAnalysis, error) {
	type regionAccumulator struct {
		revenueSum float64
		orders     int
	}
	groups := make(map[string]*regionAccumulator)
	for _, record := range clean {
		group := groups[record.Region]
		if group == nil {
			group = &regionAccumulator{}
			groups[record.Region] = group
		}
		group.orders++
		group.revenueSum += record.RevenueValue()
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := groups[names[i]].revenueSum, groups[names[j]].revenueSum
		if ri != rj {
			return ri > rj
		}
		return names[i] < names[j]
	})

	regions := make([]domain.RegionMetrics, 0, len(names))
	for _, name := range names {
		group := groups[name]
		regions = append(regions, domain.RegionMetrics{
			Region:       name,
			TotalRevenue: round2(group.revenueSum),
			TotalOrders:  group.orders,
		})
	}
	return &domain.RegionAnalysis{RegionRevenue: regions}, nil
}

// ChannelAnalysis totals revenue and orders per channel with share
// percentages, descending by revenue. Channel sums cover every clean
// row, so they add up to the grand total.
func (a *Aggregator) ChannelAnalysis(clean []domain.SalesRecord) (*domain.ChannelAnalysis, error) {
	type channelAccumulator struct {
		revenueSum float64
		orders     int
	}
	groups := make(map[string]*channelAccumulator)
	for _, record := range clean {
		group := groups[record.Channel]
		if group == nil {
			group = &channelAccumulator{}
			groups[record.Channel] = group
		}
		group.orders++
		group.revenueSum += record.RevenueValue()
	}

	var grandTotal float64
	for _, group := range groups {
		grandTotal += group.revenueSum
	}
	if grandTotal == 0 {
		return nil, apperrors.NewStatisticsError(
			"total channel revenue is zero, shares are undefined", apperrors.ErrZeroDenominator)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := groups[names[i]].revenueSum, groups[names[j]].revenueSum
		if ri != rj {
			return ri > rj
		}
		return names[i] < names[j]
	})

	channels := make([]domain.ChannelMetrics, 0, len(names))
	for _, name := range names {
		group := groups[name]
		channels = append(channels, domain.ChannelMetrics{
			Channel:      name,
			TotalRevenue: round2(group.revenueSum),
			TotalOrders:  group.orders,
			SharePct:     round1(group.revenueSum / grandTotal * 100),
		})
	}
	return &domain.ChannelAnalysis{ChannelRevenue: channels}, nil
}

// MonthlyTrend totals revenue and orders per month, ascending, with
// month-over-month growth. Growth is null for the first month; a zero
// previous month would put zero in a denominator and fails the section.
func (a *Aggregator) MonthlyTrend(clean []domain.SalesRecord) (*domain.MonthlyAnalysis, error) {
	type monthAccumulator struct {
		name       string
		revenueSum float64
		orders     int
	}
	groups := make(map[int]*monthAccumulator)
	for _, record := range clean {
		group := groups[record.Month]
		if group == nil {
			group = &monthAccumulator{name: record.MonthName}
			groups[record.Month] = group
		}
		group.orders++
		group.revenueSum += record.RevenueValue()
	}

	months := make([]int, 0, len(groups))
	for month := range groups {
		months = append(months, month)
	}
	sort.Ints(months)

	trend := make([]domain.MonthMetrics, 0, len(months))
	for i, month := range months {
		group := groups[month]
		var growth *float64
		if i > 0 {
			previous := groups[months[i-1]].revenueSum
			if previous == 0 {
				return nil, apperrors.NewStatisticsError(
					"previous month revenue is zero, growth is undefined", apperrors.ErrZeroDenominator).
					WithContext("month", month)
			}
			value := round2((group.revenueSum - previous) / previous * 100)
			growth = &value
		}
		trend = append(trend, domain.MonthMetrics{
			Month:        month,
			MonthName:    group.name,
			Revenue:      round2(group.revenueSum),
			Orders:       group.orders,
			MoMGrowthPct: growth,
		})
	}
	return &domain.MonthlyAnalysis{MonthlyTrend: trend}, nil
}

// ReturnRate computes overall and per-category return rates over the
// all-rows table, the only KPI input that still contains returns.
func (a *Aggregator) ReturnRate(allRows []domain.SalesRecord) (*domain.ReturnAnalysis, error) {
	if len(allRows) == 0 {
		return nil, apperrors.NewStatisticsError(
			"return rate needs at least one row", apperrors.ErrEmptyTable)
	}

	type returnAccumulator struct {
		returns int
		total   int
	}
	var returned int
	groups := make(map[string]*returnAccumulator)
	for _, record := range allRows {
		group := groups[record.Category]
		if group == nil {
			group = &returnAccumulator{}
			groups[record.Category] = group
		}
		group.total++
		if record.IsReturned {
			group.returns++
			returned++
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	byCategory := make([]domain.CategoryReturnRate, 0, len(names))
	for _, name := range names {
		group := groups[name]
		byCategory = append(byCategory, domain.CategoryReturnRate{
			Category:      name,
			Returns:       group.returns,
			Total:         group.total,
			ReturnRatePct: round2(float64(group.returns) / float64(group.total) * 100),
		})
	}

	return &domain.ReturnAnalysis{
		OverallReturnRatePct: round2(float64(returned) / float64(len(allRows)) * 100),
		ByCategory:           byCategory,
	}, nil
}

// StatisticalTests runs the pooled two-sample t-test of Q4 revenue
// against all other quarters, with Cohen's d as the effect size.
func (a *Aggregator) StatisticalTests(clean []domain.SalesRecord) (*domain.StatsTests, error) {
	var q4, rest []float64
	for _, record := range clean {
		if !record.HasRevenue() {
			continue
		}
		if record.Quarter == 4 {
			q4 = append(q4, *record.Revenue)
		} else {
			rest = append(rest, *record.Revenue)
		}
	}

	result, err := stats.PooledTTest(q4, rest)
	if err != nil {
		return nil, apperrors.NewStatisticsError("Q4 significance test failed", err).
			WithContext("q4_rows", len(q4)).
			WithContext("rest_rows", len(rest))
	}
	effect, err := stats.CohenD(q4, rest)
	if err != nil {
		return nil, apperrors.NewStatisticsError("Q4 effect size failed", err)
	}

	return &domain.StatsTests{
		TStatistic:  round4(result.Statistic),
		PValue:      round6(result.PValue),
		CohensD:     round4(effect),
		Significant: result.PValue < a.significance,
	}, nil
}
