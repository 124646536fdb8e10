package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"salespipe/pkg/contracts/domain"
)

// WorkbookWriter lays the KPI document out as an Excel workbook, one
// sheet per section.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter builds a workbook writer.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// WriteWorkbook renders the analysis document to path. Sections absent
// from the document (skipped by a degeneracy guard) get no sheet; the
// summary sheet lists what was skipped and why.
func (w *WorkbookWriter) WriteWorkbook(ctx context.Context, path string, result *domain.AnalysisResult) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := w.writeSummary(f, result); err != nil {
		return err
	}
	sections := []struct {
		name  string
		write func(*excelize.File, string) error
		skip  bool
	}{
		{"Quarterly", func(f *excelize.File, s string) error { return w.writeQuarterly(f, s, result.Quarterly) }, result.Quarterly == nil},
		{"Categories", func(f *excelize.File, s string) error { return w.writeCategories(f, s, result.Categories) }, result.Categories == nil},
		{"Regions", func(f *excelize.File, s string) error { return w.writeRegions(f, s, result.Regions) }, result.Regions == nil},
		{"Channels", func(f *excelize.File, s string) error { return w.writeChannels(f, s, result.Channels) }, result.Channels == nil},
		{"Monthly", func(f *excelize.File, s string) error { return w.writeMonthly(f, s, result.Monthly) }, result.Monthly == nil},
		{"Returns", func(f *excelize.File, s string) error { return w.writeReturns(f, s, result.Returns) }, result.Returns == nil},
	}
	for _, section := range sections {
		if section.skip {
			continue
		}
		if _, err := f.NewSheet(section.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", section.name, err)
		}
		if err := section.write(f, section.name); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", section.name, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.InfoContext(ctx, "wrote dashboard workbook", "path", path)
	return nil
}

// setRow writes one row of values starting at column A.
func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func (w *WorkbookWriter) writeSummary(f *excelize.File, result *domain.AnalysisResult) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Generated At", result.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Total Revenue", result.TotalRevenue},
		{"Total Orders", result.TotalOrders},
		{"Avg Order Value", result.AvgOrderValue},
	}
	if result.StatsTests != nil {
		rows = append(rows,
			[]interface{}{},
			[]interface{}{"Q4 t-statistic", result.StatsTests.TStatistic},
			[]interface{}{"p-value", result.StatsTests.PValue},
			[]interface{}{"Cohen's d", result.StatsTests.CohensD},
			[]interface{}{"Significant", result.StatsTests.Significant},
		)
	}
	if len(result.Failures) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Skipped KPI", "Reason"})
		for _, failure := range result.Failures {
			rows = append(rows, []interface{}{failure.KPI, failure.Error})
		}
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeQuarterly(f *excelize.File, sheet string, quarterly *domain.QuarterlyAnalysis) error {
	rows := [][]interface{}{{"Quarter", "Revenue"}}
	for _, quarter := range quarterly.QuarterlyRevenue {
		rows = append(rows, []interface{}{quarter.Quarter, quarter.Revenue})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Q4 vs Q3 Growth %", quarterly.Q4VsQ3GrowthPct},
		[]interface{}{},
		[]interface{}{"Q4 Month", "Revenue"},
	)
	for _, month := range quarterly.Q4MonthlyRevenue {
		rows = append(rows, []interface{}{month.Month, month.Revenue})
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeCategories(f *excelize.File, sheet string, categories *domain.CategoryAnalysis) error {
	rows := [][]interface{}{{"Category", "Total Revenue", "Total Orders", "Avg Order Value", "Avg Quantity", "Revenue Share %"}}
	for _, category := range categories.AllCategories {
		rows = append(rows, []interface{}{
			category.Category, category.TotalRevenue, category.TotalOrders,
			category.AvgOrderValue, category.AvgQuantity, category.RevenueSharePct,
		})
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeRegions(f *excelize.File, sheet string, regions *domain.RegionAnalysis) error {
	rows := [][]interface{}{{"Region", "Total Revenue", "Total Orders"}}
	for _, region := range regions.RegionRevenue {
		rows = append(rows, []interface{}{region.Region, region.TotalRevenue, region.TotalOrders})
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeChannels(f *excelize.File, sheet string, channels *domain.ChannelAnalysis) error {
	rows := [][]interface{}{{"Channel", "Total Revenue", "Total Orders", "Share %"}}
	for _, channel := range channels.ChannelRevenue {
		rows = append(rows, []interface{}{channel.Channel, channel.TotalRevenue, channel.TotalOrders, channel.SharePct})
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeMonthly(f *excelize.File, sheet string, monthly *domain.MonthlyAnalysis) error {
	rows := [][]interface{}{{"Month", "Month Name", "Revenue", "Orders", "MoM Growth %"}}
	for _, month := range monthly.MonthlyTrend {
		row := []interface{}{month.Month, month.MonthName, month.Revenue, month.Orders, nil}
		if month.MoMGrowthPct != nil {
			row[4] = *month.MoMGrowthPct
		}
		rows = append(rows, row)
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) writeReturns(f *excelize.File, sheet string, returns *domain.ReturnAnalysis) error {
	rows := [][]interface{}{
		{"Overall Return Rate %", returns.OverallReturnRatePct},
		{},
		{"Category", "Returns", "Total", "Return Rate %"},
	}
	for _, category := range returns.ByCategory {
		rows = append(rows, []interface{}{category.Category, category.Returns, category.Total, category.ReturnRatePct})
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}
