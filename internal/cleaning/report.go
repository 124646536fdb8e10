package cleaning

import "fmt"

// Report tallies what each cleaning step did to the table, for audit
// logs and the run summary. Counts are per lineage where the lineages
// diverge: DuplicatesDropped applies to the clean table, and
// AllRowsDuplicates to the all-rows table, which never saw the outlier
// filter.
type Report struct {
	InitialRows       int      `json:"initial_rows"`
	NullDatesDropped  int      `json:"null_dates_dropped"`
	RevenueImputed    int      `json:"revenue_imputed"`
	RevenueUnfilled   int      `json:"revenue_unfilled"`
	OutlierThreshold  *float64 `json:"outlier_threshold,omitempty"`
	OutliersDropped   int      `json:"outliers_dropped"`
	DuplicatesDropped int      `json:"duplicates_dropped"`
	AllRowsDuplicates int      `json:"all_rows_duplicates"`
	ReturnsExcluded   int      `json:"returns_excluded"`
	CleanRows         int      `json:"clean_rows"`
	AllRowsCount      int      `json:"all_rows"`
	Warnings          []string `json:"warnings,omitempty"`
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
