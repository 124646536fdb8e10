// Package cleaning repairs and filters the merged sales table.
//
// The pipeline is a fixed, ordered sequence: drop null dates, impute
// missing revenue from category medians, cap revenue at the 99.9th
// percentile, drop duplicate transaction IDs, split off returned
// transactions, and append derived calendar fields. Order matters:
// later steps compute statistics over whatever earlier steps left
// behind, so reordering changes thresholds and medians.
//
// Two tables come out of a run. The clean table excludes returns and
// backs every revenue KPI. The all-rows table keeps returns (and
// capped outliers) and is the sole input to return-rate KPIs.
package cleaning
