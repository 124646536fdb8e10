package sources

import (
	"salespipe/pkg/contracts/domain"
)

// Merge concatenates per-source record slices in the order given,
// preserving row order within each source. Source order is the merge
// priority, which decides which occurrence survives when the cleaning
// stage drops duplicate transaction IDs.
func Merge(tables ...[]domain.SalesRecord) []domain.SalesRecord {
	var total int
	for _, table := range tables {
		total += len(table)
	}

	merged := make([]domain.SalesRecord, 0, total)
	for _, table := range tables {
		merged = append(merged, table...)
	}
	return merged
}
