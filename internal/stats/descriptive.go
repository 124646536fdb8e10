// Package stats provides the descriptive and inferential statistics the
// cleaning and aggregation stages rely on. Degenerate inputs (empty
// series, undersized groups, zero variance) return named sentinel errors
// instead of NaN so callers can apply their own failure policy.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "salespipe/internal/errors"
)

// Percentile returns the value at percentile p (p in [0,1]) of values,
// interpolating linearly between closest ranks at index p*(n-1). This is
// the quantile definition dataframe tools use, so thresholds match what
// an analyst would compute in a notebook.
func Percentile(values []float64, p float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, apperrors.ErrEmptyTable
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0], nil
	}
	if p >= 1 {
		return sorted[n-1], nil
	}

	index := p * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower], nil
	}

	// Linear interpolation
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight, nil
}

// Median computes the median of values.
func Median(values []float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, apperrors.ErrEmptyTable
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2, nil
	}
	return sorted[n/2], nil
}

// Mean computes the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, apperrors.ErrEmptyTable
	}
	return stat.Mean(values, nil), nil
}

// Sum returns the total of values. The sum of an empty series is 0.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
