package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "salespipe/internal/errors"
)

// TTestResult holds the outcome of a two-sample Student's t-test.
type TTestResult struct {
	Statistic float64
	PValue    float64
	DF        float64
}

// PooledTTest runs a two-sample Student's t-test assuming equal
// variances. The p-value is two-tailed. Each group needs at least two
// observations and the pooled variance must be positive.
func PooledTTest(a, b []float64) (TTestResult, error) {
	meanA, meanB, pooled, df, err := pooledStats(a, b)
	if err != nil {
		return TTestResult{}, err
	}

	n1 := float64(len(a))
	n2 := float64(len(b))
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	t := (meanA - meanB) / se

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))

	return TTestResult{Statistic: t, PValue: p, DF: df}, nil
}

// CohenD returns the pooled-variance standardized mean difference
// between the two groups.
func CohenD(a, b []float64) (float64, error) {
	meanA, meanB, pooled, _, err := pooledStats(a, b)
	if err != nil {
		return 0, err
	}
	return (meanA - meanB) / math.Sqrt(pooled), nil
}

// pooledStats computes the group means and the pooled sample variance
// shared by PooledTTest and CohenD.
func pooledStats(a, b []float64) (meanA, meanB, pooled, df float64, err error) {
	n1 := float64(len(a))
	n2 := float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return 0, 0, 0, 0, fmt.Errorf("group sizes %d and %d: %w", len(a), len(b), apperrors.ErrInsufficientSample)
	}

	meanA = stat.Mean(a, nil)
	meanB = stat.Mean(b, nil)
	varA := stat.Variance(a, nil)
	varB := stat.Variance(b, nil)

	df = n1 + n2 - 2
	pooled = ((n1-1)*varA + (n2-1)*varB) / df
	if pooled <= 0 {
		return 0, 0, 0, 0, fmt.Errorf("pooled variance %v: %w", pooled, apperrors.ErrZeroVariance)
	}

	return meanA, meanB, pooled, df, nil
}
