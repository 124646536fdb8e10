package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespipe/internal/errors"
)

func TestPooledTTest(t *testing.T) {
	a := []float64{2, 4, 6, 8}
	b := []float64{1, 2, 3, 4}

	result, err := PooledTTest(a, b)
	require.NoError(t, err)

	assert.InDelta(t, 1.7320508, result.Statistic, 1e-6)
	assert.InDelta(t, 0.1339746, result.PValue, 1e-6)
	assert.InDelta(t, 6.0, result.DF, 1e-9)
}

func TestPooledTTest_SignFollowsGroupOrder(t *testing.T) {
	a := []float64{2, 4, 6, 8}
	b := []float64{1, 2, 3, 4}

	forward, err := PooledTTest(a, b)
	require.NoError(t, err)
	reverse, err := PooledTTest(b, a)
	require.NoError(t, err)

	assert.InDelta(t, -forward.Statistic, reverse.Statistic, 1e-9)
	assert.InDelta(t, forward.PValue, reverse.PValue, 1e-9)
}

func TestPooledTTest_IdenticalGroups(t *testing.T) {
	a := []float64{1, 2, 3}

	result, err := PooledTTest(a, a)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, result.Statistic, 1e-9)
	assert.InDelta(t, 1.0, result.PValue, 1e-9)
}

func TestPooledTTest_Degeneracy(t *testing.T) {
	testCases := []struct {
		name     string
		a        []float64
		b        []float64
		expected error
	}{
		{
			name:     "first group too small",
			a:        []float64{1},
			b:        []float64{1, 2, 3},
			expected: apperrors.ErrInsufficientSample,
		},
		{
			name:     "second group empty",
			a:        []float64{1, 2, 3},
			b:        nil,
			expected: apperrors.ErrInsufficientSample,
		},
		{
			name:     "both groups constant",
			a:        []float64{5, 5, 5},
			b:        []float64{3, 3, 3},
			expected: apperrors.ErrZeroVariance,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PooledTTest(tc.a, tc.b)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestCohenD(t *testing.T) {
	a := []float64{2, 4, 6, 8}
	b := []float64{1, 2, 3, 4}

	d, err := CohenD(a, b)
	require.NoError(t, err)

	// mean difference 2.5 over pooled standard deviation sqrt(25/6)
	assert.InDelta(t, 1.2247449, d, 1e-6)
}

func TestCohenD_Degeneracy(t *testing.T) {
	_, err := CohenD([]float64{1}, []float64{2, 3})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientSample)

	_, err = CohenD([]float64{4, 4}, []float64{9, 9})
	assert.ErrorIs(t, err, apperrors.ErrZeroVariance)
}
