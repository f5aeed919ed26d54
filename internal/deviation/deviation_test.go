package deviation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifferences(t *testing.T) {
	sim := []float64{0.25, 0.5, 0.375}

	assert.Equal(t, []float64{0.25, 0, 0.125}, Difference(0.5, sim))

	lo, err := MinDifference(0.5, sim)
	require.NoError(t, err)
	assert.Zero(t, lo)

	hi, err := MaxDifference(0.5, sim)
	require.NoError(t, err)
	assert.Equal(t, 0.25, hi)

	_, err = MinDifference(0.5, nil)
	require.ErrorIs(t, err, ErrEmpty)
	_, err = MaxDifference(0.5, nil)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestPercentage(t *testing.T) {
	perc, err := Percentage(0.5, []float64{0.25, 0.375})
	require.NoError(t, err)
	assert.Equal(t, 25.0, perc)

	// overshoot is negative
	perc, err = Percentage(0.5, []float64{0.625})
	require.NoError(t, err)
	assert.Equal(t, -25.0, perc)

	_, err = Percentage(0, []float64{1})
	require.ErrorIs(t, err, ErrZeroTheory)

	_, err = Percentage(1, nil)
	require.ErrorIs(t, err, ErrEmpty)
}

func TestAcceptanceRange(t *testing.T) {
	lo, hi := AcceptanceRange(0.5, 0.25)
	assert.Equal(t, 0.375, lo)
	assert.Equal(t, 0.625, hi)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name       string
		theory     float64
		sim        []float64
		acceptance float64
		pass       bool
	}{
		{"inside", 0.5, []float64{0.25, 0.5, 0.375}, 0.25, true},
		{"on the edge", 0.5, []float64{0.375}, 0.25, true},
		{"too low", 0.5, []float64{0.25}, 0.25, false},
		{"too high", 0.5, []float64{0.75}, 0.25, false},
		{"zero acceptance exact", 2, []float64{1, 2}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compare(tt.theory, tt.sim, tt.acceptance)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, c.Pass)
		})
	}
}

func TestCompare_Values(t *testing.T) {
	c, err := Compare(0.5, []float64{0.25, 0.5, 0.375}, 0.25)
	require.NoError(t, err)

	assert.Equal(t, Comparison{
		MinDifference: 0,
		Percentage:    0,
		Range:         [2]float64{0.375, 0.625},
		Pass:          true,
	}, c)
}

func TestCompare_Errors(t *testing.T) {
	_, err := Compare(0.5, []float64{1, math.NaN()}, 0.2)
	require.ErrorIs(t, err, ErrNotFinite)

	_, err = Compare(math.Inf(1), []float64{1}, 0.2)
	require.ErrorIs(t, err, ErrNotFinite)

	_, err = Compare(0.5, nil, 0.2)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = Compare(0.5, []float64{0.5}, -0.1)
	require.Error(t, err)
}
