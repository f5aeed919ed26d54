// Package deviation compares a theoretical value with a simulated series.
package deviation

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrEmpty is returned for an empty simulation series.
	ErrEmpty = errors.New("empty simulation series")

	// ErrZeroTheory is returned when a relative deviation is taken from 0.
	ErrZeroTheory = errors.New("theoretical value is zero")

	// ErrNotFinite is returned when an input is NaN or infinite.
	ErrNotFinite = errors.New("value is not finite")
)

// Comparison is the outcome of comparing theory and simulation.
type Comparison struct {
	MinDifference float64    `json:"min_difference"`
	Percentage    float64    `json:"percentage"`
	Range         [2]float64 `json:"acceptance_range"`
	Pass          bool       `json:"pass"`
}

// Difference returns |theory - s| for every simulated value.
func Difference(theory float64, sim []float64) []float64 {
	out := make([]float64, len(sim))
	for i, s := range sim {
		out[i] = math.Abs(theory - s)
	}
	return out
}

// MinDifference returns the smallest absolute difference.
func MinDifference(theory float64, sim []float64) (float64, error) {
	if len(sim) == 0 {
		return 0, ErrEmpty
	}
	return slices.Min(Difference(theory, sim)), nil
}

// MaxDifference returns the largest absolute difference.
func MaxDifference(theory float64, sim []float64) (float64, error) {
	if len(sim) == 0 {
		return 0, ErrEmpty
	}
	return slices.Max(Difference(theory, sim)), nil
}

// Percentage returns (theory - max(sim)) / theory * 100.
func Percentage(theory float64, sim []float64) (float64, error) {
	if len(sim) == 0 {
		return 0, ErrEmpty
	}
	if theory == 0 {
		return 0, ErrZeroTheory
	}
	return (theory - slices.Max(sim)) / theory * 100, nil
}

// AcceptanceRange returns theory*(1-a) and theory*(1+a).
func AcceptanceRange(theory, acceptance float64) (lo, hi float64) {
	return theory * (1 - acceptance), theory * (1 + acceptance)
}

// Compare computes all deviation figures. The check passes when the
// percentage deviation is at most acceptance*100.
func Compare(theory float64, sim []float64, acceptance float64) (Comparison, error) {
	if acceptance < 0 || !finite(acceptance) {
		return Comparison{}, fmt.Errorf("acceptance %v: must be a non-negative number", acceptance)
	}
	if !finite(theory) {
		return Comparison{}, fmt.Errorf("theory: %w", ErrNotFinite)
	}
	for i, s := range sim {
		if !finite(s) {
			return Comparison{}, fmt.Errorf("simulation[%d]: %w", i, ErrNotFinite)
		}
	}

	minDiff, err := MinDifference(theory, sim)
	if err != nil {
		return Comparison{}, err
	}
	perc, err := Percentage(theory, sim)
	if err != nil {
		return Comparison{}, err
	}
	lo, hi := AcceptanceRange(theory, acceptance)

	return Comparison{
		MinDifference: minDiff,
		Percentage:    perc,
		Range:         [2]float64{lo, hi},
		Pass:          math.Abs(perc) <= acceptance*100,
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
