// Package physics holds the plasma formulas used by the test suites.
// All quantities are SI.
package physics

import (
	"errors"
	"fmt"
	"math"
)

// CODATA 2018 values.
const (
	SpeedOfLight       = 299792458.0      // m/s
	ElementaryCharge   = 1.602176634e-19  // C
	ElectronMass       = 9.1093837015e-31 // kg
	VacuumPermittivity = 8.8541878128e-12 // F/m
)

// ErrShortSeries is returned when a series is too short for a formula.
var ErrShortSeries = errors.New("series too short")

// Velocity returns the speed belonging to the Lorentz factor gamma.
func Velocity(gamma float64) float64 {
	return math.Sqrt((1 - 1/(gamma*gamma)) * SpeedOfLight * SpeedOfLight)
}

// Beta returns v/c for the Lorentz factor gamma.
func Beta(gamma float64) float64 {
	return math.Sqrt(1 - 1/(gamma*gamma))
}

// PlasmaFrequency returns the electron plasma frequency for density
// (m^-3). With relativistic set the electron mass is scaled by gamma.
func PlasmaFrequency(density, gamma float64, relativistic bool) float64 {
	mass := ElectronMass
	if relativistic {
		mass *= gamma
	}
	return math.Sqrt(density * ElementaryCharge * ElementaryCharge / (VacuumPermittivity * mass))
}

// Time converts simulation steps into time in units of 1/omega.
func Time(steps []float64, deltaT, omega float64) []float64 {
	out := make([]float64, len(steps))
	for i, s := range steps {
		out[i] = s * deltaT * omega
	}
	return out
}

// GrowthRate returns Gamma_k = log(f[k+3]/f[k+1]) / (2 (t[k+3]-t[k+1]))
// for every k with k+3 inside the series.
func GrowthRate(f, t []float64) ([]float64, error) {
	if len(f) != len(t) {
		return nil, fmt.Errorf("growth rate: %d values but %d times", len(f), len(t))
	}
	if len(f) < 4 {
		return nil, fmt.Errorf("growth rate: %w: need 4 values, got %d", ErrShortSeries, len(f))
	}

	out := make([]float64, len(f)-3)
	for k := range out {
		out[k] = 0.5 * math.Log(f[k+3]/f[k+1]) / (t[k+3] - t[k+1])
	}
	return out, nil
}

// FirstRelativeMinimum returns the index of the first interior point that
// is strictly smaller than both neighbours.
func FirstRelativeMinimum(x []float64) (int, bool) {
	for i := 1; i+1 < len(x); i++ {
		if x[i] < x[i-1] && x[i] < x[i+1] {
			return i, true
		}
	}
	return 0, false
}
