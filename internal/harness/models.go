package harness

import (
	"fmt"
	"math"

	"github.com/picongpu/picci/internal/physics"
)

// Model names.
const (
	TheoryESKHI     = "eskhi"
	TheoryMI        = "mi"
	TheoryParameter = "parameter"

	SimulationGrowthRate = "growth_rate"
	SimulationSeries     = "series"
)

// Parameter names the built-in models read.
const (
	ParamGamma   = "gamma"
	ParamDeltaT  = "DELTA_T_SI"
	ParamDensity = "BASE_DENSITY_SI"
	ParamStep    = "step"
)

// TheoryModel computes the theoretical value of a suite.
type TheoryModel func(p Parameters, spec TheorySpec) (float64, error)

// SimulationModel computes the simulated series of a suite.
type SimulationModel func(p Parameters, spec SimulationSpec) ([]float64, error)

var theoryModels = map[string]TheoryModel{
	TheoryESKHI:     eskhiGrowthRate,
	TheoryMI:        miGrowthRate,
	TheoryParameter: theoryParameter,
}

var simulationModels = map[string]SimulationModel{
	SimulationGrowthRate: simulatedGrowthRate,
	SimulationSeries:     simulatedSeries,
}

// eskhiGrowthRate is the maximal growth rate of the electron scale
// Kelvin-Helmholtz instability, 1/(sqrt(8) gamma), in units of omega_pe.
func eskhiGrowthRate(p Parameters, _ TheorySpec) (float64, error) {
	gamma, err := p.Scalar(ParamGamma)
	if err != nil {
		return 0, err
	}
	if gamma <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", ParamGamma, gamma)
	}
	return 1 / (math.Sqrt(8) * gamma), nil
}

// miGrowthRate is the growth rate of the mushroom instability,
// v/(c sqrt(gamma)).
func miGrowthRate(p Parameters, _ TheorySpec) (float64, error) {
	gamma, err := p.Scalar(ParamGamma)
	if err != nil {
		return 0, err
	}
	if gamma < 1 {
		return 0, fmt.Errorf("%s must be at least 1, got %v", ParamGamma, gamma)
	}
	return physics.Velocity(gamma) / (physics.SpeedOfLight * math.Sqrt(gamma)), nil
}

func theoryParameter(p Parameters, spec TheorySpec) (float64, error) {
	return p.Scalar(spec.Parameter)
}

// simulatedGrowthRate derives growth rates from a field energy series
// over time measured in units of 1/omega_pe.
func simulatedGrowthRate(p Parameters, spec SimulationSpec) ([]float64, error) {
	field, err := p.Series(spec.Field)
	if err != nil {
		return nil, err
	}
	steps, err := p.Series(ParamStep)
	if err != nil {
		return nil, err
	}
	dt, err := p.Scalar(ParamDeltaT)
	if err != nil {
		return nil, err
	}
	density, err := p.Scalar(ParamDensity)
	if err != nil {
		return nil, err
	}
	gamma := 1.0
	if spec.Relativistic {
		if gamma, err = p.Scalar(ParamGamma); err != nil {
			return nil, err
		}
	}

	omega := physics.PlasmaFrequency(density, gamma, spec.Relativistic)
	rates, err := physics.GrowthRate(field, physics.Time(steps, dt, omega))
	if err != nil {
		return nil, err
	}

	if spec.FromFirstMinimum {
		i, ok := physics.FirstRelativeMinimum(rates)
		if !ok {
			return nil, fmt.Errorf("growth rate of %s has no relative minimum", spec.Field)
		}
		rates = rates[i:]
	}
	return rates, nil
}

func simulatedSeries(p Parameters, spec SimulationSpec) ([]float64, error) {
	return p.Series(spec.Field)
}
