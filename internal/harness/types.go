package harness

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/picongpu/picci/internal/deviation"
)

// Parameters maps parameter names to float64 or []float64 values.
type Parameters map[string]any

// Set stores a scalar.
func (p Parameters) Set(name string, v float64) { p[name] = v }

// SetSeries stores a series.
func (p Parameters) SetSeries(name string, v []float64) { p[name] = v }

// Scalar returns the scalar stored under name.
func (p Parameters) Scalar(name string) (float64, error) {
	v, ok := p[name]
	if !ok {
		return 0, fmt.Errorf("parameter %s was not read", name)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("parameter %s is a series, expected a single value", name)
	}
	return f, nil
}

// Series returns the series stored under name.
func (p Parameters) Series(name string) ([]float64, error) {
	v, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("parameter %s was not read", name)
	}
	s, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("parameter %s is a single value, expected a series", name)
	}
	return s, nil
}

// Names returns the parameter names, sorted.
func (p Parameters) Names() []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Result is the outcome of one suite run.
type Result struct {
	RunID  string    `json:"run_id"`
	Suite  string    `json:"suite"`
	Title  string    `json:"title"`
	Author string    `json:"author,omitempty"`
	Time   time.Time `json:"time"`

	Acceptance float64   `json:"acceptance"`
	Theory     float64   `json:"theory"`
	Simulation []float64 `json:"simulation"`

	Comparison deviation.Comparison `json:"comparison"`
	Parameters Parameters           `json:"parameters"`
}

// Pass reports whether the simulation stayed inside the acceptance range.
func (r *Result) Pass() bool { return r.Comparison.Pass }

// SimulationMax is the simulated value compared against the theory.
func (r *Result) SimulationMax() float64 {
	if len(r.Simulation) == 0 {
		return 0
	}
	return slices.Max(r.Simulation)
}
