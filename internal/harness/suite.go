package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSuite is wrapped by every suite validation error.
var ErrInvalidSuite = errors.New("invalid suite")

// Suite defines one physics check: which values to read, how to turn
// them into a theoretical value and a simulated series, and how far the
// two may differ.
type Suite struct {
	// Name identifies the suite in logs and snapshots.
	Name string `yaml:"name"`

	// Title is written to testresult.log. Defaults to "No title".
	Title string `yaml:"title,omitempty"`

	Author string `yaml:"author,omitempty"`

	// Acceptance is the allowed relative deviation, e.g. 0.2 for 20%.
	Acceptance float64 `yaml:"acceptance"`

	// Params, JSON and Data list the names read from .param, .json and
	// .dat files. A later source overrides an earlier one in the order
	// json, param, data.
	Params []string `yaml:"params,omitempty"`
	JSON   []string `yaml:"json,omitempty"`
	Data   []string `yaml:"data,omitempty"`

	// StepFile names the .dat file whose first column gives the steps.
	// Empty selects the first table with a step column.
	StepFile string `yaml:"step_file,omitempty"`

	// Species selects between .dat files that share a column name.
	Species string `yaml:"species,omitempty"`

	// Dirs override the directories given on the command line.
	// Relative paths are resolved against the suite file.
	Dirs Dirs `yaml:"dirs,omitempty"`

	Theory     TheorySpec     `yaml:"theory"`
	Simulation SimulationSpec `yaml:"simulation"`

	// baseDir is the directory of the suite file.
	baseDir string
}

// Dirs holds the input and output directories of a check.
type Dirs struct {
	Data   string `yaml:"data,omitempty"`
	Param  string `yaml:"param,omitempty"`
	JSON   string `yaml:"json,omitempty"`
	Result string `yaml:"result,omitempty"`
}

// TheorySpec selects the model producing the theoretical value.
type TheorySpec struct {
	// Model is one of eskhi, mi or parameter.
	Model string `yaml:"model"`

	// Parameter names the scalar used by the parameter model.
	Parameter string `yaml:"parameter,omitempty"`
}

// SimulationSpec selects the model producing the simulated series.
type SimulationSpec struct {
	// Model is growth_rate or series.
	Model string `yaml:"model"`

	// Field names the data series the model works on.
	Field string `yaml:"field"`

	// Relativistic scales the electron mass by gamma in the plasma
	// frequency used for the time axis.
	Relativistic bool `yaml:"relativistic,omitempty"`

	// FromFirstMinimum drops growth rates before their first relative
	// minimum.
	FromFirstMinimum bool `yaml:"from_first_minimum,omitempty"`
}

// LoadSuite reads and validates a suite YAML file. Unknown fields are
// rejected.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	s, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.baseDir = filepath.Dir(path)
	return s, nil
}

// ParseSuite decodes and validates a suite document.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSuite, err)
	}
	return &s, nil
}

func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Acceptance < 0 {
		return fmt.Errorf("acceptance must be non-negative, got %v", s.Acceptance)
	}

	if _, ok := theoryModels[s.Theory.Model]; !ok {
		return fmt.Errorf("theory.model: unknown model %q", s.Theory.Model)
	}
	if s.Theory.Model == TheoryParameter && s.Theory.Parameter == "" {
		return fmt.Errorf("theory.parameter is required for the %s model", TheoryParameter)
	}

	if _, ok := simulationModels[s.Simulation.Model]; !ok {
		return fmt.Errorf("simulation.model: unknown model %q", s.Simulation.Model)
	}
	if s.Simulation.Field == "" {
		return fmt.Errorf("simulation.field is required")
	}
	if !slices.Contains(s.Data, s.Simulation.Field) && !slices.Contains(s.JSON, s.Simulation.Field) {
		return fmt.Errorf("simulation.field %q must be listed in data or json", s.Simulation.Field)
	}

	for _, list := range [][]string{s.Params, s.JSON, s.Data} {
		for i, name := range list {
			if name == "" {
				return fmt.Errorf("parameter %d: empty name", i)
			}
		}
	}
	return nil
}
