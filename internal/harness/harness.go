package harness

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/picongpu/picci/internal/deviation"
	"github.com/picongpu/picci/internal/reader"
)

// RunIDGenerator produces the identifier stored in each Result.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Options configure Run. Zero values select a discarding logger, the wall
// clock and UUIDv7 run IDs.
type Options struct {
	Logger *slog.Logger
	Clock  func() time.Time
	IDs    RunIDGenerator
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.IDs == nil {
		o.IDs = UUIDv7Generator{}
	}
	return o
}

// ResolveDirs combines the directories of a suite with those given on
// the command line. Directories named by the suite win; a conflicting
// flag is logged. The json directory defaults to the param directory and
// the result directory to the working directory.
func ResolveDirs(s *Suite, flags Dirs, logger *slog.Logger) Dirs {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pick := func(kind, fromSuite, fromFlag string) string {
		if fromSuite == "" {
			return fromFlag
		}
		if !filepath.IsAbs(fromSuite) && s.baseDir != "" {
			fromSuite = filepath.Join(s.baseDir, fromSuite)
		}
		if fromFlag != "" && fromFlag != fromSuite {
			logger.Warn("suite directory overrides flag", "kind", kind, "suite", fromSuite, "flag", fromFlag)
		}
		return fromSuite
	}

	d := Dirs{
		Data:   pick("data", s.Dirs.Data, flags.Data),
		Param:  pick("param", s.Dirs.Param, flags.Param),
		JSON:   pick("json", s.Dirs.JSON, flags.JSON),
		Result: pick("result", s.Dirs.Result, flags.Result),
	}
	if d.JSON == "" {
		d.JSON = d.Param
	}
	if d.Result == "" {
		d.Result = "."
	}
	return d
}

// Run reads the parameters of suite from dirs, evaluates its models and
// compares theory with simulation. A returned error means the check could
// not be carried out; a failed comparison is reported through the Result.
func Run(ctx context.Context, s *Suite, dirs Dirs, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	logger := opts.Logger.With("suite", s.Name)

	theoryModel, ok := theoryModels[s.Theory.Model]
	if !ok {
		return nil, fmt.Errorf("%w: theory.model: unknown model %q", ErrInvalidSuite, s.Theory.Model)
	}
	simulationModel, ok := simulationModels[s.Simulation.Model]
	if !ok {
		return nil, fmt.Errorf("%w: simulation.model: unknown model %q", ErrInvalidSuite, s.Simulation.Model)
	}

	params, err := gather(ctx, s, dirs, logger)
	if err != nil {
		return nil, err
	}

	theory, err := theoryModel(params, s.Theory)
	if err != nil {
		return nil, fmt.Errorf("theory %s: %w", s.Theory.Model, err)
	}
	sim, err := simulationModel(params, s.Simulation)
	if err != nil {
		return nil, fmt.Errorf("simulation %s: %w", s.Simulation.Model, err)
	}

	cmp, err := deviation.Compare(theory, sim, s.Acceptance)
	if err != nil {
		return nil, fmt.Errorf("comparing %s: %w", s.Name, err)
	}

	result := &Result{
		RunID:      opts.IDs.Generate(),
		Suite:      s.Name,
		Title:      s.Title,
		Author:     s.Author,
		Time:       opts.Clock(),
		Acceptance: s.Acceptance,
		Theory:     theory,
		Simulation: sim,
		Comparison: cmp,
		Parameters: params,
	}
	logger.Info("check finished",
		"run_id", result.RunID,
		"pass", cmp.Pass,
		"theory", theory,
		"simulation", result.SimulationMax(),
		"percentage", cmp.Percentage)
	return result, nil
}

// gather reads the suite's parameters. Later sources override earlier
// ones in the order json, param, data.
func gather(ctx context.Context, s *Suite, dirs Dirs, logger *slog.Logger) (Parameters, error) {
	params := make(Parameters)

	if len(s.JSON) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := reader.OpenJSON(dirs.JSON)
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		for _, name := range s.JSON {
			v, err := r.Value(name)
			if err != nil {
				return nil, fmt.Errorf("json: %w", err)
			}
			switch v := v.(type) {
			case float64:
				params.Set(name, v)
			case []float64:
				params.SetSeries(name, v)
			}
			logger.Debug("read parameter", "source", "json", "name", name)
		}
	}

	if len(s.Params) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := reader.OpenParams(dirs.Param)
		if err != nil {
			return nil, fmt.Errorf("param: %w", err)
		}
		for _, name := range s.Params {
			v, err := r.Value(name)
			if err != nil {
				return nil, fmt.Errorf("param: %w", err)
			}
			params.Set(name, v)
			logger.Debug("read parameter", "source", "param", "name", name, "value", v)
		}
	}

	if len(s.Data) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := reader.OpenData(dirs.Data)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		steps, err := r.Steps(s.StepFile)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		params.SetSeries(ParamStep, steps)

		for _, name := range s.Data {
			if name == ParamStep {
				continue
			}
			v, err := r.Column(name, s.Species)
			if err != nil {
				return nil, fmt.Errorf("data: %w", err)
			}
			params.SetSeries(name, v)
			logger.Debug("read parameter", "source", "data", "name", name, "rows", len(v))
		}
	}

	return params, nil
}
