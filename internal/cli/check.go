package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/picongpu/picci/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Dirs harness.Dirs

	// Clock and IDs are left nil outside tests.
	Clock func() time.Time
	IDs   harness.RunIDGenerator
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Suite      string     `json:"suite"`
	Title      string     `json:"title,omitempty"`
	Pass       bool       `json:"pass"`
	Theory     float64    `json:"theory"`
	Simulation float64    `json:"simulation"`
	Acceptance float64    `json:"acceptance"`
	Range      [2]float64 `json:"acceptance_range"`
	Percentage float64    `json:"percentage"`
	Log        string     `json:"log"`
}

func (r CheckResult) String() string {
	verdict := "passed"
	if !r.Pass {
		verdict = "failed"
	}
	return fmt.Sprintf("check %s %s: theory %g, simulation %g, deviation %g %% (acceptance %g)\nresult written to %s",
		r.Suite, verdict, r.Theory, r.Simulation, r.Percentage, r.Acceptance, r.Log)
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}
	return newCheckCommand(opts)
}

func newCheckCommand(opts *CheckOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <suite.yaml>",
		Short: "Run a physics check against simulation output",
		Long: `Run the physics check described by a suite file.

Parameters are read from .param, .json and .dat files, the theoretical value
is compared with the largest simulated value and the outcome is written to
testresult.log in the result directory. Directories named in the suite file
take precedence over the flags.

Exit codes: 0 passed, 1 failed, 2 the check could not run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dirs.Data, "data", "", "directory with .dat files")
	cmd.Flags().StringVar(&opts.Dirs.Param, "param", "", "directory with .param files")
	cmd.Flags().StringVar(&opts.Dirs.JSON, "json", "", "directory with .json files (default: --param)")
	cmd.Flags().StringVar(&opts.Dirs.Result, "result", "", "directory for testresult.log (default: .)")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	resultDir := opts.Dirs.Result
	if resultDir == "" {
		resultDir = "."
	}

	suite, err := harness.LoadSuite(path)
	if err != nil {
		return checkError(opts, formatter, logger, resultDir, err, "loading suite")
	}

	dirs := harness.ResolveDirs(suite, opts.Dirs, logger)
	formatter.VerboseLog("data: %s, param: %s, json: %s, result: %s", dirs.Data, dirs.Param, dirs.JSON, dirs.Result)

	result, err := harness.Run(cmd.Context(), suite, dirs, harness.Options{
		Logger: logger,
		Clock:  opts.Clock,
		IDs:    opts.IDs,
	})
	if err != nil {
		return checkError(opts, formatter, logger, dirs.Result, err, fmt.Sprintf("running check %s", suite.Name))
	}

	logPath, err := harness.WriteResultLog(dirs.Result, result)
	if err != nil {
		return outputCommandError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Err: err}, "writing result log")
	}

	out := CheckResult{
		Suite:      result.Suite,
		Title:      result.Title,
		Pass:       result.Pass(),
		Theory:     result.Theory,
		Simulation: result.SimulationMax(),
		Acceptance: result.Acceptance,
		Range:      result.Comparison.Range,
		Percentage: result.Comparison.Percentage,
		Log:        logPath,
	}
	if err := formatter.SuccessRun(result.RunID, out); err != nil {
		return WrapExitError(ExitCommandError, "writing output", err)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: check %s failed: deviation %g %% exceeds %g %%",
			ErrCodeCheckFailed, result.Suite, result.Comparison.Percentage, result.Acceptance*100))
	}
	return nil
}

// checkError records err in error.log under dir and reports it as a
// command error.
func checkError(opts *CheckOptions, formatter *OutputFormatter, logger *slog.Logger, dir string, err error, context string) error {
	now := time.Now
	if opts.Clock != nil {
		now = opts.Clock
	}

	path, logErr := harness.WriteErrorLog(dir, fmt.Errorf("%s: %w", context, err), now())
	if logErr != nil {
		logger.Error("cannot write error log", "dir", dir, "err", logErr)
	} else {
		logger.Debug("error log written", "path", path)
	}
	return outputCommandError(formatter, err, context)
}
