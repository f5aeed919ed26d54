package cli

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/picongpu/picci/internal/matrix"
	"github.com/picongpu/picci/internal/render"
	"github.com/picongpu/picci/internal/stage"
)

// MatrixOptions holds flags for the matrix command.
type MatrixOptions struct {
	*RootOptions
	Strength     int
	JobsPerStage int
	Compact      bool
	LimitBoost   bool
	Config       string
}

// MatrixResult is the JSON payload of the matrix command.
type MatrixResult struct {
	Strength int                    `json:"strength"`
	Stages   int                    `json:"stages"`
	Jobs     []render.JobDescriptor `json:"jobs,omitempty"`
	Compact  []CompactJob           `json:"compact,omitempty"`
}

// CompactJob is one job of the compact listing.
type CompactJob struct {
	Stage int    `json:"stage"`
	Index int    `json:"index"`
	Job   string `json:"job"`
}

// NewMatrixCommand creates the matrix command.
func NewMatrixCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatrixOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Generate the compile test pipeline",
		Long: `Generate the CI compile test pipeline for the test case folders read
from stdin, one folder per line.

Jobs cover every valid combination of compiler, backend, boost version and
folder for the given strength and are dealt round-robin onto stages.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Strength, "strength", "n", 1, "combination strength (1-4)")
	cmd.Flags().IntVarP(&opts.JobsPerStage, "jobs-per-stage", "j", math.MaxInt, "maximum jobs per stage")
	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "print job tuples instead of the pipeline")
	cmd.Flags().BoolVar(&opts.LimitBoost, "limit_boost_versions", false, "use every second boost version")
	cmd.Flags().StringVar(&opts.Config, "config", "", "catalog file (default: embedded catalog)")

	return cmd
}

func runMatrix(opts *MatrixOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cat, err := LoadCatalog(opts.Config)
	if err != nil {
		return outputCommandError(formatter, err, "loading catalog")
	}

	folders, err := matrix.ReadCaseFolders(cmd.InOrStdin())
	switch {
	case errors.Is(err, matrix.ErrEmptyInput):
		logger.Warn("no test case folders on stdin, pipeline has no jobs")
	case err != nil:
		return outputCommandError(formatter, &LoadError{Code: ErrCodeInput, Message: err.Error(), Err: err}, "reading stdin")
	}

	space := cat.Space(folders, opts.LimitBoost)
	space.Logger = logger

	jobs, err := space.Generate(cmd.Context(), opts.Strength)
	if err != nil {
		return outputCommandError(formatter, err, "generating matrix")
	}

	stages, err := stage.Partition(jobs, opts.JobsPerStage)
	if err != nil {
		return outputCommandError(formatter, err, "partitioning jobs")
	}

	logger.Debug("matrix generated",
		"folders", len(folders),
		"jobs", len(jobs),
		"stages", len(stages),
		"strength", opts.Strength)

	result := MatrixResult{Strength: opts.Strength, Stages: len(stages)}

	if opts.Compact {
		if opts.Format == "json" {
			for _, s := range stages {
				for _, e := range s.Entries {
					result.Compact = append(result.Compact, CompactJob{Stage: s.Index, Index: e.Index, Job: e.Value.String()})
				}
			}
			return formatter.Success(result)
		}
		return writeOutput(formatter, func(buf *bytes.Buffer) error {
			return render.WriteCompact(buf, stages)
		})
	}

	descriptors, err := render.NewRenderer(cat.Render).RenderStages(stages)
	if err != nil {
		return outputCommandError(formatter, err, "rendering jobs")
	}

	if opts.Format == "json" {
		result.Jobs = descriptors
		return formatter.Success(result)
	}
	return writeOutput(formatter, func(buf *bytes.Buffer) error {
		return render.WritePipeline(buf, len(stages), descriptors)
	})
}

// writeOutput renders into a buffer first so a failed render leaves stdout
// untouched.
func writeOutput(formatter *OutputFormatter, fn func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return outputCommandError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Err: err}, "writing output")
	}
	if _, err := formatter.Writer.Write(buf.Bytes()); err != nil {
		return WrapExitError(ExitCommandError, "writing output", err)
	}
	return nil
}

// outputCommandError reports err on the error stream and returns it as an
// ExitCommandError.
func outputCommandError(formatter *OutputFormatter, err error, context string) error {
	le := convertError(err, context)

	var details any
	if le.Pos.IsValid() {
		details = map[string]any{
			"file":   le.Pos.Filename(),
			"line":   le.Pos.Line(),
			"column": le.Pos.Column(),
		}
	}

	errFormatter := *formatter
	if formatter.Format != "json" {
		errFormatter.Writer = formatter.GetErrWriter()
	}
	if outErr := errFormatter.Error(le.Code, errorMessage(le), details); outErr != nil {
		return WrapExitError(ExitCommandError, "writing error output", outErr)
	}
	exitErr := WrapExitError(ExitCommandError, context, le)
	exitErr.Reported = true
	return exitErr
}

// errorMessage prefixes the message with the CUE position when one is known.
func errorMessage(le *LoadError) string {
	if le.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column(), le.Message)
	}
	return le.Message
}
