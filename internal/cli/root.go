package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/picongpu/picci/internal/matrix"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the picci CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "picci",
		Short: "PIConGPU CI tooling",
		Long: `Generate the PIConGPU compile test matrix and run physics checks
against simulation output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return flagError(opts, c, err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMatrixCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// flagError reports an unparseable or unknown flag as a configuration
// error. Subcommands inherit it from the root.
func flagError(opts *RootOptions, cmd *cobra.Command, err error) error {
	reportOpts := *opts
	if !isValidFormat(reportOpts.Format) {
		reportOpts.Format = "text"
	}
	return outputCommandError(newFormatter(&reportOpts, cmd),
		&matrix.ConfigError{Field: flagName(err), Message: "invalid flag", Err: err},
		"parsing flags")
}

// flagName extracts the long flag name from a pflag error such as
// `invalid argument "abc" for "-n, --strength" flag: ...`.
func flagName(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, "--"); ok {
		end := strings.IndexFunc(rest, func(r rune) bool {
			return r == '"' || r == ' ' || r == '='
		})
		if end > 0 {
			return rest[:end]
		}
		if end < 0 && rest != "" {
			return rest
		}
	}
	return "flags"
}

// newLogger returns a text logger on w. Debug records are kept only in
// verbose mode.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newFormatter builds the formatter for cmd. Diagnostics go to stderr so
// they never corrupt JSON on stdout.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
