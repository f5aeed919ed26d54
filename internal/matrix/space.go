package matrix

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/picongpu/picci/internal/pairwise"
)

// Space is the set of CI dimensions a covering array is drawn from.
type Space struct {
	Groups   []CompilerGroup
	Backends []Backend
	Boost    []string
	Folders  []string
	Rules    RuleSet

	// Logger receives debug output; nil discards.
	Logger *slog.Logger
}

// Generate returns jobs covering every valid strength-wise combination.
// Strength 1 runs one covering round per compiler group.
func (s *Space) Generate(ctx context.Context, strength int) ([]Job, error) {
	if strength < 1 || strength > 4 {
		return nil, &ConfigError{
			Field:   "strength",
			Message: fmt.Sprintf("must be between 1 and 4, got %d", strength),
		}
	}

	if strength > 1 {
		var all []Compiler
		for _, g := range s.Groups {
			all = append(all, g.Compilers...)
		}
		return s.round(ctx, "all", all, strength)
	}

	// Rounds are independent; each writes into its own slot.
	results := make([][]Job, len(s.Groups))
	eg, ctx := errgroup.WithContext(ctx)
	for i, g := range s.Groups {
		eg.Go(func() error {
			jobs, err := s.round(ctx, g.Name, g.Compilers, strength)
			if err != nil {
				return err
			}
			results[i] = jobs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var jobs []Job
	for _, r := range results {
		jobs = append(jobs, r...)
	}
	return jobs, nil
}

// round covers one list of compilers against the remaining axes.
func (s *Space) round(ctx context.Context, name string, compilers []Compiler, strength int) ([]Job, error) {
	sizes := []int{len(compilers), len(s.Backends), len(s.Boost), len(s.Folders)}

	rows, err := pairwise.Generate(ctx, sizes, strength, s.Rules.PrefixPredicate(compilers, s.Backends))
	if err != nil {
		if errors.Is(err, pairwise.ErrInvalidStrength) {
			return nil, &ConfigError{Field: "strength", Message: "out of range", Err: err}
		}
		return nil, fmt.Errorf("round %s: %w", name, err)
	}

	jobs := make([]Job, len(rows))
	for i, row := range rows {
		jobs[i] = Job{
			Compiler: compilers[row[0]],
			Backend:  s.Backends[row[1]],
			Boost:    s.Boost[row[2]],
			Folder:   s.Folders[row[3]],
		}
	}

	s.logger().Debug("covering round done",
		"round", name,
		"compilers", len(compilers),
		"jobs", len(jobs))

	return jobs, nil
}

func (s *Space) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// LimitBoost keeps every second version counted from the newest one and
// returns them in their original ascending order.
func LimitBoost(versions []string) []string {
	if len(versions) == 0 {
		return nil
	}
	var out []string
	for i := (len(versions) - 1) % 2; i < len(versions); i += 2 {
		out = append(out, versions[i])
	}
	return out
}

// ReadCaseFolders reads one case folder per line. Trailing whitespace is
// stripped and blank lines are skipped. ErrEmptyInput is returned with an
// empty slice when nothing remains.
func ReadCaseFolders(r io.Reader) ([]string, error) {
	var folders []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		if line == "" {
			continue
		}
		folders = append(folders, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read case folders: %w", err)
	}

	if len(folders) == 0 {
		return nil, ErrEmptyInput
	}
	return folders, nil
}
