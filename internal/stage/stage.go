// Package stage splits an ordered job list into bounded pipeline stages.
//
// Jobs are dealt round-robin: the job at flat index i goes to stage
// i mod count, where count = ceil(len(jobs) / maxPerStage). Neighbouring
// jobs in the covering order tend to share a compiler, so dealing them out
// spreads similar jobs over all stages instead of filling stages one by
// one.
package stage

import (
	"fmt"

	"github.com/picongpu/picci/internal/matrix"
)

// Entry is one item together with its index in the unpartitioned list.
type Entry[T any] struct {
	Index int `json:"index"`
	Value T   `json:"value"`
}

// Stage is one pipeline stage.
type Stage[T any] struct {
	Index   int        `json:"index"`
	Entries []Entry[T] `json:"entries"`
}

// Count returns ceil(n / maxPerStage).
func Count(n, maxPerStage int) (int, error) {
	if maxPerStage <= 0 {
		return 0, &matrix.ConfigError{
			Field:   "jobs-per-stage",
			Message: fmt.Sprintf("must be positive, got %d", maxPerStage),
		}
	}
	if n <= 0 {
		return 0, nil
	}
	return (n-1)/maxPerStage + 1, nil
}

// Partition deals items onto ceil(len(items)/maxPerStage) stages.
func Partition[T any](items []T, maxPerStage int) ([]Stage[T], error) {
	count, err := Count(len(items), maxPerStage)
	if err != nil {
		return nil, err
	}

	stages := make([]Stage[T], count)
	for s := range stages {
		stages[s].Index = s
		stages[s].Entries = make([]Entry[T], 0, (len(items)-s+count-1)/count)
	}
	for i, item := range items {
		s := i % count
		stages[s].Entries = append(stages[s].Entries, Entry[T]{Index: i, Value: item})
	}

	return stages, nil
}

// Flatten returns the items of stages ordered by their original index.
func Flatten[T any](stages []Stage[T]) []T {
	n := 0
	for _, s := range stages {
		n += len(s.Entries)
	}

	out := make([]T, n)
	for _, s := range stages {
		for _, e := range s.Entries {
			out[e.Index] = e.Value
		}
	}
	return out
}
