package pairwise

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// enumerate calls fn for every complete row over sizes.
func enumerate(sizes []int, fn func(row []int)) {
	row := make([]int, len(sizes))
	var walk func(axis int)
	walk = func(axis int) {
		if axis == len(sizes) {
			fn(row)
			return
		}
		for v := range sizes[axis] {
			row[axis] = v
			walk(axis + 1)
		}
	}
	walk(0)
}

func fullyValid(row []int, valid Predicate) bool {
	if valid == nil {
		return true
	}
	for i := range row {
		if !valid(row[:i+1]) {
			return false
		}
	}
	return true
}

func key(axes, row []int) string {
	s := ""
	for _, a := range axes {
		s += fmt.Sprintf("%d=%d;", a, row[a])
	}
	return s
}

// missing returns every combination that occurs in some valid row of the
// full product but in none of rows.
func missing(t *testing.T, sizes []int, n int, valid Predicate, rows [][]int) []string {
	t.Helper()

	covered := map[string]bool{}
	for _, row := range rows {
		for _, axes := range combinations(len(sizes), n) {
			covered[key(axes, row)] = true
		}
	}

	seen := map[string]bool{}
	var out []string
	enumerate(sizes, func(row []int) {
		if !fullyValid(row, valid) {
			return
		}
		for _, axes := range combinations(len(sizes), n) {
			k := key(axes, row)
			if !covered[k] && !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	})
	return out
}

func TestGenerate_InvalidStrength(t *testing.T) {
	for _, n := range []int{-1, 0, 4} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			_, err := Generate(context.Background(), []int{2, 2, 2}, n, nil)
			require.ErrorIs(t, err, ErrInvalidStrength)
		})
	}
}

func TestGenerate_EmptyAxis(t *testing.T) {
	rows, err := Generate(context.Background(), []int{2, 0, 3}, 2, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGenerate_StrengthOne(t *testing.T) {
	rows, err := Generate(context.Background(), []int{3, 2, 4}, 1, nil)
	require.NoError(t, err)

	want := [][]int{
		{0, 0, 0},
		{1, 1, 1},
		{2, 0, 2},
		{0, 0, 3},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_Coverage(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		n     int
	}{
		{"pairs small", []int{2, 2, 2}, 2},
		{"pairs mixed", []int{3, 3, 2, 2}, 2},
		{"pairs wide", []int{5, 4, 3, 2, 2}, 2},
		{"triples", []int{3, 2, 2, 2}, 3},
		{"full product", []int{2, 3}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Generate(context.Background(), tt.sizes, tt.n, nil)
			require.NoError(t, err)
			assert.Empty(t, missing(t, tt.sizes, tt.n, nil, rows))

			for _, row := range rows {
				require.Len(t, row, len(tt.sizes))
			}
		})
	}
}

func TestGenerate_FullProductIsExact(t *testing.T) {
	rows, err := Generate(context.Background(), []int{2, 3}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestGenerate_RespectsPredicate(t *testing.T) {
	// axis 0 value 0 never pairs with axis 1 value 1
	valid := func(p []int) bool {
		return !(len(p) >= 2 && p[0] == 0 && p[1] == 1)
	}
	sizes := []int{3, 3, 2}

	rows, err := Generate(context.Background(), sizes, 2, valid)
	require.NoError(t, err)

	for _, row := range rows {
		assert.True(t, fullyValid(row, valid), "row %v violates predicate", row)
	}
	assert.Empty(t, missing(t, sizes, 2, valid, rows))
}

func TestGenerate_DropsUncoverableValues(t *testing.T) {
	// value 2 on axis 0 is never valid
	valid := func(p []int) bool { return p[0] != 2 }
	sizes := []int{3, 2, 2}

	rows, err := Generate(context.Background(), sizes, 2, valid)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, row := range rows {
		assert.NotEqual(t, 2, row[0])
	}
	assert.Empty(t, missing(t, sizes, 2, valid, rows))
}

func TestGenerate_NothingValid(t *testing.T) {
	rows, err := Generate(context.Background(), []int{2, 2}, 1, func([]int) bool { return false })
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGenerate_Backtracks(t *testing.T) {
	// the last axis must equal the first; the greedy pick for axis 2 is
	// often wrong and has to be revised
	valid := func(p []int) bool {
		return len(p) < 3 || p[2] == p[0]
	}
	sizes := []int{3, 2, 3}

	rows, err := Generate(context.Background(), sizes, 2, valid)
	require.NoError(t, err)

	for _, row := range rows {
		assert.Equal(t, row[0], row[2])
	}
	assert.Empty(t, missing(t, sizes, 2, valid, rows))
}

func TestGenerate_Deterministic(t *testing.T) {
	sizes := []int{4, 3, 3, 2}
	valid := func(p []int) bool { return len(p) < 2 || p[0] != p[1] }

	first, err := Generate(context.Background(), sizes, 2, valid)
	require.NoError(t, err)
	second, err := Generate(context.Background(), sizes, 2, valid)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestGenerate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, []int{2, 2}, 2, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCombinations(t *testing.T) {
	got := combinations(4, 2)
	want := [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	assert.Equal(t, want, got)

	assert.Len(t, combinations(5, 3), 10)
	assert.Equal(t, [][]int{{0, 1, 2}}, combinations(3, 3))
}

func TestEncodeDecode(t *testing.T) {
	g := newGenerator([]int{3, 2, 4}, 2, func([]int) bool { return true })

	assert.Equal(t, 3*2+3*4+2*4, len(g.done))

	for id := range g.done {
		axes, vals := g.decode(id)
		row := make([]int, 3)
		for i, a := range axes {
			row[a] = vals[i]
		}
		si := 0
		for g.offsets[si+1] <= id {
			si++
		}
		assert.Equal(t, id, g.encodeWith(si, row, -1, 0))
	}
}
