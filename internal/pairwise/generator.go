package pairwise

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidStrength is returned when the strength is outside 1..len(sizes).
var ErrInvalidStrength = errors.New("invalid strength")

// Predicate reports whether a partial row is acceptable.
// prefix holds value indices for axes 0..len(prefix)-1. The slice is only
// valid for the duration of the call.
type Predicate func(prefix []int) bool

// Generate returns rows covering every valid strength-n combination of the
// axes described by sizes (sizes[i] is the number of values on axis i).
//
// A nil predicate accepts everything. If any axis is empty no row can be
// built and the result is empty without error.
func Generate(ctx context.Context, sizes []int, n int, valid Predicate) ([][]int, error) {
	if n < 1 || n > len(sizes) {
		return nil, fmt.Errorf("%w: %d for %d axes", ErrInvalidStrength, n, len(sizes))
	}
	for _, size := range sizes {
		if size <= 0 {
			return nil, nil
		}
	}
	if valid == nil {
		valid = func([]int) bool { return true }
	}

	g := newGenerator(sizes, n, valid)
	return g.run(ctx)
}

// generator holds the covering state. Combinations are addressed by a
// dense id: subsets of axes are enumerated in lexicographic order and the
// value tuple of a subset is encoded mixed-radix after the subset offset.
type generator struct {
	sizes []int
	valid Predicate

	subsets   [][]int // axis subsets of size n, lexicographic
	offsets   []int   // first id of each subset; len(subsets)+1 entries
	byAxis    [][]int // subset indices containing each axis
	done      []bool  // covered or proven uncoverable
	remaining int

	// pending[axis][value] counts combinations still open that use value
	// on axis. It breaks ties between equally good candidates.
	pending [][]int

	cursor int
}

func newGenerator(sizes []int, n int, valid Predicate) *generator {
	g := &generator{
		sizes:   sizes,
		valid:   valid,
		subsets: combinations(len(sizes), n),
		byAxis:  make([][]int, len(sizes)),
		pending: make([][]int, len(sizes)),
	}

	g.offsets = make([]int, len(g.subsets)+1)
	for i, axes := range g.subsets {
		count := 1
		for _, a := range axes {
			count *= sizes[a]
		}
		g.offsets[i+1] = g.offsets[i] + count
		for _, a := range axes {
			g.byAxis[a] = append(g.byAxis[a], i)
		}
	}

	total := g.offsets[len(g.subsets)]
	g.done = make([]bool, total)
	g.remaining = total

	for axis, size := range sizes {
		g.pending[axis] = make([]int, size)
		for _, si := range g.byAxis[axis] {
			// every value on axis appears in (subset size / sizes[axis]) tuples
			per := (g.offsets[si+1] - g.offsets[si]) / size
			for v := range size {
				g.pending[axis][v] += per
			}
		}
	}

	return g
}

func (g *generator) run(ctx context.Context) ([][]int, error) {
	var rows [][]int

	for g.remaining > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for g.done[g.cursor] {
			g.cursor++
		}
		seed := g.cursor

		row, ok := g.build(seed)
		if !ok {
			// no valid row contains this combination
			g.retire(seed)
			continue
		}

		g.cover(row)
		rows = append(rows, row)
	}

	return rows, nil
}

// build seeds a row with combination id and fills the rest.
func (g *generator) build(id int) ([]int, bool) {
	axes, vals := g.decode(id)

	row := make([]int, len(g.sizes))
	fixed := make([]bool, len(g.sizes))
	for i, a := range axes {
		row[a] = vals[i]
		fixed[a] = true
	}

	if !g.fill(row, fixed, 0) {
		return nil, false
	}
	return row, true
}

// fill assigns axes from axis onward with backtracking.
func (g *generator) fill(row []int, fixed []bool, axis int) bool {
	if axis == len(row) {
		return true
	}

	if fixed[axis] {
		if !g.valid(row[:axis+1]) {
			return false
		}
		return g.fill(row, fixed, axis+1)
	}

	for _, v := range g.candidates(row, fixed, axis) {
		row[axis] = v
		if g.valid(row[:axis+1]) && g.fill(row, fixed, axis+1) {
			return true
		}
	}
	return false
}

// candidates orders the values of axis by how many open combinations they
// would complete given the values already placed in row.
func (g *generator) candidates(row []int, fixed []bool, axis int) []int {
	type scored struct {
		value   int
		gain    int
		pending int
	}

	assigned := func(a int) bool { return a < axis || fixed[a] }

	out := make([]scored, g.sizes[axis])
	for v := range g.sizes[axis] {
		out[v] = scored{value: v, pending: g.pending[axis][v]}
	}

	for _, si := range g.byAxis[axis] {
		axes := g.subsets[si]
		complete := true
		for _, a := range axes {
			if a != axis && !assigned(a) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for v := range g.sizes[axis] {
			if !g.done[g.encodeWith(si, row, axis, v)] {
				out[v].gain++
			}
		}
	}

	slices.SortStableFunc(out, func(a, b scored) int {
		if a.gain != b.gain {
			return b.gain - a.gain
		}
		if a.pending != b.pending {
			return b.pending - a.pending
		}
		return a.value - b.value
	})

	values := make([]int, len(out))
	for i, s := range out {
		values[i] = s.value
	}
	return values
}

// cover marks every combination contained in row.
func (g *generator) cover(row []int) {
	for si := range g.subsets {
		id := g.encodeWith(si, row, -1, 0)
		if !g.done[id] {
			g.retire(id)
		}
	}
}

func (g *generator) retire(id int) {
	g.done[id] = true
	g.remaining--

	axes, vals := g.decode(id)
	for i, a := range axes {
		g.pending[a][vals[i]]--
	}
}

// encodeWith returns the id of subset si's tuple taken from row, with
// axis override replaced by value (override < 0 disables it).
func (g *generator) encodeWith(si int, row []int, override, value int) int {
	code := 0
	for _, a := range g.subsets[si] {
		v := row[a]
		if a == override {
			v = value
		}
		code = code*g.sizes[a] + v
	}
	return g.offsets[si] + code
}

func (g *generator) decode(id int) (axes []int, vals []int) {
	si := 0
	for g.offsets[si+1] <= id {
		si++
	}
	axes = g.subsets[si]
	vals = make([]int, len(axes))

	code := id - g.offsets[si]
	for i := len(axes) - 1; i >= 0; i-- {
		size := g.sizes[axes[i]]
		vals[i] = code % size
		code /= size
	}
	return axes, vals
}

// combinations returns all size-k subsets of {0..n-1} in lexicographic order.
func combinations(n, k int) [][]int {
	var out [][]int
	current := make([]int, 0, k)

	var walk func(start int)
	walk = func(start int) {
		if len(current) == k {
			out = append(out, slices.Clone(current))
			return
		}
		for i := start; i <= n-(k-len(current)); i++ {
			current = append(current, i)
			walk(i + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)

	return out
}
