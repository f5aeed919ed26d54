// Package pairwise builds N-wise covering arrays.
//
// A covering array of strength N over K axes is a list of rows, one value
// index per axis, such that every combination of values drawn from any N
// distinct axes appears in at least one row. The generator works on value
// indices only; callers map indices back to their own domain values.
//
// # Validity
//
// Rows are filtered by a Predicate that is evaluated on prefixes: while a
// row is built, the predicate sees axes 0..i for every i. A combination
// that cannot appear in any complete valid row is not required to be
// covered and is silently dropped.
//
// # Construction
//
// Construction is greedy (AETG style). Each new row is seeded with the
// first uncovered combination in enumeration order and the remaining axes
// are filled in axis order, picking for each axis the value that completes
// the most uncovered combinations. Ties go to the value that still appears
// in the most uncovered combinations, then to the lowest index. When the
// predicate rejects a prefix the filler backtracks.
//
// The result is deterministic for a fixed input. Minimality is best
// effort.
//
// Example:
//
//	rows, err := pairwise.Generate(ctx, []int{3, 2, 2}, 2, nil)
//	// every pair of values from any two axes occurs in some row
package pairwise
