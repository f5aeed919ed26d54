// Package matrix describes the CI test space and expands it into jobs.
//
// A Space has four axes in fixed order: compiler, backend, boost version
// and test case folder. Space.Generate runs the pairwise generator over
// those axes, keeping only rows accepted by the compatibility RuleSet.
//
// For strength 1 the compilers are not one axis but a list of groups
// (clang, gnu, clangCuda, nvcc, hipcc). Each group gets its own covering
// round so that every group contributes jobs; the rounds are concatenated
// in group order. Higher strengths cover the union of all groups in one
// pass.
package matrix
