package matrix

import (
	"slices"

	"github.com/picongpu/picci/internal/pairwise"
)

// Range is a numeric interval. A nil bound is open.
type Range struct {
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	MinExclusive bool     `json:"min_exclusive,omitempty"`
	MaxExclusive bool     `json:"max_exclusive,omitempty"`
}

// Exactly returns the range [v, v].
func Exactly(v float64) Range {
	return Range{Min: &v, Max: &v}
}

// AtLeast returns [v, +inf).
func AtLeast(v float64) Range {
	return Range{Min: &v}
}

// AtMost returns (-inf, v].
func AtMost(v float64) Range {
	return Range{Max: &v}
}

// Between returns [lo, hi].
func Between(lo, hi float64) Range {
	return Range{Min: &lo, Max: &hi}
}

// Below returns (-inf, v).
func Below(v float64) Range {
	return Range{Max: &v, MaxExclusive: true}
}

// Contains reports whether v lies inside r.
func (r Range) Contains(v float64) bool {
	if r.Min != nil {
		if r.MinExclusive && v <= *r.Min {
			return false
		}
		if !r.MinExclusive && v < *r.Min {
			return false
		}
	}
	if r.Max != nil {
		if r.MaxExclusive && v >= *r.Max {
			return false
		}
		if !r.MaxExclusive && v > *r.Max {
			return false
		}
	}
	return true
}

// Rule is one entry of the compatibility table. Every set condition must
// hold for the rule to match; empty conditions match anything.
type Rule struct {
	Name  string `json:"name"`
	Allow bool   `json:"allow"`

	Hosts          []string `json:"hosts,omitempty"`
	Devices        []string `json:"devices,omitempty"` // DeviceNone matches no device
	Backends       []string `json:"backends,omitempty"`
	ExceptBackends []string `json:"except_backends,omitempty"`

	CompilerVersion Range `json:"compiler_version"`
	BackendVersion  Range `json:"backend_version"`
}

// Matches reports whether every condition of the rule holds.
func (r Rule) Matches(c Compiler, b Backend) bool {
	if len(r.Hosts) > 0 && !slices.Contains(r.Hosts, c.Host) {
		return false
	}
	if len(r.Devices) > 0 {
		device := c.Device
		if device == "" {
			device = DeviceNone
		}
		if !slices.Contains(r.Devices, device) {
			return false
		}
	}
	if len(r.Backends) > 0 && !slices.Contains(r.Backends, b.Kind) {
		return false
	}
	if slices.Contains(r.ExceptBackends, b.Kind) {
		return false
	}
	return r.CompilerVersion.Contains(c.num) && r.BackendVersion.Contains(b.num)
}

// RuleSet is an ordered compatibility table. The first matching rule
// decides; a pair no rule matches is allowed.
type RuleSet []Rule

// Decide returns the verdict and the deciding rule, nil when none matched.
func (rs RuleSet) Decide(c Compiler, b Backend) (bool, *Rule) {
	for i := range rs {
		if rs[i].Matches(c, b) {
			return rs[i].Allow, &rs[i]
		}
	}
	return true, nil
}

// Allow reports whether compiler c may be combined with backend b.
func (rs RuleSet) Allow(c Compiler, b Backend) bool {
	ok, _ := rs.Decide(c, b)
	return ok
}

// PrefixPredicate adapts the rule set to rows of (compiler, backend, ...)
// indices. Prefixes shorter than two axes are always valid.
func (rs RuleSet) PrefixPredicate(compilers []Compiler, backends []Backend) pairwise.Predicate {
	return func(prefix []int) bool {
		if len(prefix) < 2 {
			return true
		}
		return rs.Allow(compilers[prefix[0]], backends[prefix[1]])
	}
}

// DefaultRules is the built-in compatibility table for the CI images.
// The embedded catalog carries the same rules.
func DefaultRules() RuleSet {
	var (
		nvcc      = []string{"nvcc"}
		clangCuda = []string{"clangCuda"}
		hipcc     = []string{"hipcc"}
		clang     = []string{"clang++"}
		gnu       = []string{"g++"}
		cuda      = []string{"cuda"}
	)

	return RuleSet{
		{Name: "nvcc image ships no clang++", Devices: nvcc, Hosts: clang},

		{Name: "hip with hipcc and clang 12", Allow: true, Backends: []string{"hip"}, Devices: hipcc, Hosts: clang, CompilerVersion: Exactly(12)},
		{Name: "hip needs hipcc", Backends: []string{"hip"}},
		{Name: "hipcc needs hip", Devices: hipcc},

		{Name: "clang 12 only in hip image", Hosts: clang, CompilerVersion: Exactly(12)},
		{Name: "clangCuda image lacks clang 7 with cuda 9.2", Devices: clangCuda, Backends: cuda, CompilerVersion: Exactly(7), BackendVersion: Exactly(9.2)},

		{Name: "device compiler needs cuda", Devices: []string{"nvcc", "clangCuda"}, ExceptBackends: cuda},
		{Name: "host compiler cannot build cuda", Devices: []string{DeviceNone, "hipcc"}, Backends: cuda},

		{Name: "clangCuda cuda 9.2", Allow: true, Devices: clangCuda, Backends: cuda, BackendVersion: Exactly(9.2), CompilerVersion: AtLeast(7)},
		{Name: "clangCuda cuda 10.0", Allow: true, Devices: clangCuda, Backends: cuda, BackendVersion: Exactly(10.0), CompilerVersion: AtLeast(8)},
		{Name: "clangCuda cuda 10.1", Allow: true, Devices: clangCuda, Backends: cuda, BackendVersion: Exactly(10.1), CompilerVersion: AtLeast(9)},
		{Name: "clangCuda cuda 11", Allow: true, Devices: clangCuda, Backends: cuda, BackendVersion: AtLeast(11.0), CompilerVersion: AtLeast(11)},
		{Name: "clangCuda unsupported", Devices: clangCuda},

		{Name: "nvcc rejects g++ 5", Devices: nvcc, Hosts: gnu, Backends: cuda, CompilerVersion: Exactly(5)},
		{Name: "nvcc g++ cuda <= 10.1", Allow: true, Devices: nvcc, Hosts: gnu, Backends: cuda, BackendVersion: AtMost(10.1), CompilerVersion: AtMost(7)},
		{Name: "nvcc g++ cuda 10.2", Allow: true, Devices: nvcc, Hosts: gnu, Backends: cuda, BackendVersion: Exactly(10.2), CompilerVersion: AtMost(8)},
		{Name: "nvcc g++ cuda 11.0", Allow: true, Devices: nvcc, Hosts: gnu, Backends: cuda, BackendVersion: Exactly(11.0), CompilerVersion: AtMost(9)},
		{Name: "nvcc g++ 10 bug", Devices: nvcc, Hosts: gnu, Backends: cuda, BackendVersion: AtLeast(11.1), CompilerVersion: Exactly(10)},
		{Name: "nvcc g++ cuda >= 11.1", Allow: true, Devices: nvcc, Hosts: gnu, Backends: cuda, BackendVersion: AtLeast(11.1), CompilerVersion: Below(10)},

		{Name: "nvcc clang++ cuda 9.2", Allow: true, Devices: nvcc, Hosts: clang, Backends: cuda, BackendVersion: Exactly(9.2), CompilerVersion: AtMost(5)},
		{Name: "nvcc clang++ cuda 10.x", Allow: true, Devices: nvcc, Hosts: clang, Backends: cuda, BackendVersion: Between(10.0, 10.2), CompilerVersion: AtMost(8)},
		{Name: "nvcc clang++ cuda 11.0", Allow: true, Devices: nvcc, Hosts: clang, Backends: cuda, BackendVersion: Exactly(11.0), CompilerVersion: AtMost(9)},
		{Name: "nvcc clang++ cuda >= 11.1", Allow: true, Devices: nvcc, Hosts: clang, Backends: cuda, BackendVersion: AtLeast(11.1), CompilerVersion: AtMost(10)},

		{Name: "nvcc unsupported", Devices: nvcc, Backends: cuda},
	}
}
