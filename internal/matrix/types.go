package matrix

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceNone is used in rules to match compilers without a device compiler.
const DeviceNone = "none"

// Compiler is a host compiler, optionally paired with a device compiler.
type Compiler struct {
	Host    string `json:"host"`
	Version string `json:"version"`
	Device  string `json:"device,omitempty"`

	num float64
}

// NewCompiler parses version and returns a Compiler.
func NewCompiler(host, version, device string) (Compiler, error) {
	num, err := parseVersion(version)
	if err != nil {
		return Compiler{}, &ConfigError{
			Field:   "compiler",
			Message: fmt.Sprintf("%s version %q is not numeric", host, version),
			Err:     err,
		}
	}
	return Compiler{Host: host, Version: version, Device: device, num: num}, nil
}

// VersionNumber returns the numeric compiler version.
func (c Compiler) VersionNumber() float64 { return c.num }

// Name returns host and version joined by a dash, e.g. "g++-9".
func (c Compiler) Name() string {
	return c.Host + "-" + c.Version
}

func (c Compiler) String() string {
	if c.Device == "" {
		return c.Host + " " + c.Version
	}
	return c.Host + " " + c.Version + " " + c.Device
}

// Backend is an accelerator backend. Version is empty for CPU backends.
type Backend struct {
	Kind    string `json:"kind"`
	Version string `json:"version,omitempty"`

	num float64
}

// NewBackend parses version (if any) and returns a Backend.
func NewBackend(kind, version string) (Backend, error) {
	b := Backend{Kind: kind, Version: version}
	if version == "" {
		return b, nil
	}
	num, err := parseVersion(version)
	if err != nil {
		return Backend{}, &ConfigError{
			Field:   "backend",
			Message: fmt.Sprintf("%s version %q is not numeric", kind, version),
			Err:     err,
		}
	}
	b.num = num
	return b, nil
}

// VersionNumber returns the numeric backend version, 0 when unversioned.
func (b Backend) VersionNumber() float64 { return b.num }

// Label returns kind and version concatenated, e.g. "cuda11.0" or "serial".
func (b Backend) Label() string {
	return b.Kind + b.Version
}

func (b Backend) String() string {
	if b.Version == "" {
		return b.Kind
	}
	return b.Kind + " " + b.Version
}

// Job is one row of the covering array.
type Job struct {
	Compiler Compiler `json:"compiler"`
	Backend  Backend  `json:"backend"`
	Boost    string   `json:"boost"`
	Folder   string   `json:"folder"`
}

func (j Job) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s)", j.Compiler, j.Backend, j.Boost, j.Folder)
}

// CompilerGroup is a named family of compilers.
type CompilerGroup struct {
	Name      string
	Compilers []Compiler
}

func parseVersion(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
