// Package render turns covering-array jobs into CI job descriptions.
//
// The Renderer holds every lookup table it needs (base images, backend
// container variables, before-script lines) so tests can build one from
// literals without touching the embedded catalog.
package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/picongpu/picci/internal/matrix"
	"github.com/picongpu/picci/internal/stage"
)

// Image suffixes chosen by the case folder.
const (
	RunSuffix     = "_run"
	CompileSuffix = "_compile"
)

// BackendSettings describes backend-specific job content.
type BackendSettings struct {
	// ImageSuffix is appended to the base image, e.g. "_cuda".
	ImageSuffix string `json:"image_suffix,omitempty"`

	// ContainerVariable names the variable that selects the container
	// version. Empty means no variable.
	ContainerVariable string `json:"container_variable,omitempty"`

	// StripVersionDots removes dots from the container version ("11.0" -> "110").
	StripVersionDots bool `json:"strip_version_dots,omitempty"`

	// BeforeScript lines run before the common lines.
	BeforeScript []string `json:"before_script,omitempty"`
}

// Config is the static data a Renderer looks values up in.
type Config struct {
	// Images maps "host" or "host_device" to a base image reference.
	Images map[string]string `json:"images"`

	Backends     map[string]BackendSettings `json:"backends"`
	BeforeScript []string                   `json:"before_script"`

	// RunFolders are case folders whose jobs execute tests rather than
	// only compiling.
	RunFolders []string `json:"run_folders"`
}

// Variable is one ordered job variable.
type Variable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// JobDescriptor is a rendered CI job.
type JobDescriptor struct {
	Name         string     `json:"name"`
	Stage        int        `json:"stage"`
	Index        int        `json:"index"`
	Variables    []Variable `json:"variables"`
	BeforeScript []string   `json:"before_script"`
	Extends      string     `json:"extends"`
}

// LookupError is returned when no base image exists for a compiler.
type LookupError struct {
	Key      string
	Compiler matrix.Compiler
	Backend  matrix.Backend
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no base image %q for compiler %s with backend %s",
		e.Key, e.Compiler, e.Backend)
}

// Renderer renders jobs against a Config.
type Renderer struct {
	cfg Config
}

// NewRenderer returns a Renderer using cfg.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render builds the descriptor for job at flat index placed in stageIndex.
func (r *Renderer) Render(job matrix.Job, stageIndex, index int) (JobDescriptor, error) {
	extends, err := r.image(job)
	if err != nil {
		return JobDescriptor{}, err
	}

	c, b := job.Compiler, job.Backend
	settings := r.cfg.Backends[b.Kind]

	var vars []Variable
	if settings.ContainerVariable != "" {
		v := b.Version
		if settings.StripVersionDots {
			v = strings.ReplaceAll(v, ".", "")
		}
		vars = append(vars, Variable{Key: settings.ContainerVariable, Value: v})
	}
	vars = append(vars,
		Variable{Key: "PIC_TEST_CASE_FOLDER", Value: job.Folder},
		Variable{Key: "PIC_BACKEND", Value: b.Kind},
		Variable{Key: "BOOST_VERSION", Value: job.Boost},
		Variable{Key: "CXX_VERSION", Value: c.Name()},
	)

	script := make([]string, 0, len(settings.BeforeScript)+len(r.cfg.BeforeScript))
	script = append(script, settings.BeforeScript...)
	script = append(script, r.cfg.BeforeScript...)

	return JobDescriptor{
		Name:         JobName(job),
		Stage:        stageIndex,
		Index:        index,
		Variables:    vars,
		BeforeScript: script,
		Extends:      extends,
	}, nil
}

// RenderStages renders every job in stage order. It stops at the first
// error and returns no descriptors in that case.
func (r *Renderer) RenderStages(stages []stage.Stage[matrix.Job]) ([]JobDescriptor, error) {
	var out []JobDescriptor
	for _, s := range stages {
		for _, e := range s.Entries {
			d, err := r.Render(e.Value, s.Index, e.Index)
			if err != nil {
				return nil, fmt.Errorf("job %d: %w", e.Index, err)
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *Renderer) image(job matrix.Job) (string, error) {
	key := job.Compiler.Host
	if job.Compiler.Device != "" {
		key += "_" + job.Compiler.Device
	}

	img, ok := r.cfg.Images[key]
	if !ok {
		return "", &LookupError{Key: key, Compiler: job.Compiler, Backend: job.Backend}
	}

	img += r.cfg.Backends[job.Backend.Kind].ImageSuffix
	if slices.Contains(r.cfg.RunFolders, job.Folder) {
		return img + RunSuffix, nil
	}
	return img + CompileSuffix, nil
}

// JobName returns the pipeline job name, e.g.
// "g++-9_cuda11.0_boost1.75.0_share.picongpu.examples.KelvinHelmholtz".
func JobName(job matrix.Job) string {
	return job.Compiler.Name() + "_" + job.Backend.Label() +
		"_boost" + job.Boost + "_" + strings.ReplaceAll(job.Folder, "/", ".")
}
