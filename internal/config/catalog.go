// Package config loads the CI catalog: compiler groups, backends, boost
// versions, compatibility rules and the rendering tables.
//
// The catalog is a CUE document checked against the #Catalog definition in
// schema.cue. The built-in catalog is embedded; a user catalog replaces it
// completely.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/picongpu/picci/internal/matrix"
	"github.com/picongpu/picci/internal/render"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed catalog.cue
var catalogSource []byte

// DefaultName is the file name reported in errors from the embedded catalog.
const DefaultName = "catalog.cue"

// Catalog is the compiled catalog.
type Catalog struct {
	Groups        []matrix.CompilerGroup
	Backends      []matrix.Backend
	BoostVersions []string
	Rules         matrix.RuleSet
	Render        render.Config
}

// Space returns the matrix space for folders. With limitBoost only every
// second boost version is used.
func (c *Catalog) Space(folders []string, limitBoost bool) *matrix.Space {
	boost := c.BoostVersions
	if limitBoost {
		boost = matrix.LimitBoost(boost)
	}
	return &matrix.Space{
		Groups:   c.Groups,
		Backends: c.Backends,
		Boost:    boost,
		Folders:  folders,
		Rules:    c.Rules,
	}
}

// Default compiles the embedded catalog.
func Default() (*Catalog, error) {
	return CompileBytes(DefaultName, catalogSource)
}

// Load compiles the catalog file at path.
func Load(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &CompileError{Field: "catalog", Message: err.Error()}
	}
	return CompileBytes(path, src)
}

// CompileBytes compiles src, reporting positions against filename.
func CompileBytes(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := ctx.CompileBytes(src, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Catalog")).Unify(doc)
	return Compile(v)
}

// Compile extracts a Catalog from a value that already satisfies #Catalog.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	cat := &Catalog{}
	var err error

	if cat.Groups, err = parseGroups(v.LookupPath(cue.ParsePath("groups"))); err != nil {
		return nil, err
	}
	if cat.Backends, err = parseBackends(v.LookupPath(cue.ParsePath("backends"))); err != nil {
		return nil, err
	}
	if err := decode(v, "boost_versions", &cat.BoostVersions); err != nil {
		return nil, err
	}
	if err := decode(v, "rules", &cat.Rules); err != nil {
		return nil, err
	}
	if err := decode(v, "images", &cat.Render.Images); err != nil {
		return nil, err
	}
	if err := decode(v, "backend_settings", &cat.Render.Backends); err != nil {
		return nil, err
	}
	if err := decode(v, "before_script", &cat.Render.BeforeScript); err != nil {
		return nil, err
	}
	if err := decode(v, "run_folders", &cat.Render.RunFolders); err != nil {
		return nil, err
	}

	return cat, nil
}

func parseGroups(v cue.Value) ([]matrix.CompilerGroup, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var groups []matrix.CompilerGroup
	seen := map[string]bool{}
	for iter.Next() {
		gv := iter.Value()

		var doc struct {
			Name      string `json:"name"`
			Compilers []struct {
				Host    string `json:"host"`
				Version string `json:"version"`
				Device  string `json:"device"`
			} `json:"compilers"`
		}
		if err := gv.Decode(&doc); err != nil {
			return nil, formatCUEError(err)
		}

		if seen[doc.Name] {
			return nil, &CompileError{
				Field:   "groups",
				Message: fmt.Sprintf("duplicate group %q", doc.Name),
				Pos:     gv.Pos(),
			}
		}
		seen[doc.Name] = true

		var elems []cue.Value
		if ci, err := gv.LookupPath(cue.ParsePath("compilers")).List(); err == nil {
			for ci.Next() {
				elems = append(elems, ci.Value())
			}
		}

		group := matrix.CompilerGroup{Name: doc.Name}
		for i, c := range doc.Compilers {
			compiler, err := matrix.NewCompiler(c.Host, c.Version, c.Device)
			if err != nil {
				ce := &CompileError{
					Field:   fmt.Sprintf("groups.%s.compilers[%d].version", doc.Name, i),
					Message: err.Error(),
					Pos:     gv.Pos(),
				}
				if i < len(elems) {
					ce.Pos = elems[i].LookupPath(cue.ParsePath("version")).Pos()
				}
				return nil, ce
			}
			group.Compilers = append(group.Compilers, compiler)
		}
		groups = append(groups, group)
	}

	return groups, nil
}

func parseBackends(v cue.Value) ([]matrix.Backend, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var backends []matrix.Backend
	for i := 0; iter.Next(); i++ {
		bv := iter.Value()

		var doc struct {
			Kind    string `json:"kind"`
			Version string `json:"version"`
		}
		if err := bv.Decode(&doc); err != nil {
			return nil, formatCUEError(err)
		}

		b, err := matrix.NewBackend(doc.Kind, doc.Version)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("backends[%d].version", i),
				Message: err.Error(),
				Pos:     bv.LookupPath(cue.ParsePath("version")).Pos(),
			}
		}
		backends = append(backends, b)
	}

	return backends, nil
}

func decode(v cue.Value, field string, into any) error {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	if err := fv.Decode(into); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// CompileError is a catalog error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes every CompileError a configuration error.
func (e *CompileError) Is(target error) bool {
	return target == matrix.ErrConfiguration
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}

	first := errs[0]
	ce := &CompileError{Field: "cue", Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	if path := first.Path(); len(path) > 0 {
		ce.Field = strings.Join(path, ".")
	}
	return ce
}

// IsCompileError reports whether err carries catalog position info.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
