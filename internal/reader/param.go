package reader

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/picongpu/picci/internal/physics"
)

// ErrCycle is returned when a parameter depends on itself.
var ErrCycle = errors.New("parameter refers to itself")

// builtins resolve names the .param files use without defining them.
var builtins = map[string]float64{
	"SPEED_OF_LIGHT_SI":  physics.SpeedOfLight,
	"ELECTRON_MASS_SI":   physics.ElectronMass,
	"ELECTRON_CHARGE_SI": -physics.ElementaryCharge,
	"EPS0_SI":            physics.VacuumPermittivity,
	"MUE0_SI":            1 / (physics.VacuumPermittivity * physics.SpeedOfLight * physics.SpeedOfLight),
}

type definition struct {
	expr string
	file string
	line int
}

// ParamReader evaluates constants defined in .param files.
type ParamReader struct {
	dir  string
	defs map[string]definition
}

// OpenParams parses every .param file in dir. A name defined more than
// once takes its last definition; a #define guarded by a matching #ifndef
// only applies when the name is still undefined.
func OpenParams(dir string) (*ParamReader, error) {
	files, err := listFiles(dir, ".param")
	if err != nil {
		return nil, err
	}

	r := &ParamReader{dir: dir, defs: make(map[string]definition)}
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		parseDefinitions(f, string(src), r.defs)
	}
	return r, nil
}

// Dir returns the directory the reader was opened on.
func (r *ParamReader) Dir() string { return r.dir }

// Names returns every defined name, sorted.
func (r *ParamReader) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Value evaluates the parameter name. Qualified names are looked up by
// their last segment.
func (r *ParamReader) Value(name string) (float64, error) {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return r.resolve(name, make(map[string]bool))
}

func (r *ParamReader) resolve(name string, active map[string]bool) (float64, error) {
	def, ok := r.defs[name]
	if !ok {
		if v, ok := builtins[name]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("%w: %s in %s", ErrNotFound, name, r.dir)
	}
	if active[name] {
		return 0, fmt.Errorf("%s:%d: %s: %w", def.file, def.line, name, ErrCycle)
	}
	active[name] = true
	defer delete(active, name)

	v, err := evaluate(def.expr, func(ref string) (float64, error) {
		return r.resolve(ref, active)
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%d: %s: %w", def.file, def.line, name, err)
	}
	return v, nil
}

// parseDefinitions records the #define directives and NAME = expr;
// statements of one file into defs.
func parseDefinitions(file, src string, defs map[string]definition) {
	lines := strings.Split(stripComments(src), "\n")

	var (
		body   strings.Builder
		guards []string
	)
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "#") {
			body.WriteString(lines[i])
			body.WriteByte('\n')
			continue
		}

		start := i
		for strings.HasSuffix(trimmed, `\`) && i+1 < len(lines) {
			i++
			trimmed = strings.TrimSuffix(trimmed, `\`) + " " + strings.TrimSpace(lines[i])
			body.WriteByte('\n')
		}
		body.WriteByte('\n')

		directive, rest := cutField(strings.TrimSpace(trimmed[1:]))
		switch directive {
		case "ifndef":
			guards = append(guards, strings.TrimSpace(rest))
		case "if", "ifdef":
			guards = append(guards, "")
		case "endif":
			if len(guards) > 0 {
				guards = guards[:len(guards)-1]
			}
		case "define":
			name, expr := cutField(rest)
			if name == "" || expr == "" || strings.Contains(name, "(") {
				continue
			}
			if len(guards) > 0 && guards[len(guards)-1] == name {
				if _, defined := defs[name]; defined {
					continue
				}
			}
			defs[name] = definition{expr: expr, file: file, line: start + 1}
		}
	}

	code := body.String()
	for start := 0; start < len(code); {
		end := strings.IndexByte(code[start:], ';')
		if end < 0 {
			break
		}
		if name, expr, at, ok := assignment(code[start : start+end]); ok {
			line := 1 + strings.Count(code[:start+at], "\n")
			defs[name] = definition{expr: expr, file: file, line: line}
		}
		start += end + 1
	}
}

// assignment splits a statement such as "constexpr float_64 X = 1.0" into
// the assigned name and expression. at is the offset of the '='.
func assignment(stmt string) (name, expr string, at int, ok bool) {
	at = -1
	for i := 0; i < len(stmt); i++ {
		if stmt[i] != '=' {
			continue
		}
		if i+1 < len(stmt) && stmt[i+1] == '=' {
			i++
			continue
		}
		if i > 0 && strings.IndexByte("=!<>+-*/", stmt[i-1]) >= 0 {
			continue
		}
		at = i
		break
	}
	if at < 0 {
		return "", "", 0, false
	}

	lhs := strings.TrimRightFunc(stmt[:at], isSpace)
	j := len(lhs)
	for j > 0 && isIdentPart(lhs[j-1]) {
		j--
	}
	name = lhs[j:]
	if name == "" || !isIdentStart(name[0]) {
		return "", "", 0, false
	}

	expr = strings.TrimSpace(stmt[at+1:])
	if expr == "" {
		return "", "", 0, false
	}
	return name, expr, at, true
}

// stripComments blanks out // and /* */ comments, keeping newlines so
// line numbers stay valid. String literals are left untouched.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		switch {
		case src[i] == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' && src[j] != '\n' {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				j = len(src) - 1
			}
			b.WriteString(src[i : j+1])
			i = j
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				end = len(src) - i - 2
			}
			b.WriteString(strings.Repeat("\n", strings.Count(src[i:i+2+end], "\n")))
			i += 2 + end + 1
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

func cutField(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, isSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\r' || r == '\n' }
