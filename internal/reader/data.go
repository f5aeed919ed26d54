package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// StepColumn is the name the first column gets when its header mentions
// the simulation step.
const StepColumn = "step"

type table struct {
	file    string
	species string
	columns []string
	rows    [][]float64
}

// DataReader reads columns of the whitespace separated .dat tables
// PIConGPU plugins write.
type DataReader struct {
	dir    string
	tables []table
}

// OpenData parses every .dat file in dir.
func OpenData(dir string) (*DataReader, error) {
	files, err := listFiles(dir, ".dat")
	if err != nil {
		return nil, err
	}

	r := &DataReader{dir: dir}
	for _, f := range files {
		t, err := readTable(f)
		if err != nil {
			return nil, err
		}
		r.tables = append(r.tables, t)
	}
	return r, nil
}

func readTable(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	t, err := parseTable(path, f)
	if err != nil {
		return table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// parseTable reads a header line naming the columns as name[unit],
// followed by rows of numbers. Lines starting with # after the header
// are skipped.
func parseTable(path string, in io.Reader) (table, error) {
	base := filepath.Base(path)
	species, _, _ := strings.Cut(base, "_")
	t := table{file: path, species: species}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	width := -1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if t.columns == nil {
			t.columns = headerColumns(text)
			continue
		}
		if strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if width >= 0 && len(fields) != width {
			return table{}, fmt.Errorf("line %d: %d values, expected %d", line, len(fields), width)
		}
		width = len(fields)

		row := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return table{}, fmt.Errorf("line %d: bad value %q", line, s)
			}
			row[i] = v
		}
		t.rows = append(t.rows, row)
	}
	if err := sc.Err(); err != nil {
		return table{}, err
	}
	if t.columns == nil {
		return table{}, fmt.Errorf("missing header")
	}
	return t, nil
}

func headerColumns(header string) []string {
	fields := strings.Fields(strings.TrimPrefix(header, "#"))
	cols := make([]string, len(fields))
	for i, f := range fields {
		name, _, _ := strings.Cut(f, "[")
		cols[i] = name
	}
	if len(cols) > 0 && strings.Contains(cols[0], StepColumn) {
		cols[0] = StepColumn
	}
	return cols
}

func (t table) index(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t table) column(name string) ([]float64, error) {
	i := t.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, t.file)
	}
	out := make([]float64, len(t.rows))
	for r, row := range t.rows {
		if i >= len(row) {
			return nil, fmt.Errorf("%s: row %d has no column %s", t.file, r+1, name)
		}
		out[r] = row[i]
	}
	return out, nil
}

// Dir returns the directory the reader was opened on.
func (r *DataReader) Dir() string { return r.dir }

// Column returns the values of the named column. When several files
// carry the column, species selects the one whose name starts with
// species followed by an underscore, e.g. "e" for e_energy_all.dat.
func (r *DataReader) Column(name, species string) ([]float64, error) {
	if name == StepColumn {
		return r.Steps("")
	}

	var candidates []table
	for _, t := range r.tables {
		if t.index(name) >= 0 {
			candidates = append(candidates, t)
		}
	}

	switch {
	case len(candidates) == 0:
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, r.dir)
	case len(candidates) == 1:
		return candidates[0].column(name)
	case species == "":
		return nil, fmt.Errorf("%w: %s appears in %d files, a species is needed", ErrAmbiguous, name, len(candidates))
	}

	for _, t := range candidates {
		if t.species == species {
			return t.column(name)
		}
	}
	return nil, fmt.Errorf("%w: no file for species %q holds %s", ErrAmbiguous, species, name)
}

// Steps returns the step column of stepFile, or of the first table with
// a step column when stepFile is empty.
func (r *DataReader) Steps(stepFile string) ([]float64, error) {
	for _, t := range r.tables {
		if t.index(StepColumn) < 0 {
			continue
		}
		if stepFile == "" || filepath.Base(t.file) == filepath.Base(stepFile) {
			return t.column(StepColumn)
		}
	}
	if stepFile != "" {
		return nil, fmt.Errorf("%w: %s has no step column in %s", ErrNotFound, stepFile, r.dir)
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, StepColumn, r.dir)
}
