package reader

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
)

type jsonDoc struct {
	file   string
	fields map[string]any
}

// JSONReader looks up top-level members of .json files.
type JSONReader struct {
	dir  string
	docs []jsonDoc
}

// OpenJSON decodes every .json file in dir. Each file must hold an object.
func OpenJSON(dir string) (*JSONReader, error) {
	files, err := listFiles(dir, ".json")
	if err != nil {
		return nil, err
	}

	r := &JSONReader{dir: dir}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f, err)
		}
		r.docs = append(r.docs, jsonDoc{file: f, fields: fields})
	}
	return r, nil
}

// Dir returns the directory the reader was opened on.
func (r *JSONReader) Dir() string { return r.dir }

// Value returns the member name as a float64 or a []float64. When the
// member is an object its "values" member is used. Files that disagree
// on the member are an error.
func (r *JSONReader) Value(name string) (any, error) {
	var (
		found any
		from  string
	)
	for _, d := range r.docs {
		v, ok := d.fields[name]
		if !ok {
			continue
		}
		if from == "" {
			found, from = v, d.file
			continue
		}
		if !reflect.DeepEqual(found, v) {
			return nil, fmt.Errorf("%w: %s differs between %s and %s", ErrAmbiguous, name, from, d.file)
		}
	}
	if from == "" {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, r.dir)
	}

	if obj, ok := found.(map[string]any); ok {
		values, ok := obj["values"]
		if !ok {
			return nil, fmt.Errorf("%s: %s is an object without values", from, name)
		}
		found = values
	}

	switch v := found.(type) {
	case float64:
		return v, nil
	case []any:
		out := make([]float64, len(v))
		for i, e := range v {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("%s: %s[%d] is not a number", from, name, i)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: %s is not a number or a list of numbers", from, name)
}
