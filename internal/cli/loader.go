package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/picongpu/picci/internal/config"
	"github.com/picongpu/picci/internal/harness"
	"github.com/picongpu/picci/internal/matrix"
	"github.com/picongpu/picci/internal/reader"
	"github.com/picongpu/picci/internal/render"
)

// LoadError is a command error with an error code and, for catalog
// errors, the CUE position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadCatalog compiles the catalog at path, or the embedded one when path
// is empty.
func LoadCatalog(path string) (*config.Catalog, error) {
	if path == "" {
		cat, err := config.Default()
		if err != nil {
			return nil, convertError(err, "embedded catalog")
		}
		return cat, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("catalog not found: %s", path),
			Err:     err,
		}
	}

	cat, err := config.Load(path)
	if err != nil {
		return nil, convertError(err, path)
	}
	return cat, nil
}

// convertError maps a domain error to a LoadError with its code.
func convertError(err error, context string) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}

	var compileErr *config.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
			Err:     err,
		}
	}

	var lookupErr *render.LookupError
	if errors.As(err, &lookupErr) {
		return &LoadError{Code: ErrCodeLookup, Message: err.Error(), Err: err}
	}

	code := ErrCodeGeneric
	switch {
	case errors.Is(err, matrix.ErrConfiguration):
		code = ErrCodeConfig
	case errors.Is(err, harness.ErrInvalidSuite):
		code = ErrCodeSuite
	case errors.Is(err, os.ErrNotExist), errors.Is(err, reader.ErrNotFound), errors.Is(err, reader.ErrNoFiles):
		code = ErrCodeNotFound
	case errors.Is(err, reader.ErrAmbiguous), errors.Is(err, reader.ErrCycle):
		code = ErrCodeInput
	}
	return &LoadError{Code: code, Message: fmt.Sprintf("%s: %v", context, err), Err: err}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Invalid flag value
	ErrCodeInput       = "E003" // Unreadable or inconsistent input
	ErrCodeLookup      = "E004" // No base image for a compiler
	ErrCodeNotFound    = "E005" // Path or parameter not found
	ErrCodeCheckFailed = "E006" // Deviation outside the acceptance range
	ErrCodeWriteFailed = "E007" // Output or log write error
	ErrCodeSuite       = "E008" // Invalid suite file

	// Catalog errors
	ErrCodeCatalog         = "E100" // CUE syntax or schema error
	ErrCodeCatalogGroups   = "E101" // Invalid compiler group
	ErrCodeCatalogBackends = "E102" // Invalid backend
	ErrCodeCatalogRules    = "E103" // Invalid compatibility rule
	ErrCodeCatalogBoost    = "E104" // Invalid boost version list
	ErrCodeCatalogRender   = "E105" // Invalid image or script settings
)

// MapFieldToErrorCode maps a catalog error field to an error code.
func MapFieldToErrorCode(field string) string {
	head, _, _ := strings.Cut(field, ".")
	head, _, _ = strings.Cut(head, "[")

	switch head {
	case "groups":
		return ErrCodeCatalogGroups
	case "backends":
		return ErrCodeCatalogBackends
	case "rules":
		return ErrCodeCatalogRules
	case "boost_versions":
		return ErrCodeCatalogBoost
	case "images", "backend_settings", "before_script", "run_folders":
		return ErrCodeCatalogRender
	case "cue", "catalog":
		return ErrCodeCatalog
	default:
		return ErrCodeGeneric
	}
}
