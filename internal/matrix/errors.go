package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every ConfigError via errors.Is.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyInput is returned when no case folders were supplied.
	// Callers treat it as zero jobs rather than a failure.
	ErrEmptyInput = errors.New("no case folders on input")
)

// ConfigError reports invalid user input or catalog data.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports ErrConfiguration as a match.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}
