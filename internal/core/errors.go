package core

import (
	"errors"
	"fmt"
)

var (
	ErrSourceMissing = errors.New("source missing")
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidYear   = errors.New("invalid year")
)

// LoadError reports why a dataset could not be loaded. It is fatal: no
// partial dataset is ever served.
type LoadError struct {
	Source string // file path, table or sheet range
	Line   int    // 1-based line or row, 0 when not row-specific
	Column string // source column name, empty when not column-specific
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("load %s: line %d, column %s: %v", e.Source, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("load %s: line %d: %v", e.Source, e.Line, e.Err)
	case e.Column != "":
		return fmt.Sprintf("load %s: column %s: %v", e.Source, e.Column, e.Err)
	default:
		return fmt.Sprintf("load %s: %v", e.Source, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is, or wraps, a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
