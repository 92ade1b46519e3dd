// Package backend turns the DATA_SOURCE setting into a dataset.Source.
package backend

import (
	"context"
	"slices"

	"fondo/internal/dataset"
)

// CleanupFunc releases whatever a source keeps open.
type CleanupFunc func() error

// BackendResult is a ready source. Cleanup is nil when the source holds
// nothing open.
type BackendResult struct {
	Source  dataset.Source
	Cleanup CleanupFunc
}

// Factory builds the source a Config describes.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Kind names a data source. The values are the accepted DATA_SOURCE keys.
type Kind string

const (
	KindCSV    Kind = "csv"
	KindSQLite Kind = "sqlite"
	KindSheets Kind = "sheets"
	KindMemory Kind = "memory"
)

// Kinds lists every supported source.
func Kinds() []Kind {
	return []Kind{KindCSV, KindSQLite, KindSheets, KindMemory}
}

func (k Kind) String() string { return string(k) }

func (k Kind) IsValid() bool { return slices.Contains(Kinds(), k) }
