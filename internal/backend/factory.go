package backend

import (
	"context"
	"fmt"

	"fondo/internal/log"
	gsheet "fondo/internal/sheets/google"
	"fondo/internal/sheets/memory"
	"fondo/internal/source/csvfile"
	"fondo/internal/storage"
)

// DefaultFactory builds the sources fondo ships with.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend validates config and opens the selected source. Nothing is
// read yet; the Store does that on its first Load.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Kind {
	case KindCSV:
		return f.csv(config.CSV), nil
	case KindSQLite:
		return f.sqlite(config.SQLite)
	case KindSheets:
		return f.sheets(ctx, config.Sheets)
	default:
		return f.memory(), nil
	}
}

func (f *DefaultFactory) csv(opts CSVOptions) *BackendResult {
	f.logger.Info("Using CSV source",
		log.FieldSource, opts.Path,
		"delimiter", string(opts.Delimiter))
	return &BackendResult{Source: csvfile.New(opts.Path, csvfile.WithDelimiter(opts.Delimiter))}
}

func (f *DefaultFactory) sqlite(opts SQLiteOptions) (*BackendResult, error) {
	repo, err := storage.OpenExisting(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite source: %w", err)
	}
	f.logger.Info("Using SQLite source",
		log.FieldSource, opts.Path,
		"schema_version", repo.SchemaVersion())
	return &BackendResult{Source: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) sheets(ctx context.Context, cfg gsheet.Config) (*BackendResult, error) {
	client, err := gsheet.New(ctx, cfg, f.logger)
	if err != nil {
		return nil, fmt.Errorf("open sheets source: %w", err)
	}
	f.logger.Info("Using Google Sheets source", log.FieldSource, client.Name())
	return &BackendResult{Source: client}, nil
}

func (f *DefaultFactory) memory() *BackendResult {
	sample := memory.Sample()
	f.logger.Info("Using built-in sample", log.FieldRecords, len(sample))
	return &BackendResult{Source: memory.New("memory:sample", sample)}
}
