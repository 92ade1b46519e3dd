package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"fondo/internal/backend"
	"fondo/internal/config"
	"fondo/internal/core"
	"fondo/internal/dataset"
	"fondo/internal/engine"
	"fondo/internal/log"
	"fondo/internal/metrics"
)

// LoadEnvFile seeds the environment from a dotenv file for local
// development. A missing file is not an error; variables already set win.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return WrapExitError(ExitCommandError, "read env file "+path, err)
	}
	return nil
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// verbose forces debug level.
func SetupLogger(cfg *config.Config, out io.Writer, verbose bool) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configure logging", err)
	}
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    out,
	}), nil
}

// LoadProfile returns PROFILE_FILE when set, the built-in PROFILE otherwise.
func LoadProfile(cfg *config.Config) (engine.Profile, error) {
	if cfg.ProfileFile != "" {
		p, err := engine.LoadProfileFile(cfg.ProfileFile)
		if err != nil {
			return engine.Profile{}, WrapExitError(ExitCommandError, "load profile", err)
		}
		return p, nil
	}
	p, err := engine.BuiltinProfile(cfg.Profile)
	if err != nil {
		return engine.Profile{}, WrapExitError(ExitCommandError, "load profile", err)
	}
	return p, nil
}

// OpenStore creates the configured source and a Store over it. The caller
// owns the returned cleanup.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*dataset.Store, backend.CleanupFunc, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "configure data source", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		if core.IsLoadError(err) {
			return nil, nil, WrapExitError(ExitFailure, "open data source", err)
		}
		return nil, nil, WrapExitError(ExitCommandError, "open data source", err)
	}

	store := dataset.NewStore(res.Source, logger)
	store.OnLoad = func(ds *core.Dataset, took time.Duration, err error) {
		n := 0
		if ds != nil {
			n = ds.Len()
		}
		metrics.ObserveLoad(n, took, err)
	}

	cleanup := res.Cleanup
	if cleanup == nil {
		cleanup = func() error { return nil }
	}
	return store, cleanup, nil
}

// loadDataset reads the dataset once. Every failure is fatal.
func loadDataset(ctx context.Context, store *dataset.Store) (*core.Dataset, error) {
	ds, err := store.Load(ctx)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "load dataset", err)
	}
	return ds, nil
}

func closeQuietly(logger *log.Logger, cleanup backend.CleanupFunc) {
	if err := cleanup(); err != nil {
		logger.Warn("Data source cleanup failed", log.FieldError, err)
	}
}

func describeSource(cfg *config.Config) string {
	switch cfg.DataSource {
	case "csv":
		return fmt.Sprintf("csv %s", cfg.CSVPath)
	case "sqlite":
		return fmt.Sprintf("sqlite %s", cfg.SQLiteDBPath)
	case "sheets":
		return fmt.Sprintf("sheets %s %s", cfg.GoogleSpreadsheetID, cfg.GoogleSheetRange)
	default:
		return cfg.DataSource
	}
}
