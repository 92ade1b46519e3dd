package backend

import (
	"errors"
	"fmt"
	"strings"

	"fondo/internal/config"
	gsheet "fondo/internal/sheets/google"
)

// Config is the part of the application config a source needs.
type Config struct {
	Kind   Kind
	CSV    CSVOptions
	SQLite SQLiteOptions
	Sheets gsheet.Config
}

type CSVOptions struct {
	Path      string
	Delimiter rune
}

type SQLiteOptions struct {
	// Path must point at a database written by fondo import.
	Path string
}

// FromAppConfig picks the source settings out of the application config.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}
	kind := Kind(strings.ToLower(strings.TrimSpace(app.DataSource)))
	if !kind.IsValid() {
		return Config{}, fmt.Errorf("unknown data source %q (want one of %v)", app.DataSource, Kinds())
	}

	return Config{
		Kind: kind,
		CSV:  CSVOptions{Path: app.CSVPath, Delimiter: app.Delimiter()},
		SQLite: SQLiteOptions{
			Path: app.SQLiteDBPath,
		},
		Sheets: gsheet.Config{
			SpreadsheetID:   app.GoogleSpreadsheetID,
			Range:           app.GoogleSheetRange,
			CredentialsJSON: app.GoogleServiceAccountJSON,
			CredentialsFile: app.GoogleServiceAccountFile,
		},
	}, nil
}

// Validate checks only the settings of the selected kind.
func (c Config) Validate() error {
	switch c.Kind {
	case KindCSV:
		if c.CSV.Path == "" {
			return errors.New("csv source needs a file path")
		}
	case KindSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite source needs a database path")
		}
	case KindSheets:
		if strings.TrimSpace(c.Sheets.SpreadsheetID) == "" {
			return errors.New("sheets source needs a spreadsheet id")
		}
	case KindMemory:
	default:
		return fmt.Errorf("unknown data source %q (want one of %v)", c.Kind, Kinds())
	}
	return nil
}
