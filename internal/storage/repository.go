// Package storage keeps the dataset in a SQLite table so it can be served
// without the source CSV.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fondo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	path    string
	version uint
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// brings its schema up to date.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := Migrate(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}

	return &SQLiteRepository{db: db, path: dbPath, version: version}, nil
}

// OpenExisting opens dbPath for reading. Unlike NewSQLiteRepository it fails
// with core.ErrSourceMissing when the file does not exist, so a typo in the
// configuration never silently serves an empty dataset.
func OpenExisting(dbPath string) (*SQLiteRepository, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &core.LoadError{Source: dbPath, Err: fmt.Errorf("%w: %v", core.ErrSourceMissing, err)}
		}
		return nil, fmt.Errorf("stat database: %w", err)
	}
	return NewSQLiteRepository(dbPath)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Name() string {
	return "sqlite:" + r.path
}

// Rows implements dataset.Source.
func (r *SQLiteRepository) Rows(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT beneficiary, subject_type, province, region, macro_sector, purpose, year, amount
		FROM disbursements
		ORDER BY id`)
	if err != nil {
		return nil, &core.LoadError{Source: r.Name(), Err: fmt.Errorf("query disbursements: %w", err)}
	}
	defer rows.Close()

	var out []core.Record
	line := 0
	for rows.Next() {
		line++
		var (
			rec    core.Record
			amount string
		)
		if err := rows.Scan(&rec.Beneficiary, &rec.SubjectType, &rec.Province, &rec.Region,
			&rec.MacroSector, &rec.Purpose, &rec.Year, &amount); err != nil {
			return nil, &core.LoadError{Source: r.Name(), Line: line, Err: err}
		}
		rec.Amount, err = core.ParseAmount(amount)
		if err != nil {
			return nil, &core.LoadError{Source: r.Name(), Line: line, Column: "amount", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.LoadError{Source: r.Name(), Err: err}
	}
	return out, nil
}

// Replace swaps the table contents for records in one transaction. It
// returns the number of rows written.
func (r *SQLiteRepository) Replace(ctx context.Context, records []core.Record) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM disbursements`); err != nil {
		return 0, fmt.Errorf("clear disbursements: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO disbursements (beneficiary, subject_type, province, region, macro_sector, purpose, year, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.Beneficiary, rec.SubjectType, rec.Province, rec.Region,
			rec.MacroSector, rec.Purpose, rec.Year, rec.Amount.String()); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(records), nil
}

// SchemaVersion is the migration version the database was brought to.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

// Count returns the number of stored rows.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disbursements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count disbursements: %w", err)
	}
	return n, nil
}
