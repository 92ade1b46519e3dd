package cli

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"fondo/internal/config"
	"fondo/internal/dataset"
	"fondo/internal/log"
	"fondo/internal/render"
	"fondo/internal/source/csvfile"
	"fondo/internal/storage"
)

type importOptions struct {
	csvPath   string
	dbPath    string
	delimiter string
}

// ImportResult is what import reports on success.
type ImportResult struct {
	Source   string `json:"source"`
	Database string `json:"database"`
	Records  int    `json:"records"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a CSV export into the SQLite database",
		Long: `Read a CSV export with the same validation the dashboard applies and
replace the contents of the SQLite database with it. Nothing is written
unless every row is valid.`,
		Example: `  fondo import --csv data/fondo_parlamentare.csv --db data/fondo.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "CSV file to import (default CSV_PATH)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database to write (default SQLITE_DB_PATH)")
	cmd.Flags().StringVar(&opts.delimiter, "delimiter", "", "CSV field separator (default CSV_DELIMITER)")

	return cmd
}

func runImport(ctx context.Context, rootOpts *RootOptions, opts *importOptions, cmd *cobra.Command) error {
	cfg := config.Load()
	if opts.csvPath != "" {
		cfg.CSVPath = opts.csvPath
	}
	if opts.dbPath != "" {
		cfg.SQLiteDBPath = opts.dbPath
	}
	if opts.delimiter != "" {
		cfg.CSVDelimiter = opts.delimiter
	}
	if utf8.RuneCountInString(cfg.CSVDelimiter) != 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid delimiter %q: must be a single character", cfg.CSVDelimiter))
	}

	logger, err := SetupLogger(cfg, cmd.ErrOrStderr(), rootOpts.Verbose)
	if err != nil {
		return err
	}
	logger = logger.WithComponent(log.ComponentCLI)

	src := csvfile.New(cfg.CSVPath, csvfile.WithDelimiter(cfg.Delimiter()))
	ds, err := loadDataset(ctx, dataset.NewStore(src, logger))
	if err != nil {
		return err
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return WrapExitError(ExitFailure, "open database", err)
	}
	defer closeQuietly(logger, repo.Close)

	prev, err := repo.Count(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read database", err)
	}
	n, err := repo.Replace(ctx, ds.Records())
	if err != nil {
		return WrapExitError(ExitFailure, "write database", err)
	}
	logger.Info("Import complete",
		log.FieldOperation, log.OpImport,
		log.FieldSource, cfg.CSVPath,
		log.FieldRecords, n,
		"replaced", prev,
		"schema_version", repo.SchemaVersion(),
		"db_path", cfg.SQLiteDBPath)

	res := ImportResult{Source: cfg.CSVPath, Database: cfg.SQLiteDBPath, Records: n}
	if rootOpts.Format == "json" {
		err = render.JSON(cmd.OutOrStdout(), res)
	} else {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %s records from %s into %s\n",
			render.Count(n), res.Source, res.Database)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "write result", err)
	}
	return nil
}
