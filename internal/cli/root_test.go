package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fondo/internal/core"
	"fondo/internal/render"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "fondo", cmd.Use)
	assert.Contains(t, cmd.Long, "Fondo Parlamentare")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "summary", "import"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "Command %s should exist", name)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	envFlag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFlag)
	assert.Equal(t, ".env", envFlag.DefValue)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
}

func TestSummaryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"summary"})
	require.NoError(t, err)

	for _, name := range []string{"macro-sector", "subject-type", "region", "province", "year", "search", "profile"} {
		assert.NotNil(t, sub.Flags().Lookup(name), name)
	}
}

func TestImportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"import"})
	require.NoError(t, err)

	for _, name := range []string{"csv", "db", "delimiter"} {
		flag := sub.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := WrapExitError(ExitFailure, "load dataset", &core.LoadError{Source: "x.csv", Err: core.ErrSourceMissing})
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, core.ErrSourceMissing)
	assert.Equal(t, "load dataset: load x.csv: source missing", wrapped.Error())
}

// execute runs the CLI with args in a clean environment.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "summary", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSummaryText(t *testing.T) {
	t.Setenv("DATA_SOURCE", "memory")

	out, _, err := execute(t, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Mostrando 6 record su 6 totali")
	assert.Contains(t, out, "Totale erogato:  € 367.000,00")
	assert.Contains(t, out, "Comune di Lecce")
}

func TestSummaryJSONWithFilters(t *testing.T) {
	t.Setenv("DATA_SOURCE", "memory")

	out, _, err := execute(t, "summary", "--region", "Puglia", "--macro-sector", "TUTTI", "--format", "json")
	require.NoError(t, err)

	var doc render.SummaryDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.Rows)
	assert.Equal(t, 6, doc.DatasetRows)
	assert.Equal(t, json.Number("230000"), doc.KPIs.Total)
	assert.Equal(t, map[string]string{"region": "Puglia"}, doc.Criteria.Filters)
}

func TestSummaryRejectsFilterOutsideProfile(t *testing.T) {
	t.Setenv("DATA_SOURCE", "memory")

	_, _, err := execute(t, "summary", "--province", "LE")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, _, err := execute(t, "summary", "--province", "LE", "--profile", "rich", "--format", "json")
	require.NoError(t, err)
	var doc render.SummaryDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.Rows)
}

func TestImportThenSummaryFromSQLite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "fondo.csv")
	dbPath := filepath.Join(dir, "db", "fondo.db")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Beneficiario;Tipologia_Soggetto;Provincia;Regione;Macro_Settore;Anno;Importo\n"+
			"Comune di Bari;Comune;BA;Puglia;Infrastrutture;2026;1.500,50\n"+
			"Pro Loco;Associazione;;Non assegnata;Cultura;2027;200\n"), 0o644))

	out, _, err := execute(t, "import", "--csv", csvPath, "--db", dbPath, "--delimiter", ";", "--format", "json")
	require.NoError(t, err)
	var res ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Records)

	t.Setenv("DATA_SOURCE", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	out, _, err = execute(t, "summary", "--format", "json")
	require.NoError(t, err)
	var doc render.SummaryDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.Rows)
	assert.Equal(t, json.Number("1700.5"), doc.KPIs.Total)
	assert.Equal(t, 1, doc.KPIs.Regions)
}

func TestImportRejectsInvalidCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "fondo.csv")
	dbPath := filepath.Join(dir, "fondo.db")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Beneficiario,Tipologia_Soggetto,Provincia,Regione,Macro_Settore,Anno,Importo\n"+
			"Comune di Bari,Comune,BA,Puglia,Infrastrutture,2026,-5\n"), 0o644))

	_, _, err := execute(t, "import", "--csv", csvPath, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, core.IsLoadError(err))

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "no database is written for a rejected import")
}

func TestServeFailsFastOnLoadError(t *testing.T) {
	t.Setenv("DATA_SOURCE", "csv")
	t.Setenv("CSV_PATH", filepath.Join(t.TempDir(), "missing.csv"))
	t.Setenv("PORT", "0")

	_, _, err := execute(t, "serve")
	require.Error(t, err)
	// PORT=0 is rejected before anything is read
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	t.Setenv("PORT", "18081")
	_, logs, err := execute(t, "serve")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, core.ErrSourceMissing)
	assert.Contains(t, logs, "Dataset load failed")
}
