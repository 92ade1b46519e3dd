package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fondo/internal/config"
	"fondo/internal/core"
	"fondo/internal/log"
	"fondo/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataSource: "csv", CSVPath: "x.csv", CSVDelimiter: ";"}
	bc, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, KindCSV, bc.Kind)
	assert.Equal(t, ';', bc.CSV.Delimiter)

	bc, err = FromAppConfig(&config.Config{DataSource: " SQLite ", SQLiteDBPath: "f.db"})
	require.NoError(t, err)
	assert.Equal(t, KindSQLite, bc.Kind)
	assert.Equal(t, "f.db", bc.SQLite.Path)

	_, err = FromAppConfig(&config.Config{DataSource: "ftp"})
	assert.Error(t, err)
	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestCreateCSVBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Beneficiario,Tipologia_Soggetto,Provincia,Regione,Macro_Settore,Anno,Importo\nA,Comune,LE,Puglia,Sport,2026,10\n"), 0o600))

	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Kind: KindCSV, CSV: CSVOptions{Path: path, Delimiter: ','}})
	require.NoError(t, err)
	assert.Nil(t, res.Cleanup)

	recs, err := res.Source.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fondo.db")

	_, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Kind: KindSQLite, SQLite: SQLiteOptions{Path: path}})
	require.Error(t, err, "a missing database must not be created on read")
	assert.ErrorIs(t, err, core.ErrSourceMissing)

	repo, err := storage.NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = repo.Replace(ctx, []core.Record{{Beneficiary: "A", Year: 2026, Amount: core.MustAmount("1")}})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Kind: KindSQLite, SQLite: SQLiteOptions{Path: path}})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	t.Cleanup(func() { res.Cleanup() })

	recs, err := res.Source.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Kind: KindMemory})
	require.NoError(t, err)
	assert.Equal(t, "memory:sample", res.Source.Name())
}

func TestCreateBackendValidation(t *testing.T) {
	f := NewFactory(log.Discard())
	for _, cfg := range []Config{
		{Kind: "ftp"},
		{Kind: KindCSV},
		{Kind: KindSQLite},
		{Kind: KindSheets},
	} {
		_, err := f.CreateBackend(context.Background(), cfg)
		assert.Error(t, err, "config %+v", cfg)
	}
}

func TestKinds(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.IsValid(), k.String())
		assert.Contains(t, config.DataSources, k.String())
	}
	assert.False(t, Kind("ftp").IsValid())
}
