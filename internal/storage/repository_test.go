package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fondo/internal/core"
)

func TestReplaceThenRows(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fondo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	records := []core.Record{
		{Beneficiary: "Comune di Matera", SubjectType: "Comune", Province: "MT", Region: "Basilicata", MacroSector: "Cultura", Purpose: "Museo", Year: 2026, Amount: core.MustAmount("100000.10")},
		{Beneficiary: "ASD Stella", SubjectType: "Associazione", Region: core.UnassignedRegion, MacroSector: "Sport", Year: 2027, Amount: core.MustAmount("0.3")},
	}

	n, err := repo.Replace(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range records {
		assert.Equal(t, records[i].Beneficiary, got[i].Beneficiary)
		assert.Equal(t, records[i].Purpose, got[i].Purpose)
		assert.Equal(t, records[i].Year, got[i].Year)
		assert.True(t, records[i].Amount.Equal(got[i].Amount), "amount %d", i)
	}

	// A second import replaces rather than appends.
	_, err = repo.Replace(ctx, records[:1])
	require.NoError(t, err)
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReplaceRejectsInvalidRecordAtomically(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fondo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	_, err = repo.Replace(ctx, []core.Record{{Beneficiary: "Ok", Amount: core.MustAmount("1")}})
	require.NoError(t, err)

	_, err = repo.Replace(ctx, []core.Record{
		{Beneficiary: "Nuovo", Amount: core.MustAmount("1")},
		{Beneficiary: "Storno", Amount: core.MustAmount("2").Neg()},
	})
	require.ErrorIs(t, err, core.ErrNegativeAmount)

	got, err := repo.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ok", got[0].Beneficiary)
}

func TestOpenExistingMissing(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSourceMissing)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fondo.db")
	first, err := Migrate(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	again, err := Migrate(path)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	repo, err := OpenExisting(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	assert.Equal(t, first, repo.SchemaVersion())
}
