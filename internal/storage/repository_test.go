package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

func sampleRecords() []reference.Record {
	return []reference.Record{
		{Question: "What are your hours?", Answer: "9-5", Category: "General"},
		{Question: "What is your refund policy?", Answer: "30 days", Category: "Billing"},
		{Question: "Where are you located?", Answer: "Main Street", Category: "General"},
	}
}

func newSQLiteRepo(t *testing.T) *ReferenceRepository {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "faq.db"), MaxOpenConns: 1},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewReferenceRepository(db)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func TestReferenceRepository_ReplaceAllAndList(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	var calls []int
	result, err := repo.ReplaceAll(ctx, sampleRecords(), func(done int) { calls = append(calls, done) })

	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, []int{1, 2, 3}, calls)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	rows, err := repo.ListRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "What is your refund policy?", rows[1][reference.FieldQuestion])
}

func TestReferenceRepository_ReplaceAllReplaces(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.ReplaceAll(ctx, sampleRecords(), nil)
	require.NoError(t, err)

	_, err = repo.ReplaceAll(ctx, sampleRecords()[:1], nil)
	require.NoError(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReferenceRepository_LoadTablePreservesOrder(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.ReplaceAll(ctx, sampleRecords(), nil)
	require.NoError(t, err)

	table, err := repo.LoadTable(ctx)

	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), table.Records())
	assert.Equal(t, []string{"General", "Billing"}, table.DistinctCategories())
}

func TestReferenceRepository_LoadTableEmpty(t *testing.T) {
	repo := newSQLiteRepo(t)

	_, err := repo.LoadTable(context.Background())

	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestReferenceRepository_MigrateIsIdempotent(t *testing.T) {
	repo := newSQLiteRepo(t)
	assert.NoError(t, repo.Migrate(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestOpen_PostgresRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"})
	assert.True(t, errors.Is(err, domain.ErrConfig))
}
