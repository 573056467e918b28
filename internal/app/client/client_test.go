package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifelog/internal/app/client/config"
	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/migration"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:             "local",
		ConfigDir:       dir,
		DataPath:        filepath.Join(dir, "lifelog.db"),
		LegacyDataPath:  filepath.Join(dir, "journal.db"),
		APIAddress:      "127.0.0.1:0",
		StatsDebounceMs: 10,
		FallbackQuotaMB: 1024,
	}
}

func TestApp_StartMigratesLegacyAndLoads(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	db, err := sql.Open("sqlite3", cfg.LegacyDataPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE journal_entries (id TEXT PRIMARY KEY, payload TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO journal_entries (id, payload) VALUES ('old-1', '{"content":"from legacy","timestamp":1000}')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	app, err := New(ctx, cfg, discardLogger(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer app.Shutdown()

	require.True(t, app.Durable())
	require.NoError(t, app.RequireDurable())
	require.NoError(t, app.Start(ctx))

	result := app.LegacyResult()
	assert.Equal(t, migration.StatusMigrated, result.Status)
	assert.Equal(t, 1, result.Records)

	snapshot := app.Records().Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "from legacy", snapshot[0].Content)
	assert.Equal(t, 1, app.Stats().GetStorageStats().TotalRecords)

	// Повторный перенос ничего не делает
	again := app.MigrateLegacy(ctx)
	assert.Equal(t, migration.StatusSkipped, again.Status)
	assert.Equal(t, migration.ReasonNoMigration, again.Reason)
}

func TestApp_PersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := New(ctx, cfg, discardLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))

	rec, err := first.Records().AddRecord(ctx, "persisted", nil, nil, []record.MediaData{photo("bytes")})
	require.NoError(t, err)
	first.Shutdown()
	assert.Zero(t, first.Registry().Live())

	second, err := New(ctx, cfg, discardLogger(), nil)
	require.NoError(t, err)
	defer second.Shutdown()
	require.NoError(t, second.Start(ctx))

	data, mime, err := second.Records().Media(rec.ID, rec.Images[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)
	assert.Equal(t, "image/jpeg", mime)
}

func TestApp_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.DataPath = filepath.Join(cfg.ConfigDir, "missing", "dir", "lifelog.db")

	app, err := New(ctx, cfg, discardLogger(), nil)
	require.NoError(t, err)
	defer app.Shutdown()

	assert.False(t, app.Durable())
	err = app.RequireDurable()
	assert.ErrorIs(t, err, ErrNotDurable)
	assert.ErrorContains(t, err, record.ErrInitialization.Error())
	require.NoError(t, app.Start(ctx))
	assert.Equal(t, migration.StatusSkipped, app.LegacyResult().Status)

	_, err = app.Records().AddRecord(ctx, "kept in memory", nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, app.Records().Snapshot(), 1)
}
