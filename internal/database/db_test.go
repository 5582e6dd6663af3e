package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cached.sqlite")

	db, err := Open(Config{Driver: "SQLite", Path: path})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, sqlDB.Ping())
	assert.FileExists(t, path)
	assert.Equal(t, DriverSQLite, db.Dialector.Name())
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, db.Dialector.Name())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	assert.Error(t, err)

	_, err = Open(Config{Driver: DriverPostgres})
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN(":memory:")
	require.NoError(t, err)
	assert.Equal(t, "file::memory:?cache=shared", dsn)

	dsn, err = sqliteDSN("cached.sqlite")
	require.NoError(t, err)
	assert.Equal(t, "file:cached.sqlite?_journal_mode=WAL&_busy_timeout=5000", dsn)
}

func TestConnectPostgres(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := ConnectPostgres(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	assert.NoError(t, pool.Ping(context.Background()))
}

func TestConnectPostgresRejectsBadURL(t *testing.T) {
	_, err := ConnectPostgres(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
