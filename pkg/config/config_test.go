package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("FANOUT_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 8, cfg.FanoutWorkers)
	assert.Equal(t, 500, cfg.FanoutChunkSize)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("FANOUT_WORKERS", "many")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Config{Storage: StoragePostgres}).Validate())
	assert.NoError(t, (&Config{Storage: StoragePostgres, PostgresConnStr: "host=db"}).Validate())
	assert.Error(t, (&Config{Storage: "redis"}).Validate())
	assert.Error(t, (&Config{Storage: StorageMemory, Env: "production", JWTSecret: "supersecretjwtkey"}).Validate())
}

func TestBodyLimit(t *testing.T) {
	assert.Equal(t, "51M", bodyLimit(50<<20))
	assert.Equal(t, "1M", bodyLimit(0))
}

func TestInitDB_SQLite(t *testing.T) {
	cfg := &Config{Storage: StorageSQLite, SQLitePath: "file::memory:"}
	db, err := InitDB(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, db.SQL)
	assert.Nil(t, db.Mongo)
	assert.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, db.Close(context.Background()))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "nano-blog.db?_foreign_keys=on", sqliteDSN("nano-blog.db"))
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on", sqliteDSN("file::memory:?cache=shared"))
	assert.Equal(t, "x.db?_foreign_keys=off", sqliteDSN("x.db?_foreign_keys=off"))
}

func TestInitDB_Memory(t *testing.T) {
	db, err := InitDB(context.Background(), &Config{Storage: StorageMemory})
	require.NoError(t, err)
	assert.Nil(t, db.SQL)
	assert.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, db.Close(context.Background()))
}
