package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaultsToSQLite(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, defaultSQLitePath, cfg.Path)
	assert.Equal(t, 1, cfg.MaxConnections)
	assert.Equal(t, defaultSQLitePath+"?_busy_timeout=5000", cfg.DSN())
	assert.Equal(t, defaultSQLitePath, cfg.Target())
}

func TestNormalizePostgres(t *testing.T) {
	cfg := Config{Driver: "PostgreSQL", Host: "db", Name: "santa", User: "u", Password: "secret"}
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 5, cfg.MaxConnections)
	assert.Equal(t, "db:5432/santa", cfg.Target())
	assert.Contains(t, cfg.DSN(), "dbname=santa")
	assert.NotContains(t, cfg.Target(), "secret")
}

func TestNormalizeRejects(t *testing.T) {
	cfg := Config{Driver: "postgres"}
	assert.Error(t, cfg.Normalize())

	cfg = Config{Driver: "mysql"}
	assert.Error(t, cfg.Normalize())
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_init.up.sql", "000002_more.up.sql", "000003_last.up.sql"}

	assert.Equal(t, files, selectApplied(files, 0, 3))
	assert.Equal(t, []string{"000003_last.up.sql"}, selectApplied(files, 2, 3))
	assert.Nil(t, selectApplied(files, 3, 3))
	assert.Equal(t, uint64(2), parseVersion("000002_more.up.sql"))
}
