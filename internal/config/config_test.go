package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/santabot/core/database"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
logging:
  level: debug
  dir: logs
  bot_file: bot-info.log
database:
  path: data/database.db
santa:
  seed_csv: data/sheet.csv
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, "bot-info.log", cfg.Logging.BotFile)
	assert.Equal(t, coredatabase.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/database.db", cfg.Database.Path)
	assert.Equal(t, "data/sheet.csv", cfg.Santa.SeedCSV)
	assert.Same(t, &cfg.Config, cfg.CoreConfig())

	v, err := cfg.Validator()
	require.NoError(t, err)
	assert.True(t, v.Identifier("vk777"))
}

func TestLoadEnvOverlay(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "yaml"
`)
	t.Setenv("BOT_TOKEN", "env")
	t.Setenv("DB_PATH", "/tmp/santa.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env", cfg.Telegram.Token)
	assert.Equal(t, "/tmp/santa.db", cfg.Database.Path)
}

func TestLoadRejectsBadPattern(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "t"
santa:
  tracking_pattern: "("
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "santa")
}
