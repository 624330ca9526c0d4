package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/santabot/core/config"
)

func TestBuildOutputsStdoutOnly(t *testing.T) {
	writers, closers, err := buildOutputs(&coreconfig.Config{})
	require.NoError(t, err)
	assert.Len(t, writers, 1)
	assert.Empty(t, closers)
}

func TestBuildOutputsFileSink(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Logging.Dir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.BotFile = "bot.log"

	writers, closers, err := buildOutputs(cfg)
	require.NoError(t, err)
	require.Len(t, writers, 2)
	require.Len(t, closers, 1)

	_, err = writers[1].Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, closers[0].Close())

	data, err := os.ReadFile(filepath.Join(cfg.Logging.Dir, "bot.log"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestBuildOutputsReportsFileError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	cfg := &coreconfig.Config{}
	cfg.Logging.Dir = blocker
	cfg.Logging.BotFile = "bot.log"

	writers, closers, err := buildOutputs(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log dir")
	assert.Len(t, writers, 1, "stdout stays available")
	assert.Empty(t, closers)
}
