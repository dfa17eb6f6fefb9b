package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Arrange
	t.Setenv("HTTP_SERVER_PORT", "8080")
	t.Setenv("ZMQ_API_ENDPOINT", "tcp://127.0.0.1:7200")
	t.Setenv("STORE_ID", "kernel-states")
	t.Setenv("BACKEND_TYPE", "HISTORY_TREE")
	t.Setenv("HISTORY_FILE", "/var/lib/history/kernel.ht")
	t.Setenv("PROVIDER_VERSION", "3")
	t.Setenv("START_TIME", "1000")
	t.Setenv("REOPEN_EXISTING", "true")
	t.Setenv("BLOCK_SIZE", "4096")
	t.Setenv("MAX_CHILDREN", "8")
	t.Setenv("LOG_LEVEL", "debug")

	// Act
	cfg := LoadConfig()

	// Assert
	if cfg.ServerPort != 8080 {
		t.Errorf("expected ServerPort 8080, got %d", cfg.ServerPort)
	}
	assert.Equal(t, "tcp://127.0.0.1:7200", cfg.ZmqApiEndpoint)
	assert.Equal(t, "kernel-states", cfg.StoreId)
	assert.Equal(t, HistoryTreeBackend, cfg.BackendType)
	assert.Equal(t, "/var/lib/history/kernel.ht", cfg.HistoryFile)
	assert.Equal(t, 3, cfg.ProviderVersion)
	assert.Equal(t, int64(1000), cfg.StartTime)
	assert.True(t, cfg.ReopenExisting)
	assert.Equal(t, 4096, cfg.BlockSize)
	assert.Equal(t, 8, cfg.MaxChildren)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, name := range []string{
		"HTTP_SERVER_PORT", "ZMQ_API_ENDPOINT", "STORE_ID", "BACKEND_TYPE", "HISTORY_FILE",
		"PROVIDER_VERSION", "START_TIME", "REOPEN_EXISTING", "BLOCK_SIZE", "MAX_CHILDREN", "LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, defaultServerPort, cfg.ServerPort)
	assert.Equal(t, defaultZmqApiEndpoint, cfg.ZmqApiEndpoint)
	assert.NotEmpty(t, cfg.StoreId)
	assert.Equal(t, cfg.StoreId+".ht", filepath.Base(cfg.HistoryFile))
	assert.Equal(t, InMemoryBackend, cfg.BackendType)
	assert.False(t, cfg.ReopenExisting)
	assert.Equal(t, defaultBlockSize, cfg.BlockSize)
	assert.Equal(t, defaultMaxChildren, cfg.MaxChildren)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadConfig_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "http")
	t.Setenv("BLOCK_SIZE", "64k")
	t.Setenv("REOPEN_EXISTING", "maybe")
	t.Setenv("BACKEND_TYPE", "leveldb")
	t.Setenv("LOG_LEVEL", "chatty")

	cfg := LoadConfig()

	assert.Equal(t, defaultServerPort, cfg.ServerPort)
	assert.Equal(t, defaultBlockSize, cfg.BlockSize)
	assert.False(t, cfg.ReopenExisting)
	assert.Equal(t, InMemoryBackend, cfg.BackendType)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}
