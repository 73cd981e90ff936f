package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "pebble", cfg.Storage.Backend)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, "127.0.0.1:5005", cfg.ListenAddr())
	assert.Equal(t, "lz4", cfg.Snapshot.Compression)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ammd.toml")
	content := `
data_dir = "/var/lib/ammd"

[storage]
backend = "leveldb"
cache_size = 1024

[rpc]
port = 6006
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/ammd", cfg.DataDir)
	assert.Equal(t, "leveldb", cfg.Storage.Backend)
	assert.Equal(t, 1024, cfg.Storage.CacheSize)
	assert.Equal(t, 6006, cfg.RPC.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, path, cfg.GetConfigPath())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("AMMD_STORAGE_BACKEND", "memory")

	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestHistoryDSNDefault(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "history.db"), cfg.HistoryDSN())

	cfg.History.DSN = "postgres://localhost/amm"
	assert.Equal(t, "postgres://localhost/amm", cfg.HistoryDSN())
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "rocksdb" }},
		{"unknown history driver", func(c *Config) { c.History.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.History.Driver = "postgres"; c.History.DSN = "" }},
		{"port out of range", func(c *Config) { c.RPC.Port = 0 }},
		{"bad compression", func(c *Config) { c.Snapshot.Compression = "zstd" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadDefaultConfig()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}
