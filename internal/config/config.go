package config

import (
	"fmt"
	"path/filepath"
)

// Config is the full node configuration.
type Config struct {
	// DataDir is the root directory for all stored state
	DataDir string `mapstructure:"data_dir"`

	Storage  StorageConfig  `mapstructure:"storage"`
	History  HistoryConfig  `mapstructure:"history"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	configPath string
}

// StorageConfig selects and tunes the key-value backend.
type StorageConfig struct {
	// Backend is one of "pebble", "leveldb", "memory"
	Backend string `mapstructure:"backend"`

	// CacheSize is the number of records in the state read cache
	CacheSize int `mapstructure:"cache_size"`

	// BlockCacheBytes is the pebble block cache size in bytes
	BlockCacheBytes int64 `mapstructure:"block_cache_bytes"`
}

// HistoryConfig selects the transaction journal backend.
type HistoryConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string `mapstructure:"driver"`

	// DSN overrides the connection string; empty uses a file under
	// the data directory (sqlite only)
	DSN string `mapstructure:"dsn"`
}

// RPCConfig configures the JSON-RPC and websocket server.
type RPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// WSPingSeconds is the websocket keepalive interval
	WSPingSeconds int `mapstructure:"ws_ping_seconds"`
}

// SnapshotConfig configures state export and import.
type SnapshotConfig struct {
	// Compression is "lz4" or "none"
	Compression string `mapstructure:"compression"`
}

// ListenAddr returns the host:port the RPC server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.RPC.Host, c.RPC.Port)
}

// StoragePath returns the directory for key-value databases.
func (c *Config) StoragePath() string {
	return filepath.Join(c.DataDir, "state")
}

// HistoryDSN returns the journal connection string, defaulting to a
// sqlite file under the data directory.
func (c *Config) HistoryDSN() string {
	if c.History.DSN != "" {
		return c.History.DSN
	}
	return filepath.Join(c.DataDir, "history.db")
}

// GetConfigPath returns the path the configuration was loaded from,
// empty when only defaults and environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
