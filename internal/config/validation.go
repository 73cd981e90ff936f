package config

import (
	"fmt"
)

// ValidateConfig checks the configuration for values the node cannot
// start with.
func ValidateConfig(c *Config) error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	switch c.Storage.Backend {
	case "pebble", "leveldb", "memory":
	default:
		return fmt.Errorf("unknown storage backend: %s (supported: pebble, leveldb, memory)", c.Storage.Backend)
	}
	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("storage.cache_size cannot be negative: %d", c.Storage.CacheSize)
	}

	switch c.History.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown history driver: %s (supported: sqlite, postgres)", c.History.Driver)
	}
	if c.History.Driver == "postgres" && c.History.DSN == "" {
		return fmt.Errorf("history.dsn is required for the postgres driver")
	}

	if c.RPC.Port < 1 || c.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port out of range: %d", c.RPC.Port)
	}
	if c.RPC.WSPingSeconds < 1 {
		return fmt.Errorf("rpc.ws_ping_seconds must be positive: %d", c.RPC.WSPingSeconds)
	}

	switch c.Snapshot.Compression {
	case "lz4", "none":
	default:
		return fmt.Errorf("unknown snapshot compression: %s (supported: lz4, none)", c.Snapshot.Compression)
	}

	return nil
}
