package config

import "github.com/spf13/viper"

// setDefaults sets the default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")

	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.cache_size", 16384)
	v.SetDefault("storage.block_cache_bytes", 64<<20)

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "")

	v.SetDefault("rpc.host", "127.0.0.1")
	v.SetDefault("rpc.port", 5005)
	v.SetDefault("rpc.ws_ping_seconds", 30)

	v.SetDefault("snapshot.compression", "lz4")
}
