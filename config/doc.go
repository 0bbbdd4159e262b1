// Package config loads streamkit configuration.
//
// Viper reads an optional YAML file (./streamkit.yml, ./config.yml,
// ./config/config.yml or the user config dir), then a .env file is loaded
// with godotenv, and finally STREAMKIT_ environment variables override
// individual keys:
//
//	cfg, err := config.Load()
//	p := stream.FromSlice(items, stream.WithConfig(cfg.Stream))
//
// STREAMKIT_STREAM_WORKERS=8 sets stream.workers.
package config
