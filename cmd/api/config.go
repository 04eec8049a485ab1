package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration: file defaults merged with
// environment overrides, so both local and deployed runs work from the same
// binary.
type Config struct {
	Addr      string
	DBPath    string
	RedisAddr string
	CacheTTL  time.Duration
}

// configFile mirrors the YAML schema.
type configFile struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
}

// LoadConfig reads the optional YAML file at path and applies LENDBOOK_*
// environment overrides on top. An empty path skips the file entirely.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		Addr:     ":8080",
		DBPath:   "lendbook.db",
		CacheTTL: 5 * time.Minute,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("could not read config file: %w", err)
		}
		var file configFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("could not parse config file: %w", err)
		}
		if file.Server.Addr != "" {
			cfg.Addr = file.Server.Addr
		}
		if file.Storage.SQLitePath != "" {
			cfg.DBPath = file.Storage.SQLitePath
		}
		if file.Cache.RedisAddr != "" {
			cfg.RedisAddr = file.Cache.RedisAddr
		}
		if file.Cache.TTL > 0 {
			cfg.CacheTTL = file.Cache.TTL
		}
	}

	if v := os.Getenv("LENDBOOK_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LENDBOOK_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LENDBOOK_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("LENDBOOK_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LENDBOOK_CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = ttl
	}

	return cfg, nil
}
