package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`

	Storage struct {
		// Backend selects "file" (default) or "mongo".
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
		// Key is a hex-encoded 32-byte AES key; empty disables at-rest
		// encryption of the store file.
		Key   string `yaml:"key"`
		Mongo struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
	} `yaml:"storage"`

	Transfer struct {
		TTLMinutes int `yaml:"ttl_minutes"`
	} `yaml:"transfer"`

	Auth struct {
		JWTSecret        string `yaml:"jwt_secret"`
		TokenExpiryHours int    `yaml:"token_expiry_hours"`
	} `yaml:"auth"`

	Audit struct {
		LogFile string `yaml:"log_file"`
	} `yaml:"audit"`
}

// Default returns the configuration a fresh device runs with before any
// config file exists.
func Default() *Config {
	var cfg Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8089
	cfg.Server.Mode = "release"
	cfg.Storage.Backend = "file"
	cfg.Storage.Path = "data/mdawa-store.json"
	cfg.Transfer.TTLMinutes = 15
	cfg.Auth.TokenExpiryHours = 24
	return &cfg
}

// Load looks for config in multiple locations, falling back to defaults for
// anything the file leaves unset.
func Load() (*Config, error) {
	configPaths := []string{
		"./configs/config.yaml",
		"../configs/config.yaml",
		"/etc/mdawa-transfer/config.yaml",
	}

	cfg := Default()
	for _, path := range configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		configFile, err := os.ReadFile(absPath)
		if err != nil {
			continue
		}

		if err := yaml.Unmarshal(configFile, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", absPath, err)
		}
		return cfg, nil
	}

	return nil, fmt.Errorf("no configuration file found")
}
