package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Addr   string `toml:"addr"`
	DBPath string `toml:"db_path"`
}

func Default() Config {
	return Config{
		Addr:   envOr("SCD_ADDR", "127.0.0.1:8821"),
		DBPath: envOr("SCD_DB_PATH", "streamchannel.db"),
	}
}

// Load superpose un éventuel fichier TOML sur les défauts env. Fichier
// absent = défauts, pas une erreur.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = defaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "streamchannel", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "streamchannel", "config.toml")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
