package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BuzzLyutic/todo-app/internal/storage"
)

type Config struct {
	Port             string        `yaml:"port"`
	StorageDriver    string        `yaml:"storage_driver"`
	StoragePath      string        `yaml:"storage_path"`
	DatabaseURL      string        `yaml:"database_url"`
	StorageKey       string        `yaml:"storage_key"`
	HistoryCapacity  int           `yaml:"history_capacity"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	LogLevel         string        `yaml:"log_level"`
}

const (
	defaultJSONPath   = "./data/todo.json"
	defaultSQLitePath = "./data/todo.db"
)

func Default() Config {
	return Config{
		Port:            "8080",
		StorageDriver:   storage.DriverFile,
		StorageKey:      storage.DefaultKey,
		HistoryCapacity: 20,
		LogLevel:        "info",
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML из CONFIG_FILE,
// затем переменные окружения
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.StorageDriver = getEnv("STORAGE_DRIVER", cfg.StorageDriver)
	cfg.StoragePath = getEnv("STORAGE_PATH", cfg.StoragePath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.StorageKey = getEnv("STORAGE_KEY", cfg.StorageKey)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("HISTORY_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("HISTORY_CAPACITY: %w", err)
		}
		cfg.HistoryCapacity = n
	}
	if v := os.Getenv("AUTOSAVE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("AUTOSAVE_INTERVAL: %w", err)
		}
		cfg.AutosaveInterval = d
	}

	if cfg.StoragePath == "" {
		cfg.StoragePath = defaultJSONPath
		if cfg.StorageDriver == storage.DriverSQLite {
			cfg.StoragePath = defaultSQLitePath
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() error {
	if c.HistoryCapacity < 2 {
		return fmt.Errorf("history capacity must be at least 2, got %d", c.HistoryCapacity)
	}
	if c.AutosaveInterval < 0 {
		return errors.New("autosave interval must not be negative")
	}
	switch c.StorageDriver {
	case storage.DriverFile, storage.DriverMemory, storage.DriverSQLite:
	case storage.DriverMySQL, storage.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("storage driver %s requires DATABASE_URL", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:      c.StorageDriver,
		Path:        c.StoragePath,
		DatabaseURL: c.DatabaseURL,
		Key:         c.StorageKey,
	}
}
