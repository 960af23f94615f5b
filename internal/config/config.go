// Package config loads the static configuration of the dashboard: which repositories to
// sync, who counts as a team member, how far back to look and where to keep the cache.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "config/config.yaml"

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	GitHub  GitHub  `yaml:"github"`
	Sync    Sync    `yaml:"sync"`
	Storage Storage `yaml:"storage"`
	HTTP    HTTP    `yaml:"http"`
	Log     Log     `yaml:"log"`
}

type GitHub struct {
	BaseURL        string        `yaml:"base_url" env:"GITHUB_API_URL" env-default:"https://api.github.com/"`
	Timeout        time.Duration `yaml:"timeout" env:"GITHUB_TIMEOUT" env-default:"30s"`
	RateLimitSleep time.Duration `yaml:"rate_limit_sleep" env:"GITHUB_RATE_LIMIT_SLEEP" env-default:"1h"`
}

type Sync struct {
	Repositories []string `yaml:"repositories" env:"SYNC_REPOSITORIES" env-separator:","`
	TeamMembers  []string `yaml:"team_members" env:"SYNC_TEAM_MEMBERS" env-separator:","`
	LookbackDays int      `yaml:"lookback_days" env:"SYNC_LOOKBACK_DAYS" env-default:"30"`
	Parallel     bool     `yaml:"parallel" env:"SYNC_PARALLEL"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"`
	Path   string `yaml:"path" env:"STORAGE_PATH" env-default:".pr-dashboard/store.json"`
	DSN    string `yaml:"dsn" env:"DATABASE_URL"`
}

type HTTP struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"off"`
}

// Load reads the YAML file at path (if it exists) and applies environment overrides.
// A .env file in the working directory is loaded first when present.
// An empty path falls back to CONFIG_PATH and then DefaultPath.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the semantic constraints cleanenv cannot express.
func (c *Config) Validate() error {
	if len(c.Sync.Repositories) == 0 {
		return errors.New("config: sync.repositories must list at least one repository")
	}
	for _, repo := range c.Sync.Repositories {
		if _, _, err := SplitRepository(repo); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if c.Sync.LookbackDays < 1 {
		return fmt.Errorf("config: sync.lookback_days must be at least 1, got %d", c.Sync.LookbackDays)
	}
	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.Path == "" {
			return errors.New("config: storage.path is required for the file driver")
		}
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return errors.New("config: storage.dsn (DATABASE_URL) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// Lookback is the default, and widest selectable, range window.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Sync.LookbackDays) * 24 * time.Hour
}

// SplitRepository splits an "owner/name" identifier.
func SplitRepository(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repo), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", repo)
	}
	return owner, name, nil
}
