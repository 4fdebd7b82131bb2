package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	defaultMigrationsPath = "migrations"
	defaultWorkers        = 4
	defaultHostname       = "trainerlab"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Import    ImportConfig    `yaml:"import"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Name       string `yaml:"name"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	SSLMode    string `yaml:"sslmode"`
	MaxConns   int32  `yaml:"max_conns"`
	Migrations string `yaml:"migrations"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// TailscaleConfig enables serving on a tailnet via tsnet instead of plain TCP.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// ImportConfig tunes the batch importer.
type ImportConfig struct {
	Workers int `yaml:"workers"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix TRAINERLAB_ and underscore-separated paths:
//
//	TRAINERLAB_SERVER_HOST, TRAINERLAB_SERVER_PORT,
//	TRAINERLAB_DB_HOST, TRAINERLAB_DB_PORT, TRAINERLAB_DB_NAME,
//	TRAINERLAB_DB_USER, TRAINERLAB_DB_PASSWORD, TRAINERLAB_DB_SSLMODE,
//	TRAINERLAB_AUTH_API_KEY,
//	TRAINERLAB_TAILSCALE_ENABLED, TRAINERLAB_TAILSCALE_HOSTNAME, TRAINERLAB_TAILSCALE_STATE_DIR,
//	TRAINERLAB_IMPORT_WORKERS
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "TRAINERLAB_SERVER_HOST")
	setInt(&cfg.Server.Port, "TRAINERLAB_SERVER_PORT")
	setString(&cfg.Database.Host, "TRAINERLAB_DB_HOST")
	setInt(&cfg.Database.Port, "TRAINERLAB_DB_PORT")
	setString(&cfg.Database.Name, "TRAINERLAB_DB_NAME")
	setString(&cfg.Database.User, "TRAINERLAB_DB_USER")
	setString(&cfg.Database.Password, "TRAINERLAB_DB_PASSWORD")
	setString(&cfg.Database.SSLMode, "TRAINERLAB_DB_SSLMODE")
	setString(&cfg.Auth.APIKey, "TRAINERLAB_AUTH_API_KEY")
	if v := os.Getenv("TRAINERLAB_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString(&cfg.Tailscale.Hostname, "TRAINERLAB_TAILSCALE_HOSTNAME")
	setString(&cfg.Tailscale.StateDir, "TRAINERLAB_TAILSCALE_STATE_DIR")
	setInt(&cfg.Import.Workers, "TRAINERLAB_IMPORT_WORKERS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Migrations == "" {
		cfg.Database.Migrations = defaultMigrationsPath
	}
	if cfg.Import.Workers <= 0 {
		cfg.Import.Workers = defaultWorkers
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = defaultHostname
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.StateDir == "" {
		return fmt.Errorf("tailscale.state_dir is required when tailscale is enabled")
	}
	return nil
}
