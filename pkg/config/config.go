// Package config loads service configuration. Values are layered the same
// way the rest of the platform does it: code defaults, then an optional
// YAML file, then environment variables (SA_ prefix) on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable holding the optional config
// file path.
const ConfigFileEnv = "SA_CONFIG_FILE"

// Storage backend selectors.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"HOST"`
	Port         int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

// AuthGatewayConfig holds the connection settings for the external
// authorization gateway. Token and TokenFile are alternatives; TokenFile
// wins when both are set and enables hot reload of rotated secrets.
type AuthGatewayConfig struct {
	URL       string `yaml:"url" envconfig:"AUTH_URL"`
	Token     string `yaml:"token" envconfig:"AUTH_TOKEN"`
	TokenFile string `yaml:"token_file" envconfig:"AUTH_TOKEN_FILE"`
}

// PostgresConfig holds record store connection settings.
type PostgresConfig struct {
	DSN            string        `yaml:"dsn" envconfig:"POSTGRES_DSN"`
	PoolMinSize    int           `yaml:"pool_min_size" envconfig:"POSTGRES_POOL_MIN"`
	PoolMaxSize    int           `yaml:"pool_max_size" envconfig:"POSTGRES_POOL_MAX"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"POSTGRES_CONNECT_TIMEOUT"`
	CommandTimeout time.Duration `yaml:"command_timeout" envconfig:"POSTGRES_COMMAND_TIMEOUT"`
}

// CORSConfig holds allowed CORS origins; empty disables CORS handling.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"CORS_ORIGINS"`
}

// Config is the full service configuration.
type Config struct {
	// APIBaseURL is the public URL of this API, embedded in issued token
	// bundles so clients know where to point.
	APIBaseURL string `yaml:"api_base_url" envconfig:"API_BASE_URL"`

	// StorageBackend selects the record store: postgres or memory.
	StorageBackend string `yaml:"storage_backend" envconfig:"STORAGE_BACKEND"`

	// ProbeRoleOnRead re-checks the gateway role on every read to report
	// role_deleted. Costs one gateway call per record returned.
	ProbeRoleOnRead bool `yaml:"probe_role_on_read" envconfig:"PROBE_ROLE_ON_READ"`

	Server      ServerConfig      `yaml:"server"`
	AuthGateway AuthGatewayConfig `yaml:"auth_gateway"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	CORS        CORSConfig        `yaml:"cors"`
}

// Default returns a config populated with defaults.
func Default() *Config {
	return &Config{
		StorageBackend: BackendPostgres,
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			PoolMinSize:    10,
			PoolMaxSize:    10,
			ConnectTimeout: 60 * time.Second,
			CommandTimeout: 60 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and
// environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("sa", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.AuthGateway.URL == "" {
		return fmt.Errorf("auth_gateway.url is required")
	}
	if c.AuthGateway.Token == "" && c.AuthGateway.TokenFile == "" {
		return fmt.Errorf("one of auth_gateway.token or auth_gateway.token_file is required")
	}
	switch c.StorageBackend {
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}
	return nil
}
