package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for aerostat-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Debug   bool   `yaml:"debug" env:"DEBUG" env-default:"false"`
	Version string `yaml:"-"` // Set at load time, not from config

	// KnowledgePath points to the optional warehouse knowledge YAML.
	// A missing file is not an error.
	KnowledgePath string `yaml:"knowledge_path" env:"KNOWLEDGE_PATH" env-default:"schema.yaml"`

	// Server configures the MCP transport.
	Server ServerConfig `yaml:"server"`

	// Warehouse is the analytic MySQL store queries run against.
	Warehouse WarehouseConfig `yaml:"warehouse"`

	// Pipeline controls validation, repair and regeneration behavior.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Generator configures the external text-generation backend.
	Generator GeneratorConfig `yaml:"generator"`

	// StateDB is the engine's own PostgreSQL database (query history).
	StateDB StateDBConfig `yaml:"state_db"`
}

// ServerConfig holds MCP transport settings.
type ServerConfig struct {
	// Transport selects how the MCP server is exposed: "http" serves the
	// streamable HTTP transport on Port, "stdio" speaks over stdin/stdout.
	Transport string `yaml:"transport" env:"MCP_TRANSPORT" env-default:"http"`
	Port      string `yaml:"port" env:"PORT" env-default:"8080"`
}

// WarehouseConfig holds analytic store connection settings.
type WarehouseConfig struct {
	Host     string `yaml:"host" env:"WAREHOUSE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"WAREHOUSE_PORT" env-default:"3306"`
	User     string `yaml:"user" env:"WAREHOUSE_USER" env-default:"aerostat_ro"`
	Password string `yaml:"-" env:"WAREHOUSE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"WAREHOUSE_DATABASE" env-default:"flightstats"`

	// PoolSize bounds concurrent connections; excess requests queue.
	PoolSize int `yaml:"pool_size" env:"WAREHOUSE_POOL_SIZE" env-default:"20"`

	// ConnRetries is how many times connection-class errors are retried.
	ConnRetries int `yaml:"conn_retries" env:"WAREHOUSE_CONN_RETRIES" env-default:"3"`

	// AllowWrites permits non-read statements. Process-wide, read at startup.
	AllowWrites bool `yaml:"allow_writes" env:"WAREHOUSE_ALLOW_WRITES" env-default:"false"`
}

// PipelineConfig holds validation/repair/regeneration settings.
type PipelineConfig struct {
	AutoRegenerate          bool `yaml:"auto_regenerate" env:"PIPELINE_AUTO_REGENERATE" env-default:"true"`
	MaxRegenerationAttempts int  `yaml:"max_regeneration_attempts" env:"PIPELINE_MAX_REGENERATION_ATTEMPTS" env-default:"2"`
	DefaultRowLimit         int  `yaml:"default_row_limit" env:"PIPELINE_DEFAULT_ROW_LIMIT" env-default:"100"`
	MaxRowLimit             int  `yaml:"max_row_limit" env:"PIPELINE_MAX_ROW_LIMIT" env-default:"100"`
	SampleRowLimit          int  `yaml:"sample_row_limit" env:"PIPELINE_SAMPLE_ROW_LIMIT" env-default:"50"`
	SchemaCacheTTLMinutes   int  `yaml:"schema_cache_ttl_minutes" env:"PIPELINE_SCHEMA_CACHE_TTL_MINUTES" env-default:"5"`
	CapturePlan             bool `yaml:"capture_plan" env:"PIPELINE_CAPTURE_PLAN" env-default:"true"`
}

// GeneratorConfig holds text-generation backend settings.
type GeneratorConfig struct {
	// Provider selects the backend: "openai" (any OpenAI-compatible endpoint)
	// or "anthropic". Empty disables generation; only ready-made candidate
	// statements are accepted then.
	Provider string `yaml:"provider" env:"GENERATOR_PROVIDER" env-default:""`
	Endpoint string `yaml:"endpoint" env:"GENERATOR_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"GENERATOR_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"GENERATOR_API_KEY"` // Secret - not in YAML

	Temperature float64 `yaml:"temperature" env:"GENERATOR_TEMPERATURE" env-default:"0.1"`
}

// StateDBConfig holds the engine-state PostgreSQL configuration.
type StateDBConfig struct {
	Enabled        bool   `yaml:"enabled" env:"STATE_DB_ENABLED" env-default:"false"`
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"aerostat"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"aerostat_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`

	// MigrationsPath is where state database migration files live.
	MigrationsPath string `yaml:"migrations_path" env:"STATE_DB_MIGRATIONS_PATH" env-default:"migrations"`
}

// Load reads configuration from config.yaml with environment variable
// overrides, falling back to environment variables only when the file does
// not exist. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Pipeline.MaxRegenerationAttempts < 0 {
		return fmt.Errorf("max_regeneration_attempts must be >= 0")
	}
	if c.Pipeline.MaxRowLimit < c.Pipeline.DefaultRowLimit {
		return fmt.Errorf("max_row_limit (%d) must be >= default_row_limit (%d)",
			c.Pipeline.MaxRowLimit, c.Pipeline.DefaultRowLimit)
	}
	if c.Pipeline.SampleRowLimit > 50 {
		return fmt.Errorf("sample_row_limit must not exceed 50")
	}
	if c.Generator.Provider != "" && c.Generator.Model == "" {
		return fmt.Errorf("generator model is required when provider is set")
	}
	if c.Server.Transport != "http" && c.Server.Transport != "stdio" {
		return fmt.Errorf("server transport must be \"http\" or \"stdio\", got %q", c.Server.Transport)
	}
	return nil
}

// DSN returns a go-sql-driver DSN for the analytic warehouse.
// parseTime makes DATE/DATETIME columns scan as time.Time.
func (c *WarehouseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// ConnectionString returns a PostgreSQL connection string for the state DB.
func (c *StateDBConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
