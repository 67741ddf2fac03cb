package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research agent system
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Agent      AgentConfig      `mapstructure:"agent"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Capability CapabilityConfig `mapstructure:"capability"`
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Email      EmailConfig      `mapstructure:"email"`
	Watch      WatchConfig      `mapstructure:"watch"`
}

// DefaultResearchQuery is the canned request used by the demo mode
// and as the default watch query.
const DefaultResearchQuery = "Research Apple Inc, analyze the smartphone market trends, identify key competitors, and generate a comprehensive market report"

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// AgentConfig contains agent identity and execution limits
type AgentConfig struct {
	Name              string        `mapstructure:"name"`
	Description       string        `mapstructure:"description"`
	Planner           string        `mapstructure:"planner"` // rules or llm
	MaxConcurrentRuns int           `mapstructure:"max_concurrent_runs"`
	OperationTimeout  time.Duration `mapstructure:"operation_timeout"`
	MaxIterations     int           `mapstructure:"max_iterations"`
}

func (a AgentConfig) Validate() error {
	switch a.Planner {
	case "", "rules", "llm":
	default:
		return fmt.Errorf("agent.planner must be \"rules\" or \"llm\", got %q", a.Planner)
	}
	if a.MaxConcurrentRuns < 0 {
		return errors.New("agent.max_concurrent_runs cannot be negative")
	}
	return nil
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type        string        `mapstructure:"type"` // openai, anthropic, gemini
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LLMRoutingConfig defines which model to use for different tasks
type LLMRoutingConfig struct {
	Planning string `mapstructure:"planning"`
	Fallback string `mapstructure:"fallback"`
}

// CapabilityConfig controls the operation registry behaviour.
type CapabilityConfig struct {
	SigningSecret      string   `mapstructure:"signing_secret"`
	RequiredOperations []string `mapstructure:"required_operations"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// StorageConfig contains result store settings
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // memory, redis or postgres
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case "", "memory":
		return nil
	case "redis":
		return s.Redis.Validate()
	case "postgres":
		return s.Postgres.Validate()
	default:
		return fmt.Errorf("storage.backend must be memory, redis or postgres, got %q", s.Backend)
	}
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return errors.New("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return errors.New("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return errors.New("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return errors.New("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	MetricsPort  int  `mapstructure:"metrics_port"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort < 0 {
		return errors.New("telemetry.metrics_port cannot be negative when telemetry is enabled")
	}
	return nil
}

// EmailConfig contains settings for the report delivery operation.
type EmailConfig struct {
	Sender    string `mapstructure:"sender"`
	Recipient string `mapstructure:"recipient"`
}

// WatchConfig drives the periodic re-research scheduler.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule"` // cron expression
	Query    string `mapstructure:"query"`
}

// LoadConfig loads config from file and MARKETSCOUT_* environment variables.
// A missing config file is not fatal; every key has a default so the binary
// runs out of the box.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", 30*time.Second)
	viper.SetDefault("agent.name", "ResearcherBot")
	viper.SetDefault("agent.description", "An intelligent Market Research and Intelligence Agent")
	viper.SetDefault("agent.planner", "rules")
	viper.SetDefault("agent.max_concurrent_runs", 4)
	viper.SetDefault("agent.operation_timeout", 60*time.Second)
	viper.SetDefault("agent.max_iterations", 10)
	viper.SetDefault("llm.routing.planning", "default")
	viper.SetDefault("llm.routing.fallback", "default")
	viper.SetDefault("storage.backend", "memory")
	viper.SetDefault("storage.redis.ttl", 24*time.Hour)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.metrics_port", 0)
	viper.SetDefault("telemetry.periodic_logs", false)
	viper.SetDefault("watch.schedule", "0 */6 * * *")
	viper.SetDefault("watch.query", DefaultResearchQuery)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("MARKETSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Agent.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
