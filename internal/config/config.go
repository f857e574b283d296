package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "AGING"

// FileEnv names the variable holding an optional YAML config file path.
const FileEnv = "AGING_CONFIG_FILE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"min=1024"`
}

// StoreConfig selects the session history database.
type StoreConfig struct {
	DSN string `yaml:"dsn" envconfig:"DSN" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// DashboardConfig holds display and export defaults.
type DashboardConfig struct {
	OutputDir     string        `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	DisplayFormat string        `yaml:"display_format" envconfig:"DISPLAY_FORMAT" validate:"oneof=currency millions"`
	MetricsScope  string        `yaml:"metrics_scope" envconfig:"METRICS_SCOPE" validate:"oneof=customer filtered"`
	TruncateWidth int           `yaml:"truncate_width" envconfig:"TRUNCATE_WIDTH" validate:"min=4"`
	SessionTTL    time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxUploadBytes:  64 << 20,
		},
		Store: StoreConfig{
			DSN: "aging.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Dashboard: DashboardConfig{
			OutputDir:     "output",
			DisplayFormat: "currency",
			MetricsScope:  "customer",
			TruncateWidth: 28,
			SessionTTL:    2 * time.Hour,
		},
	}
}

// Load builds the configuration. Values are layered: built-in defaults,
// then the YAML file named by AGING_CONFIG_FILE, then AGING_* variables.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit YAML file. An empty path falls back to
// AGING_CONFIG_FILE.
func LoadFrom(path string) (*Config, error) {
	_ = godotenv.Load()
	if path == "" {
		path = os.Getenv(FileEnv)
	}
	return load(path)
}

func load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile overlays the YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
