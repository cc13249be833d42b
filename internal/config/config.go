// ABOUTME: Configuration loading and parsing for seance
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete seance configuration
type Config struct {
	Matrix   MatrixConfig   `yaml:"matrix"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Database DatabaseConfig `yaml:"database"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MatrixConfig holds the chat platform connection settings
type MatrixConfig struct {
	Homeserver      string   `yaml:"homeserver"`
	UserID          string   `yaml:"user_id"`
	AccessToken     string   `yaml:"access_token"`
	AllowedRooms    []string `yaml:"allowed_rooms"`
	TypingIndicator bool     `yaml:"typing_indicator"`
}

// OpenAIConfig holds the assistant backend settings
type OpenAIConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	AssistantID         string `yaml:"assistant_id"`
	VectorStoreID       string `yaml:"vector_store_id"`
	MaxCompletionTokens int    `yaml:"max_completion_tokens"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BridgeConfig holds pipeline timing and sizing configuration
type BridgeConfig struct {
	PollInterval    time.Duration `yaml:"-"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`
	ChunkSize       int           `yaml:"chunk_size"`
	ChunkDelay      time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	PollIntervalRaw string `yaml:"poll_interval"`
	ChunkDelayRaw   string `yaml:"chunk_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver is required")
	}
	if c.Matrix.UserID == "" {
		return fmt.Errorf("matrix.user_id is required")
	}
	if c.Matrix.AccessToken == "" {
		return fmt.Errorf("matrix.access_token is required")
	}

	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if c.OpenAI.AssistantID == "" {
		return fmt.Errorf("openai.assistant_id is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Bridge.PollIntervalRaw != "" {
		cfg.Bridge.PollInterval, err = time.ParseDuration(cfg.Bridge.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_interval %q: %w", cfg.Bridge.PollIntervalRaw, err)
		}
	}

	if cfg.Bridge.ChunkDelayRaw != "" {
		cfg.Bridge.ChunkDelay, err = time.ParseDuration(cfg.Bridge.ChunkDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing chunk_delay %q: %w", cfg.Bridge.ChunkDelayRaw, err)
		}
	}

	return nil
}
