package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvAPIKey    = "TESTCLERK_API_KEY"
	EnvProvider  = "TESTCLERK_PROVIDER"
	EnvBaseURL   = "TESTCLERK_BASE_URL"
	EnvModel     = "TESTCLERK_MODEL"
	EnvTimeout   = "TESTCLERK_TIMEOUT"
	EnvOllamaURL = "OLLAMA_URL"
	EnvFramework = "TESTCLERK_FRAMEWORK"
	EnvPython    = "TESTCLERK_PYTHON"
)

// Config holds all application configuration
type Config struct {
	// Framework driver: auto, pytest, go
	Framework string

	// Python interpreter used to run pytest. Empty defers to the project
	// file, then python3.
	Python string

	// LLM
	LLM LLMConfig
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	// Provider: openai, ollama, anthropic
	Provider string

	// APIKey authenticates against key-based providers
	APIKey string

	// BaseURL overrides the provider endpoint. Empty means provider default.
	BaseURL string

	// Model overrides the provider default model
	Model string

	// Timeout bounds a single completion call
	Timeout time.Duration

	// Ollama settings
	OllamaURL string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first; variables already set in the environment
// win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Framework: getEnv(EnvFramework, "auto"),
		Python:    getEnv(EnvPython, ""),

		LLM: LLMConfig{
			Provider:  getEnv(EnvProvider, "openai"),
			APIKey:    getEnv(EnvAPIKey, ""),
			BaseURL:   getEnv(EnvBaseURL, ""),
			Model:     getEnv(EnvModel, ""),
			Timeout:   time.Duration(getEnvInt(EnvTimeout, 60)) * time.Second,
			OllamaURL: getEnv(EnvOllamaURL, "http://localhost:11434"),
		},
	}

	return cfg, nil
}

// NeedsAPIKey reports whether the configured provider authenticates with a key
func (c *LLMConfig) NeedsAPIKey() bool {
	return c.Provider != "ollama"
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("unknown LLM provider %q", c.LLM.Provider)
	}

	if c.LLM.NeedsAPIKey() && c.LLM.APIKey == "" {
		return fmt.Errorf("%s environment variable is not set", EnvAPIKey)
	}
	if !c.LLM.NeedsAPIKey() && c.LLM.OllamaURL == "" {
		return fmt.Errorf("%s required when using ollama provider", EnvOllamaURL)
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("%s must be a positive number of seconds", EnvTimeout)
	}

	switch c.Framework {
	case "auto", "pytest", "go":
	default:
		return fmt.Errorf("unknown framework %q", c.Framework)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
