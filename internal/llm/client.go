package llm

import (
	"fmt"

	"github.com/testclerk/testclerk/internal/config"
)

// NewClient builds the client for the configured provider.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch Provider(cfg.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case ProviderOllama:
		baseURL := cfg.OllamaURL
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		return NewOllamaClient(baseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
