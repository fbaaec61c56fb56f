package llm

import (
	"errors"
	"testing"

	"github.com/testclerk/testclerk/internal/config"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		want    Provider
		wantErr error
	}{
		{name: "openai", cfg: config.LLMConfig{Provider: "openai", APIKey: "k"}, want: ProviderOpenAI},
		{name: "openai without key", cfg: config.LLMConfig{Provider: "openai"}, wantErr: ErrMissingAPIKey},
		{name: "anthropic", cfg: config.LLMConfig{Provider: "anthropic", APIKey: "k"}, want: ProviderAnthropic},
		{name: "anthropic without key", cfg: config.LLMConfig{Provider: "anthropic"}, wantErr: ErrMissingAPIKey},
		{name: "ollama", cfg: config.LLMConfig{Provider: "ollama", OllamaURL: "http://localhost:11434"}, want: ProviderOllama},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewClient() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if client.Name() != tt.want {
				t.Errorf("Name() = %s, want %s", client.Name(), tt.want)
			}
		})
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	if _, err := NewClient(config.LLMConfig{Provider: "bard"}); err == nil {
		t.Error("NewClient() should reject unknown providers")
	}
}

func TestNewClient_OllamaBaseURLOverride(t *testing.T) {
	client, err := NewClient(config.LLMConfig{Provider: "ollama", OllamaURL: "http://a", BaseURL: "http://b"})
	if err != nil {
		t.Fatal(err)
	}
	if got := client.(*OllamaClient).baseURL; got != "http://b" {
		t.Errorf("baseURL = %s, want http://b", got)
	}
}
