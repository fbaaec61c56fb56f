package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// AnthropicClient Tests
// =============================================================================

func TestNewAnthropicClient_Defaults(t *testing.T) {
	client := NewAnthropicClient("test-api-key", "", "")

	if client.apiKey != "test-api-key" {
		t.Errorf("apiKey = %s, want test-api-key", client.apiKey)
	}
	if client.url != anthropicAPIURL {
		t.Errorf("url = %s, want %s", client.url, anthropicAPIURL)
	}
	if client.model != DefaultAnthropicModel {
		t.Errorf("model = %s, want %s", client.model, DefaultAnthropicModel)
	}
	if client.Name() != ProviderAnthropic {
		t.Errorf("Name() = %s, want %s", client.Name(), ProviderAnthropic)
	}
}

func TestAnthropicClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "sk-ant-test" {
			t.Errorf("x-api-key = %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("anthropic-version header missing")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "claude-test" {
			t.Errorf("Model = %s, want claude-test", req.Model)
		}
		if req.MaxTokens != 4096 {
			t.Errorf("MaxTokens = %d, want 4096 default", req.MaxTokens)
		}
		if req.System != "be brief" {
			t.Errorf("System = %s, want 'be brief'", req.System)
		}

		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"# Report"},{"type":"text","text":"\nall good"}],
			"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":34}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("sk-ant-test", server.URL, "claude-test")
	resp, err := client.Complete(context.Background(), &Request{
		System:   "be brief",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if resp.Content != "# Report\nall good" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 34 {
		t.Errorf("tokens = %d/%d, want 12/34", resp.InputTokens, resp.OutputTokens)
	}
	if resp.FinishReason != "end_turn" {
		t.Errorf("FinishReason = %s, want end_turn", resp.FinishReason)
	}
}

func TestAnthropicClient_Complete_ErrorIsSanitized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid key sk-ant-leaked-secret-value"}`))
	}))
	defer server.Close()

	_, err := NewAnthropicClient("k", server.URL, "").Complete(context.Background(), &Request{})
	if err == nil {
		t.Fatal("Complete() should return error on 401")
	}
	if strings.Contains(err.Error(), "leaked-secret") {
		t.Errorf("error leaks key: %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v, want status code", err)
	}
}
