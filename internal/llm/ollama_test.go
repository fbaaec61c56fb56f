package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewOllamaClient(t *testing.T) {
	client := NewOllamaClient("http://localhost:11434", "")

	if client.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %s, want http://localhost:11434", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("httpClient should not be nil")
	}
	if client.model != DefaultOllamaModel {
		t.Errorf("model = %s, want %s", client.model, DefaultOllamaModel)
	}
	if client.Name() != ProviderOllama {
		t.Errorf("Name() = %s, want ollama", client.Name())
	}
}

func TestOllamaClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %s, want test-model", req.Model)
		}
		if req.Stream {
			t.Error("stream should be false")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "Hello" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.Options != nil {
			t.Error("options should be omitted when unset")
		}

		json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "test-model",
			Message:         ollamaMessage{Role: "assistant", Content: "test response"},
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       20,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(server.URL, "test-model")

	resp, err := client.Complete(context.Background(), &Request{
		System:   "You are a test assistant",
		Messages: []Message{{Role: "user", Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if resp.Content != "test response" {
		t.Errorf("Content = %s, want 'test response'", resp.Content)
	}
	if resp.Provider != ProviderOllama {
		t.Errorf("Provider = %s, want ollama", resp.Provider)
	}
	if resp.InputTokens != 10 || resp.OutputTokens != 20 {
		t.Errorf("tokens = %d/%d, want 10/20", resp.InputTokens, resp.OutputTokens)
	}
}

func TestOllamaClient_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer server.Close()

	_, err := NewOllamaClient(server.URL, "model").Complete(context.Background(), &Request{})
	if err == nil {
		t.Fatal("Complete() should return error on server error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status code", err)
	}
}

func TestOllamaClient_Complete_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(ollamaResponse{})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOllamaClient(server.URL, "model").Complete(ctx, &Request{})
	if err == nil {
		t.Error("Complete() should return error on cancelled context")
	}
}

func TestOllamaClient_Complete_WithOptions(t *testing.T) {
	var receivedReq ollamaRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedReq)
		json.NewEncoder(w).Encode(ollamaResponse{Message: ollamaMessage{Content: "ok"}})
	}))
	defer server.Close()

	_, err := NewOllamaClient(server.URL, "model").Complete(context.Background(), &Request{
		Temperature: 0.7,
		MaxTokens:   100,
		Stop:        []string{"\n", "END"},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if receivedReq.Options == nil {
		t.Fatal("Options should not be nil")
	}
	if receivedReq.Options.Temperature != 0.7 {
		t.Errorf("Temperature = %f, want 0.7", receivedReq.Options.Temperature)
	}
	if receivedReq.Options.NumPredict != 100 {
		t.Errorf("NumPredict = %d, want 100", receivedReq.Options.NumPredict)
	}
	if len(receivedReq.Options.Stop) != 2 {
		t.Errorf("len(Stop) = %d, want 2", len(receivedReq.Options.Stop))
	}
}
