package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/automenta/mcr/internal/config"
)

func TestZAIAdapterGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Fatalf("unexpected model: %s", req.Model)
		}
		resp := chatCompletionResponse{}
		resp.Choices = []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: "is_blue(sky)."}}}
		resp.Usage.PromptTokens = 10
		resp.Usage.CompletionTokens = 5
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	adapter := NewZAIAdapter(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Timeout: "5s",
	})

	resp, err := adapter.Generate(context.Background(), "system", "user", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text == nil || *resp.Text != "is_blue(sky)." {
		t.Fatalf("unexpected text: %v", resp.Text)
	}
	if resp.Cost["input_tokens"] != 10 {
		t.Fatalf("unexpected cost: %+v", resp.Cost)
	}
}

func TestZAIAdapterNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid api key"}`))
	}))
	defer server.Close()

	adapter := NewZAIAdapter(config.LLMConfig{BaseURL: server.URL, Model: "m", Timeout: "5s"})
	if _, err := adapter.Generate(context.Background(), "s", "u", nil); err == nil {
		t.Fatal("expected an error for a 401 response")
	}
}
