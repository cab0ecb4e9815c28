package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendex/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, reply string, captured *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func TestGenerator_SystemAndUserParts(t *testing.T) {
	var captured chatRequest
	server := chatServer(t, "the answer", &captured)
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	out, err := gen.Generate(context.Background(), "schema prompt", "part one", "part two")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "the answer" {
		t.Errorf("out = %q", out)
	}

	if len(captured.Messages) != 2 {
		t.Fatalf("messages = %+v, want system + user", captured.Messages)
	}
	if captured.Messages[0].Role != "system" || captured.Messages[0].Content != "schema prompt" {
		t.Errorf("system message = %+v", captured.Messages[0])
	}
	if captured.Messages[1].Role != "user" || captured.Messages[1].Content != "part one\n\npart two" {
		t.Errorf("user message = %+v", captured.Messages[1])
	}
}

func TestGenerator_SinglePartIsUserMessage(t *testing.T) {
	var captured chatRequest
	server := chatServer(t, "ok", &captured)
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})

	if _, err := gen.Generate(context.Background(), "just a question"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want a single user message", captured.Messages)
	}
}

func TestGenerator_TimeoutBoundsSlowCalls(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	gen := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
		Timeout: 20 * time.Millisecond,
		Logger:  zap.NewNop(),
	})

	start := time.Now()
	_, err := gen.Generate(context.Background(), "question")
	if err == nil {
		t.Fatal("expected error from a stalled provider")
	}
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("error = %v, want wrapped generation failure", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("call took %v, deadline did not bound it", elapsed)
	}
}

func TestGenerator_NoParts(t *testing.T) {
	gen := NewGenerator(&GeneratorConfig{
		APIKey:  "test-key",
		BaseURL: "http://unused",
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
	if _, err := gen.Generate(context.Background()); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
