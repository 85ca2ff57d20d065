package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

func newTestSummarizer(url string) *Summarizer {
	return NewSummarizer(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "chat-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"id":     "c1",
		"object": "chat.completion",
		"model":  "chat-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 60, "total_tokens": 180},
	}
}

func TestSummarizer_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "chat-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		if !strings.Contains(req.Messages[1].Content, "Conditions: Stroke") {
			t.Errorf("prompt missing conditions: %q", req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatReply("  This trial tests aspirin.  "))
	}))
	defer server.Close()

	tr := &trial.Trial{Title: "Aspirin", Status: "RECRUITING", Conditions: []string{"Stroke"}}
	res, err := newTestSummarizer(server.URL).Summarize(context.Background(), tr)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if res.Text != "This trial tests aspirin." {
		t.Errorf("text = %q", res.Text)
	}
	if res.TotalTokens != 180 {
		t.Errorf("total tokens = %d, want 180", res.TotalTokens)
	}
}

func TestSummarizer_EmptyChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatReply("   "))
	}))
	defer server.Close()

	_, err := newTestSummarizer(server.URL).Summarize(context.Background(), &trial.Trial{})
	if !errors.Is(err, domain.ErrSummaryProviderError) {
		t.Errorf("expected ErrSummaryProviderError, got %v", err)
	}
}

func TestSummaryPrompt_TruncatesCriteria(t *testing.T) {
	tr := &trial.Trial{Eligibility: trial.Eligibility{Criteria: strings.Repeat("x", 5000)}}
	p := summaryPrompt(tr)
	if n := strings.Count(p, "x"); n != summaryCriteriaLimit {
		t.Errorf("criteria chars = %d, want %d", n, summaryCriteriaLimit)
	}
}
