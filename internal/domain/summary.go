package domain

import (
	"context"
	"strings"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// SummaryFallbackMarker appears in generator replies that carry no real summary.
const SummaryFallbackMarker = "could not be generated"

// Summarizer produces a plain-language summary for a trial.
type Summarizer interface {
	Summarize(ctx context.Context, t *trial.Trial) (SummaryResult, error)
}

// SummaryResult carries the generated text and token usage.
type SummaryResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// IsFallbackSummary reports whether a generated summary must not be persisted.
func IsFallbackSummary(s string) bool {
	return strings.TrimSpace(s) == "" || strings.Contains(strings.ToLower(s), SummaryFallbackMarker)
}
