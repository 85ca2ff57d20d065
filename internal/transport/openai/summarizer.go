package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
	"github.com/Josconicme/trial-insight/internal/metrics"
)

const (
	opSummary = "summary"

	summaryCriteriaLimit = 2000
	summaryMaxTokens     = 300
)

const summarySystemPrompt = "You explain clinical trials to patients. " +
	"Write a short plain-language summary (3 to 5 sentences) of what the trial studies, " +
	"who can take part and what participants can expect. Do not give medical advice."

// Summarizer generates trial summaries with a chat completion model.
type Summarizer struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// NewSummarizer creates an OpenAI-compatible summary provider.
func NewSummarizer(cfg *Config) *Summarizer {
	return &Summarizer{
		client:   newClient(cfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Summarize implements domain.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context, t *trial.Trial) (domain.SummaryResult, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: summaryPrompt(t)},
		},
		MaxTokens:   summaryMaxTokens,
		Temperature: 0.3,
		User:        s.user,
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(s.provider, s.model, opSummary, "error").Inc()
		metrics.AIErrorsTotal.WithLabelValues(s.provider, s.model, opSummary, "api_error").Inc()
		return domain.SummaryResult{}, parseAPIError("summary", err, domain.ErrSummaryProviderError)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.AIRequestsTotal.WithLabelValues(s.provider, s.model, opSummary, "error").Inc()
		metrics.AIErrorsTotal.WithLabelValues(s.provider, s.model, opSummary, "empty_response").Inc()
		return domain.SummaryResult{}, fmt.Errorf("empty summary response: %w", domain.ErrSummaryProviderError)
	}

	metrics.AIRequestsTotal.WithLabelValues(s.provider, s.model, opSummary, "success").Inc()
	metrics.AIRequestDuration.WithLabelValues(s.provider, s.model, opSummary).Observe(duration.Seconds())
	recordTokens(s.provider, s.model, opSummary, resp.Usage)

	return domain.SummaryResult{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// summaryPrompt lists the trial facts the model may draw on.
func summaryPrompt(t *trial.Trial) string {
	names := make([]string, 0, len(t.Interventions))
	for _, iv := range t.Interventions {
		names = append(names, iv.Name)
	}

	criteria := t.Eligibility.Criteria
	if r := []rune(criteria); len(r) > summaryCriteriaLimit {
		criteria = string(r[:summaryCriteriaLimit])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", t.Title)
	if t.OfficialTitle != "" {
		fmt.Fprintf(&b, "Official title: %s\n", t.OfficialTitle)
	}
	fmt.Fprintf(&b, "Status: %s\n", t.Status)
	if len(t.Phase) > 0 {
		fmt.Fprintf(&b, "Phase: %s\n", strings.Join(t.Phase, ", "))
	}
	fmt.Fprintf(&b, "Conditions: %s\n", strings.Join(t.Conditions, ", "))
	fmt.Fprintf(&b, "Interventions: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Eligibility criteria:\n%s\n", criteria)
	return b.String()
}
