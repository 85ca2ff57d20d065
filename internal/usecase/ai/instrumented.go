package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
	"github.com/Josconicme/trial-insight/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	Remaining() map[string]int64
}

// guard holds what both instrumented providers share. Transport metrics
// (requests, duration, tokens) live in transport/openai; this layer owns the
// budget and the budget gauge.
type guard struct {
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

func (g *guard) check(ctx context.Context, op string) error {
	if g.budget == nil {
		return nil
	}
	if err := g.budget.Check(ctx); err != nil {
		g.logger.Error("Token budget exceeded",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.String("operation", op),
			zap.Error(err),
		)
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func (g *guard) record(tokens int) {
	if g.budget == nil || tokens <= 0 {
		return
	}
	g.budget.Record(int64(tokens))
	for period, left := range g.budget.Remaining() {
		metrics.AIBudgetTokensRemaining.WithLabelValues(g.provider, period).Set(float64(left))
	}
}

// InstrumentedEmbedder wraps an Embedder with budget enforcement and logging.
type InstrumentedEmbedder struct {
	inner domain.Embedder
	guard
}

// NewInstrumentedEmbedder wraps an embedder with budget and observability.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner: inner,
		guard: guard{provider: provider, model: model, budget: budget, logger: logger},
	}
}

// Embed checks the budget, delegates to the inner embedder and records usage.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := p.check(ctx, "embedding"); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.record(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// InstrumentedSummarizer wraps a Summarizer with budget enforcement and logging.
type InstrumentedSummarizer struct {
	inner domain.Summarizer
	guard
}

// NewInstrumentedSummarizer wraps a summarizer with budget and observability.
func NewInstrumentedSummarizer(
	inner domain.Summarizer, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedSummarizer {
	return &InstrumentedSummarizer{
		inner: inner,
		guard: guard{provider: provider, model: model, budget: budget, logger: logger},
	}
}

// Summarize checks the budget, delegates to the inner summarizer and records usage.
func (p *InstrumentedSummarizer) Summarize(ctx context.Context, t *trial.Trial) (domain.SummaryResult, error) {
	if err := p.check(ctx, "summary"); err != nil {
		return domain.SummaryResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Summarize(ctx, t)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Summary request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.String("nct_id", t.NCTID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.SummaryResult{}, fmt.Errorf("summarize: %w", err)
	}

	p.record(result.TotalTokens)

	p.logger.Debug("Summary request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.String("nct_id", t.NCTID),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}
