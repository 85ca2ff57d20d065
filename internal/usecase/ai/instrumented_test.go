package ai

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
	"github.com/Josconicme/trial-insight/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterAIMetrics()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

type mockSummarizer struct {
	result domain.SummaryResult
	err    error
	calls  int
}

func (m *mockSummarizer) Summarize(_ context.Context, _ *trial.Trial) (domain.SummaryResult, error) {
	m.calls++
	return m.result, m.err
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 100}}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 100 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedEmbedder(inner, "test", "test-model", nil, zap.NewNop())

	if _, err := p.Embed(context.Background(), "hello"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestInstrumentedEmbedder_BudgetRejection(t *testing.T) {
	budget := NewBudgetTracker("test-budget", 100, 0, BudgetActionReject, zap.NewNop())
	budget.Record(100)

	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1}}}
	p := NewInstrumentedEmbedder(inner, "test-budget", "test-model", budget, zap.NewNop())

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrTokenBudgetExceeded) {
		t.Fatalf("expected ErrTokenBudgetExceeded, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("provider called %d times over budget", inner.calls)
	}
}

func TestInstrumentedSummarizer_RecordsBudget(t *testing.T) {
	budget := NewBudgetTracker("test-record", 1000000, 10000000, BudgetActionReject, zap.NewNop())
	inner := &mockSummarizer{result: domain.SummaryResult{Text: "ok", TotalTokens: 500}}
	p := NewInstrumentedSummarizer(inner, "test-record", "chat", budget, zap.NewNop())

	before := budget.Remaining()
	if _, err := p.Summarize(context.Background(), &trial.Trial{NCTID: "NCT1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := budget.Remaining()

	for _, period := range []string{PeriodDaily, PeriodMonthly} {
		if after[period] != before[period]-500 {
			t.Errorf("%s remaining %d -> %d, want -500", period, before[period], after[period])
		}
	}
}

func TestInstrumentedSummarizer_Error(t *testing.T) {
	inner := &mockSummarizer{err: domain.ErrSummaryProviderError}
	p := NewInstrumentedSummarizer(inner, "test", "chat", nil, zap.NewNop())

	if _, err := p.Summarize(context.Background(), &trial.Trial{}); !errors.Is(err, domain.ErrSummaryProviderError) {
		t.Fatalf("expected ErrSummaryProviderError, got %v", err)
	}
}
