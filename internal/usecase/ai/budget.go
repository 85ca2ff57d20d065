// Package ai guards and instruments calls to the AI providers.
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
)

// BudgetAction defines behavior when the token budget is spent.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the call.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the call with domain.ErrTokenBudgetExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// Budget periods, used in store keys and metric labels.
const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
)

// BudgetStore persists budget counters. IncrBy may be called repeatedly.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// window is one accounting period with its own limit (0 = unlimited).
type window struct {
	period    string
	keyLayout string
	truncate  func(time.Time) time.Time
	limit     int64
	used      int64
	start     time.Time
}

func (w *window) roll(now time.Time) {
	if cur := w.truncate(now); cur.After(w.start) {
		w.start = cur
		w.used = 0
	}
}

func (w *window) exceeded() bool {
	return w.limit > 0 && w.used >= w.limit
}

func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(0, w.limit-w.used)
}

// BudgetTracker caps the tokens spent on embeddings and summaries per day and
// per month. Check is in-memory only; Record updates memory first, then
// writes behind to the store so counters survive CLI restarts.
type BudgetTracker struct {
	mu       sync.Mutex
	windows  [2]*window
	action   BudgetAction
	provider string
	store    BudgetStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewBudgetTracker creates a budget tracker with the given limits.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	b := &BudgetTracker{
		action:   action,
		provider: provider,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	now := b.now()
	b.windows = [2]*window{
		{period: PeriodDaily, keyLayout: "2006-01-02", truncate: truncateToDay, limit: dailyLimit},
		{period: PeriodMonthly, keyLayout: "2006-01", truncate: truncateToMonth, limit: monthlyLimit},
	}
	for _, w := range b.windows {
		w.start = w.truncate(now)
	}
	return b
}

// WithStore attaches a persistence store and loads the current counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	for _, w := range b.windows {
		val, err := store.Get(ctx, b.key(w, now))
		if err != nil {
			b.logger.Warn("Failed to load token budget", zap.String("period", w.period), zap.Error(err))
			continue
		}
		w.used = val
	}

	b.logger.Info("Token budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.windows[0].used),
		zap.Int64("monthly_used", b.windows[1].used),
	)
	return b
}

func (b *BudgetTracker) key(w *window, t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:%s:%s", domain.KeyPrefix, b.provider, w.period, t.Format(w.keyLayout))
}

// Check verifies the budget allows another provider call.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	var spent []zap.Field
	for _, w := range b.windows {
		w.roll(now)
		if w.exceeded() {
			spent = append(spent, zap.Int64(w.period+"_used", w.used), zap.Int64(w.period+"_limit", w.limit))
		}
	}
	if len(spent) == 0 {
		return nil
	}

	if b.action == BudgetActionReject {
		return domain.ErrTokenBudgetExceeded
	}
	b.logger.Warn("Token budget exceeded", append([]zap.Field{zap.String("provider", b.provider)}, spent...)...)
	return nil
}

// Record registers consumed tokens after a call.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	now := b.now()
	keys := make([]string, 0, len(b.windows))
	for _, w := range b.windows {
		w.roll(now)
		w.used += tokens
		keys = append(keys, b.key(w, now))
	}
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, key := range keys {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Remaining returns tokens left per period, -1 when unlimited.
func (b *BudgetTracker) Remaining() map[string]int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	out := make(map[string]int64, len(b.windows))
	for _, w := range b.windows {
		w.roll(now)
		out[w.period] = w.remaining()
	}
	return out
}

// Limit returns the configured limit for the period, 0 when unlimited.
func (b *BudgetTracker) Limit(period string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range b.windows {
		if w.period == period {
			return w.limit
		}
	}
	return 0
}

// Used returns tokens consumed in the current period.
func (b *BudgetTracker) Used(period string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, w := range b.windows {
		if w.period == period {
			w.roll(now)
			return w.used
		}
	}
	return 0
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
