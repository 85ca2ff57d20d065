// Package load replaces the stored trial set with a freshly normalized one.
package load

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
	"github.com/Josconicme/trial-insight/internal/logger"
	"github.com/Josconicme/trial-insight/internal/metrics"
)

// DefaultBatchSize is the number of records written per round trip.
const DefaultBatchSize = 500

// Service drops the previous trial set, rebuilds the index and upserts the
// new records in sequential batches.
type Service struct {
	repo      Repository
	batchSize int
}

// New creates a loader. Non-positive batchSize falls back to DefaultBatchSize.
func New(repo Repository, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{repo: repo, batchSize: batchSize}
}

// Load returns the number of records written. A failed batch aborts the load;
// batches written before it stay in the store and are counted.
func (s *Service) Load(ctx context.Context, trials []trial.Trial) (int, error) {
	log := logger.FromContext(ctx)

	if err := s.repo.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}
	if err := s.repo.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}

	loaded := 0
	for start := 0; start < len(trials); start += s.batchSize {
		end := min(start+s.batchSize, len(trials))
		batch := trials[start:end]

		began := time.Now()
		err := s.repo.UpsertBatch(ctx, batch)
		metrics.PipelineBatchDuration.Observe(time.Since(began).Seconds())
		if err != nil {
			return loaded, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}

		loaded += len(batch)
		metrics.PipelineRecordsTotal.WithLabelValues("loaded").Add(float64(len(batch)))
		log.Debug("Batch loaded",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("loaded", loaded),
			zap.Int("total", len(trials)),
		)
	}
	return loaded, nil
}
