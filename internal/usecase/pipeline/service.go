// Package pipeline runs the fetch, normalize and load stages end to end.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/logger"
	"github.com/Josconicme/trial-insight/internal/metrics"
	"github.com/Josconicme/trial-insight/internal/normalize"
)

// Result summarizes one pipeline run.
type Result struct {
	RunID      string
	Fetched    int
	Normalized int
	NoProtocol int
	NoID       int
	Loaded     int
	Duration   time.Duration
}

// Skipped returns the number of raw studies dropped by normalization.
func (r Result) Skipped() int { return r.NoProtocol + r.NoID }

// Service orchestrates one full refresh.
type Service struct {
	fetcher Fetcher
	loader  Loader
	logger  *zap.Logger
	newID   func() string
}

// New creates a pipeline service.
func New(fetcher Fetcher, loader Loader, logger *zap.Logger) *Service {
	return &Service{fetcher: fetcher, loader: loader, logger: logger, newID: uuid.NewString}
}

// Run fetches every study, normalizes it and reloads the store. Every log
// line of the run carries its run_id.
func (s *Service) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: s.newID()}
	log := s.logger.With(zap.String("run_id", res.RunID))
	ctx = logger.ContextWithLogger(ctx, log)
	start := time.Now()

	log.Info("Pipeline started", zap.String("step", "1/3 fetch"))
	raws, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}
	res.Fetched = len(raws)
	metrics.PipelineRecordsTotal.WithLabelValues("fetched").Add(float64(res.Fetched))
	log.Info("Studies fetched", zap.Int("fetched", res.Fetched))

	log.Info("Normalizing", zap.String("step", "2/3 normalize"))
	trials, st := normalize.NormalizeAll(raws)
	res.Normalized, res.NoProtocol, res.NoID = st.Kept, st.NoProtocol, st.NoID
	metrics.PipelineRecordsTotal.WithLabelValues("normalized").Add(float64(st.Kept))
	metrics.PipelineRecordsTotal.WithLabelValues("skipped").Add(float64(st.Skipped()))
	log.Info("Studies normalized",
		zap.Int("normalized", st.Kept),
		zap.Int("skipped_no_protocol", st.NoProtocol),
		zap.Int("skipped_no_id", st.NoID),
	)
	if len(trials) == 0 {
		return res, fmt.Errorf("%w: registry returned no usable studies, store left untouched", domain.ErrUpstream)
	}

	log.Info("Loading", zap.String("step", "3/3 load"))
	res.Loaded, err = s.loader.Load(ctx, trials)
	res.Duration = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("load: %w", err)
	}

	log.Info("Pipeline completed",
		zap.Int("loaded", res.Loaded),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}
