// Package augment enriches stored trials with embeddings, summaries and site
// coordinates. Each run walks the records its step has not completed yet,
// one provider call at a time.
package augment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
	"github.com/Josconicme/trial-insight/internal/metrics"
)

// Report counts the outcome of one run.
type Report struct {
	Step    trial.Step
	Pending int
	OK      int
	Failed  int
	Skipped int
}

// Options tunes the runs.
type Options struct {
	CallDelay    time.Duration // between AI calls
	GeocodeDelay time.Duration // between geocoder calls
	Limit        int           // max records per run, 0 = all pending
}

// Service runs the augmentation steps. Providers left nil disable their step.
type Service struct {
	repo       Repository
	embedder   domain.Embedder
	summarizer domain.Summarizer
	geocoder   domain.Geocoder
	opts       Options
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates an augmentation service.
func New(repo Repository, opts Options, logger *zap.Logger) *Service {
	return &Service{repo: repo, opts: opts, logger: logger, sleep: sleepCtx}
}

// WithEmbedder enables the embedding run.
func (s *Service) WithEmbedder(e domain.Embedder) *Service {
	s.embedder = e
	return s
}

// WithSummarizer enables the summary run.
func (s *Service) WithSummarizer(sum domain.Summarizer) *Service {
	s.summarizer = sum
	return s
}

// WithGeocoder enables the geocoding run.
func (s *Service) WithGeocoder(g domain.Geocoder) *Service {
	s.geocoder = g
	return s
}

// errSkip marks a record left pending on purpose.
var errSkip = errors.New("skipped")

// Embed stores an embedding for every record that has none.
func (s *Service) Embed(ctx context.Context) (Report, error) {
	if s.embedder == nil {
		return Report{}, errors.New("embedding provider is not configured")
	}
	return s.run(ctx, trial.StepEmbedding, s.opts.CallDelay, func(ctx context.Context, t *trial.Trial) error {
		res, err := s.embedder.Embed(ctx, trial.EmbeddingText(t))
		if err != nil {
			return err
		}
		return s.repo.SetEmbedding(ctx, t.NCTID, res.Embedding)
	})
}

// Summarize stores a summary for every record that has none. Fallback replies
// are not stored, so the record is retried on the next run.
func (s *Service) Summarize(ctx context.Context) (Report, error) {
	if s.summarizer == nil {
		return Report{}, errors.New("summary provider is not configured")
	}
	return s.run(ctx, trial.StepSummary, s.opts.CallDelay, func(ctx context.Context, t *trial.Trial) error {
		res, err := s.summarizer.Summarize(ctx, t)
		if err != nil {
			return err
		}
		if domain.IsFallbackSummary(res.Text) {
			return errSkip
		}
		return s.repo.SetSummary(ctx, t.NCTID, res.Text)
	})
}

// Geocode resolves site coordinates for every record not geocoded yet. A
// record is marked done once each site was either resolved or reported as
// unknown by the provider; provider errors leave it pending.
func (s *Service) Geocode(ctx context.Context) (Report, error) {
	if s.geocoder == nil {
		return Report{}, errors.New("geocoder is not configured")
	}
	return s.run(ctx, trial.StepGeocode, 0, func(ctx context.Context, t *trial.Trial) error {
		locs := make([]trial.Location, len(t.Locations))
		copy(locs, t.Locations)

		calls := 0
		for i := range locs {
			if locs[i].Coordinates != nil {
				continue
			}
			addr := locs[i].Address()
			if addr == "" {
				continue
			}
			if calls > 0 {
				if err := s.sleep(ctx, s.opts.GeocodeDelay); err != nil {
					return err
				}
			}
			calls++
			c, ok, err := s.geocoder.Geocode(ctx, addr)
			if err != nil {
				return fmt.Errorf("geocode %q: %w", addr, err)
			}
			if ok {
				locs[i].Coordinates = trial.NewPoint(c.Lat, c.Lng)
			}
		}
		return s.repo.SetLocations(ctx, t.NCTID, locs)
	})
}

type processFn func(ctx context.Context, t *trial.Trial) error

func (s *Service) run(ctx context.Context, step trial.Step, delay time.Duration, fn processFn) (Report, error) {
	rep := Report{Step: step}
	log := s.logger.With(zap.String("step", string(step)))

	ids, err := s.repo.PendingIDs(ctx, step)
	if err != nil {
		return rep, fmt.Errorf("pending %s: %w", step, err)
	}
	if s.opts.Limit > 0 && len(ids) > s.opts.Limit {
		ids = ids[:s.opts.Limit]
	}
	rep.Pending = len(ids)
	log.Info("Augmentation started", zap.Int("pending", rep.Pending))

	for i, id := range ids {
		if i > 0 && delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				return rep, err
			}
		}

		err := s.process(ctx, id, fn)
		switch {
		case err == nil:
			rep.OK++
			metrics.AugmentRecordsTotal.WithLabelValues(string(step), "ok").Inc()
		case errors.Is(err, errSkip):
			rep.Skipped++
			metrics.AugmentRecordsTotal.WithLabelValues(string(step), "skipped").Inc()
			log.Warn("Record skipped", zap.String("nct_id", id))
		case errors.Is(err, domain.ErrTokenBudgetExceeded), ctx.Err() != nil:
			rep.Failed++
			metrics.AugmentRecordsTotal.WithLabelValues(string(step), "failed").Inc()
			return rep, fmt.Errorf("%s run stopped at %s: %w", step, id, err)
		default:
			rep.Failed++
			metrics.AugmentRecordsTotal.WithLabelValues(string(step), "failed").Inc()
			log.Error("Record failed", zap.String("nct_id", id), zap.Error(err))
		}

		if (i+1)%100 == 0 {
			log.Info("Augmentation progress",
				zap.Int("done", i+1),
				zap.Int("pending", rep.Pending),
				zap.Int("failed", rep.Failed),
			)
		}
	}

	log.Info("Augmentation completed",
		zap.Int("ok", rep.OK),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

func (s *Service) process(ctx context.Context, id string, fn processFn) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	return fn(ctx, t)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
