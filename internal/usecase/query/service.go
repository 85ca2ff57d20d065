// Package query serves the read side: filtered lists, text and geo search,
// single records, related trials and statistics.
package query

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// SummaryPlaceholder is returned while a record has no summary yet.
const SummaryPlaceholder = "Summary is being generated. Please check back shortly."

// PredictionPlaceholder is returned for records without a stored outlook.
const PredictionPlaceholder = "Prediction feature is under development."

// Defaults for Options.
const (
	DefaultMaxPageSize   = 100
	DefaultRelatedLimit  = 5
	DefaultStatsTopN     = 10
	DefaultMaxRadiusKm   = 500
	defaultNearbyRadiusK = 50
)

// Options tunes the query limits. Zero values take the defaults.
type Options struct {
	MaxPageSize  int
	RelatedLimit int
	StatsTopN    int
	MaxRadiusKm  float64
}

func (o *Options) applyDefaults() {
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = DefaultMaxPageSize
	}
	if o.RelatedLimit <= 0 {
		o.RelatedLimit = DefaultRelatedLimit
	}
	if o.StatsTopN <= 0 {
		o.StatsTopN = DefaultStatsTopN
	}
	if o.MaxRadiusKm <= 0 {
		o.MaxRadiusKm = DefaultMaxRadiusKm
	}
}

// Service implements the trial queries.
type Service struct {
	repo  Repository
	stats StatsRepository
	opts  Options
}

// New creates a query service.
func New(repo Repository, stats StatsRepository, opts Options) *Service {
	opts.applyDefaults()
	return &Service{repo: repo, stats: stats, opts: opts}
}

// List returns one page of trials matching every set filter, most recently
// updated first.
func (s *Service) List(ctx context.Context, f trial.ListFilter, p trial.Pagination) (trial.Page, error) {
	p = p.Normalize(s.opts.MaxPageSize)
	total, items, err := s.repo.List(ctx, f, p)
	if err != nil {
		return trial.Page{}, fmt.Errorf("list trials: %w", err)
	}
	return trial.NewPage(p, total, items), nil
}

// Search returns one page of trials ranked by text relevance.
func (s *Service) Search(ctx context.Context, q string, p trial.Pagination) (trial.Page, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return trial.Page{}, domain.ErrQueryRequired
	}
	p = p.Normalize(s.opts.MaxPageSize)
	total, items, err := s.repo.Search(ctx, q, p)
	if err != nil {
		return trial.Page{}, fmt.Errorf("search trials: %w", err)
	}
	page := trial.NewPage(p, total, items)
	page.Query = q
	return page, nil
}

// Nearby returns one page of trials with a geocoded site within radiusKm of
// (lat, lng). A non-positive radius takes the default.
func (s *Service) Nearby(
	ctx context.Context, lat, lng, radiusKm float64, p trial.Pagination,
) (trial.Page, error) {
	if lat < -90 || lat > 90 {
		return trial.Page{}, domain.NewValidationError("lat", "must be within [-90, 90]")
	}
	if lng < -180 || lng > 180 {
		return trial.Page{}, domain.NewValidationError("lng", "must be within [-180, 180]")
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusK
	}
	if radiusKm > s.opts.MaxRadiusKm {
		return trial.Page{}, domain.NewValidationError("radius", fmt.Sprintf("must not exceed %g km", s.opts.MaxRadiusKm))
	}

	p = p.Normalize(s.opts.MaxPageSize)
	total, items, err := s.repo.Nearby(ctx, lat, lng, radiusKm, p)
	if err != nil {
		return trial.Page{}, fmt.Errorf("nearby trials: %w", err)
	}
	return trial.NewPage(p, total, items), nil
}

// Get returns the full record.
func (s *Service) Get(ctx context.Context, nctID string) (*trial.Trial, error) {
	t, err := s.repo.Get(ctx, nctID)
	if err != nil {
		return nil, fmt.Errorf("get trial: %w", err)
	}
	return t, nil
}

// Summary returns the stored summary or SummaryPlaceholder.
func (s *Service) Summary(ctx context.Context, nctID string) (string, error) {
	sum, err := s.repo.Summary(ctx, nctID)
	if err != nil {
		return "", fmt.Errorf("get summary: %w", err)
	}
	if sum == nil || strings.TrimSpace(*sum) == "" {
		return SummaryPlaceholder, nil
	}
	return *sum, nil
}

// Related returns the nearest neighbours of the record in embedding space.
// A record without an embedding has none.
func (s *Service) Related(ctx context.Context, nctID string) ([]trial.RelatedTrial, error) {
	vec, err := s.repo.Embedding(ctx, nctID)
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	if len(vec) == 0 {
		return []trial.RelatedTrial{}, nil
	}

	related, err := s.repo.SearchSimilar(ctx, nctID, vec, s.opts.RelatedLimit)
	if err != nil {
		return nil, fmt.Errorf("related trials: %w", err)
	}
	return related, nil
}

// Prediction returns the stored recruitment outlook.
func (s *Service) Prediction(ctx context.Context, nctID string) (trial.Prediction, error) {
	p, err := s.repo.Prediction(ctx, nctID)
	if err != nil {
		return trial.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}
	if p.PredictedRecruitmentDifficulty == nil && p.ComplexityScore == nil {
		p.Message = PredictionPlaceholder
	}
	return p, nil
}

// Stats runs the three overview aggregations concurrently. Any failure fails
// the whole call.
func (s *Service) Stats(ctx context.Context) (trial.Stats, error) {
	var out trial.Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.stats.TopConditions(gctx, s.opts.StatsTopN)
		if err != nil {
			return fmt.Errorf("top conditions: %w", err)
		}
		out.TopConditions = v
		return nil
	})
	g.Go(func() error {
		v, err := s.stats.StatusCounts(gctx)
		if err != nil {
			return fmt.Errorf("status counts: %w", err)
		}
		out.StatusCounts = v
		return nil
	})
	g.Go(func() error {
		v, err := s.stats.TrialsByYear(gctx, s.opts.StatsTopN)
		if err != nil {
			return fmt.Errorf("trials by year: %w", err)
		}
		out.TrialsByYear = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return trial.Stats{}, err
	}
	return out, nil
}
