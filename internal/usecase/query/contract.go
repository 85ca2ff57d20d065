package query

import (
	"context"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// Repository is the read contract of the trial store.
type Repository interface {
	List(ctx context.Context, f trial.ListFilter, p trial.Pagination) (int, []trial.Summary, error)
	Search(ctx context.Context, q string, p trial.Pagination) (int, []trial.Summary, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64, p trial.Pagination) (int, []trial.Summary, error)
	Get(ctx context.Context, nctID string) (*trial.Trial, error)
	Summary(ctx context.Context, nctID string) (*string, error)
	Embedding(ctx context.Context, nctID string) ([]float32, error)
	Prediction(ctx context.Context, nctID string) (trial.Prediction, error)
	SearchSimilar(ctx context.Context, nctID string, vec []float32, k int) ([]trial.RelatedTrial, error)
}

// StatsRepository runs the overview aggregations.
type StatsRepository interface {
	TopConditions(ctx context.Context, n int) ([]trial.Count, error)
	StatusCounts(ctx context.Context) ([]trial.Count, error)
	TrialsByYear(ctx context.Context, n int) ([]trial.YearCount, error)
}
