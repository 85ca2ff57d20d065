package pipeline

import (
	"context"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
	"github.com/Josconicme/trial-insight/internal/normalize"
)

// Fetcher returns the complete raw study list or an error.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]normalize.RawStudy, error)
}

// Loader replaces the stored trial set.
type Loader interface {
	Load(ctx context.Context, trials []trial.Trial) (int, error)
}
