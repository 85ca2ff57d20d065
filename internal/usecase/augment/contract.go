package augment

import (
	"context"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// Repository is the storage contract of the augmentation runs.
type Repository interface {
	PendingIDs(ctx context.Context, step trial.Step) ([]string, error)
	Get(ctx context.Context, nctID string) (*trial.Trial, error)
	SetEmbedding(ctx context.Context, nctID string, vec []float32) error
	SetSummary(ctx context.Context, nctID, summary string) error
	SetLocations(ctx context.Context, nctID string, locs []trial.Location) error
}
