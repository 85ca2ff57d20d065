package load

import (
	"context"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// Repository is the storage contract for a full reload.
type Repository interface {
	Reset(ctx context.Context) error
	EnsureIndex(ctx context.Context) error
	UpsertBatch(ctx context.Context, trials []trial.Trial) error
}
