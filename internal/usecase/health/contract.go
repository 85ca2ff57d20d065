package health

import "context"

// StorePinger checks store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an external provider (embedding, summary).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
