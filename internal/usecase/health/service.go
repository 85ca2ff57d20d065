// Package health aggregates component checks for the /health endpoint.
package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional provider is failing; queries still work.
	Degraded Status = "degraded"
	// Unhealthy indicates the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult is one component's outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

const storeCheck = "store"

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type namedProvider struct {
	name    string
	checker ProviderChecker
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	providers []namedProvider
}

// New creates a Service that always checks the store.
func New(store StorePinger) *Service {
	return &Service{store: store}
}

// WithProvider adds an optional provider check. A nil checker is ignored.
func (s *Service) WithProvider(name string, c ProviderChecker) *Service {
	if c != nil {
		s.providers = append(s.providers, namedProvider{name: name, checker: c})
		sort.Slice(s.providers, func(i, j int) bool { return s.providers[i].name < s.providers[j].name })
	}
	return s
}

// Check runs every check.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.providers)+1)}

	r.Checks[storeCheck] = result(s.store.Ping(ctx))
	for _, p := range s.providers {
		r.Checks[p.name] = result(p.checker.HealthCheck(ctx))
		if r.Checks[p.name] == CheckError {
			r.Status = Degraded
		}
	}
	if r.Checks[storeCheck] == CheckError {
		r.Status = Unhealthy
	}
	return r
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
