// Package usage reports AI token consumption against the configured budget.
package usage

import (
	"context"
	"time"
)

// Period names match the budget tracker's.
const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
)

// Report is the token usage for one budget period.
type Report struct {
	Period    string
	Start     time.Time
	End       time.Time
	Limit     int64 // 0 = unlimited
	Used      int64
	Remaining int64 // -1 = unlimited
	Exhausted bool
}

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: func() time.Time { return time.Now().UTC() }}
}

// Reports returns the daily and the monthly report.
func (s *Service) Reports(ctx context.Context) []Report {
	return []Report{s.GetReport(ctx, PeriodDaily), s.GetReport(ctx, PeriodMonthly)}
}

// GetReport builds a usage report for the given period. End is when the
// period's counter resets.
func (s *Service) GetReport(_ context.Context, period string) Report {
	now := s.now()
	r := Report{Period: period, Remaining: -1}

	switch period {
	case PeriodDaily:
		r.Start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.End = r.Start.Add(24 * time.Hour)
	case PeriodMonthly:
		r.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.End = r.Start.AddDate(0, 1, 0)
	}

	if s.br == nil {
		return r
	}
	r.Limit = s.br.Limit(period)
	r.Used = s.br.Used(period)
	if r.Limit > 0 {
		r.Remaining = max(0, r.Limit-r.Used)
		r.Exhausted = r.Remaining == 0
	}
	return r
}
