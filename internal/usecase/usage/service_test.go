package usage

import (
	"context"
	"testing"
	"time"
)

// --- Mock ---

type mockBudgetReader struct {
	limits map[string]int64
	used   map[string]int64
}

func (m *mockBudgetReader) Limit(period string) int64 { return m.limits[period] }
func (m *mockBudgetReader) Used(period string) int64  { return m.used[period] }

func fixedNow() time.Time { return time.Date(2026, 10, 17, 15, 4, 5, 0, time.UTC) }

// --- Tests ---

func TestGetReport_DailyPeriod(t *testing.T) {
	svc := New(&mockBudgetReader{
		limits: map[string]int64{PeriodDaily: 10000, PeriodMonthly: 100000},
		used:   map[string]int64{PeriodDaily: 3000, PeriodMonthly: 50000},
	})
	svc.now = fixedNow

	r := svc.GetReport(context.Background(), PeriodDaily)

	if !r.Start.Equal(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", r.Start)
	}
	if !r.End.Equal(time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", r.End)
	}
	if r.Limit != 10000 || r.Used != 3000 || r.Remaining != 7000 || r.Exhausted {
		t.Errorf("report = %+v", r)
	}
}

func TestGetReport_MonthlyExhausted(t *testing.T) {
	svc := New(&mockBudgetReader{
		limits: map[string]int64{PeriodMonthly: 1000},
		used:   map[string]int64{PeriodMonthly: 1200},
	})
	svc.now = fixedNow

	r := svc.GetReport(context.Background(), PeriodMonthly)

	if !r.End.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", r.End)
	}
	if r.Remaining != 0 || !r.Exhausted {
		t.Errorf("report = %+v, want exhausted", r)
	}
}

func TestGetReport_NoLimit(t *testing.T) {
	svc := New(&mockBudgetReader{used: map[string]int64{PeriodDaily: 42}})
	r := svc.GetReport(context.Background(), PeriodDaily)
	if r.Remaining != -1 || r.Exhausted || r.Used != 42 {
		t.Errorf("report = %+v", r)
	}
}

func TestReports_NilReader(t *testing.T) {
	reports := New(nil).Reports(context.Background())
	if len(reports) != 2 {
		t.Fatalf("reports = %d", len(reports))
	}
	for _, r := range reports {
		if r.Used != 0 || r.Remaining != -1 {
			t.Errorf("%s: %+v", r.Period, r)
		}
	}
}
