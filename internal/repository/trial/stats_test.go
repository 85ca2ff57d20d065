package trial

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Josconicme/trial-insight/internal/db"
	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

func TestTopConditions(t *testing.T) {
	repo, ms := newTestRepo(t)

	var gotQ *db.AggregateQuery
	ms.aggregateFn = func(_ context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error) {
		gotQ = q
		return []db.AggregateRow{
			{"condition": "Asthma", "count": "12"},
			{"condition": "Stroke", "count": "7"},
		}, nil
	}

	got, err := repo.TopConditions(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopConditions: %v", err)
	}

	args, err := gotQ.Args()
	if err != nil {
		t.Fatalf("Args: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, part := range []string{
		`LOAD 3 $.__conditions AS joined`,
		`APPLY split(@joined, "|") AS condition`,
		`GROUPBY 1 @condition REDUCE COUNT 0 AS count`,
		`SORTBY 2 @count DESC MAX 10`,
	} {
		if !strings.Contains(joined, part) {
			t.Errorf("args %q missing %q", joined, part)
		}
	}
	// The blank-condition filter must see grouped single values, not the
	// per-record array split() returns.
	filterAt := strings.Index(joined, `FILTER @condition != ""`)
	groupAt := strings.Index(joined, "GROUPBY")
	if filterAt < 0 || filterAt < groupAt {
		t.Errorf("FILTER must follow GROUPBY: %q", joined)
	}

	want := []trial.Count{{Key: "Asthma", Count: 12}, {Key: "Stroke", Count: 7}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestStatusCounts(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(_ context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error) {
		if q.Max != 0 {
			t.Errorf("status counts must not be truncated, Max = %d", q.Max)
		}
		return []db.AggregateRow{{"status": "RECRUITING", "count": "30"}, {"status": "COMPLETED", "count": "4"}}, nil
	}
	got, err := repo.StatusCounts(context.Background())
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	if len(got) != 2 || got[0].Key != "RECRUITING" || got[0].Count != 30 {
		t.Errorf("got %+v", got)
	}
}

func TestTrialsByYear(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(_ context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error) {
		if q.Query != "@startYear:[-inf +inf]" {
			t.Errorf("query = %q", q.Query)
		}
		if len(q.SortBy) != 1 || q.SortBy[0].Property != "@startYear" || !q.SortBy[0].Desc || q.Max != 10 {
			t.Errorf("sort = %+v max = %d", q.SortBy, q.Max)
		}
		return []db.AggregateRow{{"startYear": "2024", "count": "3"}, {"startYear": "2023", "count": "9"}}, nil
	}
	got, err := repo.TrialsByYear(context.Background(), 10)
	if err != nil {
		t.Fatalf("TrialsByYear: %v", err)
	}
	want := []trial.YearCount{{Year: 2024, Count: 3}, {Year: 2023, Count: 9}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestAggregates_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(context.Context, *db.AggregateQuery) ([]db.AggregateRow, error) {
		return nil, errors.New("boom")
	}
	if _, err := repo.StatusCounts(context.Background()); !errors.Is(err, domain.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}
}
