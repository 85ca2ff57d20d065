package trial

import (
	"context"

	"github.com/Josconicme/trial-insight/internal/db"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

const (
	aliasCondition = "condition"
	aliasCount     = "count"
)

var countReducer = db.Reducer{Func: "COUNT", As: aliasCount}

// TopConditions returns the n most frequent conditions, most frequent first.
// Each record counts once per listed condition.
func (r *Repo) TopConditions(ctx context.Context, n int) ([]trial.Count, error) {
	// split() yields an array per record; it is one value per row only after
	// GROUPBY has expanded it, so blanks are filtered on the grouped rows.
	rows, err := r.store.Aggregate(ctx, &db.AggregateQuery{
		IndexName:   IndexName(),
		Load:        []string{"$.__conditions", "AS", "joined"},
		Apply:       []db.Apply{{Expr: `split(@joined, "` + tagSeparator + `")`, As: aliasCondition}},
		GroupBy:     []string{"@" + aliasCondition},
		Reducers:    []db.Reducer{countReducer},
		GroupFilter: []string{`@` + aliasCondition + ` != ""`},
		SortBy:      []db.SortKey{{Property: "@" + aliasCount, Desc: true}},
		Max:         n,
	})
	if err != nil {
		return nil, storeErr("aggregate conditions", err)
	}
	return counts(rows, aliasCondition), nil
}

// StatusCounts returns the record count per status, largest first.
func (r *Repo) StatusCounts(ctx context.Context) ([]trial.Count, error) {
	rows, err := r.store.Aggregate(ctx, &db.AggregateQuery{
		IndexName: IndexName(),
		Load:      []string{"@" + fieldStatus},
		GroupBy:   []string{"@" + fieldStatus},
		Reducers:  []db.Reducer{countReducer},
		SortBy:    []db.SortKey{{Property: "@" + aliasCount, Desc: true}},
	})
	if err != nil {
		return nil, storeErr("aggregate status", err)
	}
	return counts(rows, fieldStatus), nil
}

// TrialsByYear returns record counts for the n most recent start years.
// Records without a start date are not counted.
func (r *Repo) TrialsByYear(ctx context.Context, n int) ([]trial.YearCount, error) {
	rows, err := r.store.Aggregate(ctx, &db.AggregateQuery{
		IndexName: IndexName(),
		Query:     "@" + fieldStartYear + ":[-inf +inf]",
		Load:      []string{"@" + fieldStartYear},
		GroupBy:   []string{"@" + fieldStartYear},
		Reducers:  []db.Reducer{countReducer},
		SortBy:    []db.SortKey{{Property: "@" + fieldStartYear, Desc: true}},
		Max:       n,
	})
	if err != nil {
		return nil, storeErr("aggregate years", err)
	}

	out := make([]trial.YearCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, trial.YearCount{Year: row.Int(fieldStartYear), Count: row.Int(aliasCount)})
	}
	return out, nil
}

func counts(rows []db.AggregateRow, key string) []trial.Count {
	out := make([]trial.Count, 0, len(rows))
	for _, row := range rows {
		out = append(out, trial.Count{Key: row[key], Count: row.Int(aliasCount)})
	}
	return out
}
