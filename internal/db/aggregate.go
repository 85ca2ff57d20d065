package db

import (
	"errors"
	"strconv"
)

// Reducer is a single REDUCE clause of a GROUPBY step.
type Reducer struct {
	Func string
	Args []string
	As   string
}

// Apply is a single APPLY expression.
type Apply struct {
	Expr string
	As   string
}

// SortKey orders aggregate rows by a property.
type SortKey struct {
	Property string
	Desc     bool
}

// AggregateQuery describes a linear FT.AGGREGATE pipeline:
// LOAD -> APPLY -> FILTER -> GROUPBY/REDUCE -> FILTER -> SORTBY [MAX].
// Filter runs on loaded rows; GroupFilter runs on grouped rows, which is
// where an APPLY that yields an array has been expanded to single values.
type AggregateQuery struct {
	IndexName   string
	Query       string
	Load        []string
	Apply       []Apply
	Filter      []string
	GroupBy     []string
	Reducers    []Reducer
	GroupFilter []string
	SortBy      []SortKey
	Max         int
}

// AggregateRow is one output row, property name to value.
type AggregateRow map[string]string

// Int returns the named property as an int, zero when absent or malformed.
func (r AggregateRow) Int(name string) int {
	n, err := strconv.Atoi(r[name])
	if err != nil {
		f, ferr := strconv.ParseFloat(r[name], 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

// Args renders the query into FT.AGGREGATE arguments (index first).
func (q *AggregateQuery) Args() ([]string, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if len(q.Reducers) > 0 && len(q.GroupBy) == 0 {
		return nil, errors.New("reducers require a GROUPBY")
	}
	if len(q.GroupFilter) > 0 && len(q.GroupBy) == 0 {
		return nil, errors.New("group filters require a GROUPBY")
	}

	query := q.Query
	if query == "" {
		query = "*"
	}
	args := []string{q.IndexName, query}

	if len(q.Load) > 0 {
		args = append(args, "LOAD", strconv.Itoa(len(q.Load)))
		args = append(args, q.Load...)
	}
	for _, a := range q.Apply {
		args = append(args, "APPLY", a.Expr, "AS", a.As)
	}
	for _, f := range q.Filter {
		args = append(args, "FILTER", f)
	}
	if len(q.GroupBy) > 0 {
		args = append(args, "GROUPBY", strconv.Itoa(len(q.GroupBy)))
		args = append(args, q.GroupBy...)
		for _, r := range q.Reducers {
			args = append(args, "REDUCE", r.Func, strconv.Itoa(len(r.Args)))
			args = append(args, r.Args...)
			if r.As != "" {
				args = append(args, "AS", r.As)
			}
		}
		for _, f := range q.GroupFilter {
			args = append(args, "FILTER", f)
		}
	}
	if len(q.SortBy) > 0 {
		sortArgs := make([]string, 0, len(q.SortBy)*2)
		for _, k := range q.SortBy {
			dir := "ASC"
			if k.Desc {
				dir = "DESC"
			}
			sortArgs = append(sortArgs, k.Property, dir)
		}
		args = append(args, "SORTBY", strconv.Itoa(len(sortArgs)))
		args = append(args, sortArgs...)
		if q.Max > 0 {
			args = append(args, "MAX", strconv.Itoa(q.Max))
		}
	}
	args = append(args, "DIALECT", "2")
	return args, nil
}
