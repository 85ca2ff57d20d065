package redis

import (
	"context"
	"fmt"

	"github.com/Josconicme/trial-insight/internal/db"
)

// Aggregate runs an FT.AGGREGATE pipeline and returns its rows in reply order.
func (s *Store) Aggregate(ctx context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error) {
	args, err := q.Args()
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	if len(raw) == 0 {
		return nil, nil
	}

	// RESP2: [count, [k, v, ...], [k, v, ...], ...]
	rows := make([]db.AggregateRow, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		pairs, err := msg.ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse aggregate row: %w", err)
		}
		rows = append(rows, db.AggregateRow(parseFieldPairs(pairs)))
	}
	return rows, nil
}
