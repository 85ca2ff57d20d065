package trial

import (
	"context"
	"fmt"

	"github.com/Josconicme/trial-insight/internal/db"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// List returns one page of trials matching f, most recently updated first,
// together with the total match count.
func (r *Repo) List(ctx context.Context, f trial.ListFilter, p trial.Pagination) (int, []trial.Summary, error) {
	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: IndexName(),
		Query:     listQuery(f),
		SortBy:    fieldLastUpdate,
		SortDesc:  true,
		Offset:    p.Offset(),
		Limit:     p.Limit,
		NoContent: true,
	})
	if err != nil {
		return 0, nil, storeErr("list", err)
	}
	return r.project(ctx, res)
}

// Search returns one page of trials ranked by BM25 relevance to q.
func (r *Repo) Search(ctx context.Context, q string, p trial.Pagination) (int, []trial.Summary, error) {
	query := textQuery(q)
	if query == "" {
		return 0, []trial.Summary{}, nil
	}

	res, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName: IndexName(),
		Query:     query,
		Offset:    p.Offset(),
		Limit:     p.Limit,
		NoContent: true,
	})
	if err != nil {
		return 0, nil, storeErr("search", err)
	}
	return r.project(ctx, res)
}

// Nearby returns one page of trials with a geocoded site within radiusKm.
func (r *Repo) Nearby(
	ctx context.Context, lat, lng, radiusKm float64, p trial.Pagination,
) (int, []trial.Summary, error) {
	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: IndexName(),
		Query:     geoQuery(lat, lng, radiusKm),
		SortBy:    fieldLastUpdate,
		SortDesc:  true,
		Offset:    p.Offset(),
		Limit:     p.Limit,
		NoContent: true,
	})
	if err != nil {
		return 0, nil, storeErr("nearby", err)
	}
	return r.project(ctx, res)
}

// SearchSimilar returns the k nearest records to vec, excluding nctID itself.
func (r *Repo) SearchSimilar(
	ctx context.Context, nctID string, vec []float32, k int,
) ([]trial.RelatedTrial, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: IndexName(),
		Field:     fieldVector,
		Filter:    "-" + tagFilter(fieldNCTID, nctID),
		Vector:    vec,
		K:         k,
	})
	if err != nil {
		return nil, storeErr("similar "+nctID, err)
	}

	out := make([]trial.RelatedTrial, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, trial.RelatedTrial{NCTID: IDFromKey(e.Key), Similarity: e.Score})
	}
	return out, nil
}

// project loads the list-view fields for the keys of a search page, keeping
// the search order. Keys deleted between the two calls are dropped.
func (r *Repo) project(ctx context.Context, res *db.SearchResult) (int, []trial.Summary, error) {
	keys := res.Keys()
	if len(keys) == 0 {
		return res.Total, []trial.Summary{}, nil
	}

	docs, err := r.store.JSONGetMulti(ctx, keys, summaryPaths...)
	if err != nil {
		return 0, nil, storeErr("project", err)
	}

	out := make([]trial.Summary, 0, len(docs))
	for i, data := range docs {
		if data == nil {
			continue
		}
		s, err := parseSummary(data)
		if err != nil {
			return 0, nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, s)
	}
	return res.Total, out, nil
}
