package trial

import (
	"context"
	"testing"

	"github.com/Josconicme/trial-insight/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonMergeMultiFn func(ctx context.Context, items []db.JSONItem) error
	jsonGetFn        func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonGetMultiFn   func(ctx context.Context, keys []string, paths ...string) ([][]byte, error)
	existsFn         func(ctx context.Context, key string) (bool, error)
	createIndexFn    func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn    func(ctx context.Context, name string) (bool, error)
	dropIndexFn      func(ctx context.Context, name string, deleteDocs bool) error
	searchListFn     func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	searchBM25Fn     func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchKNNFn      func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	aggregateFn      func(ctx context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error)
}

func (m *mockStore) JSONMergeMulti(ctx context.Context, items []db.JSONItem) error {
	if m.jsonMergeMultiFn != nil {
		return m.jsonMergeMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) JSONGetMulti(ctx context.Context, keys []string, paths ...string) ([][]byte, error) {
	if m.jsonGetMultiFn != nil {
		return m.jsonGetMultiFn(ctx, keys, paths...)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return true, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name, deleteDocs)
	}
	return nil
}

func (m *mockStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchBM25Fn != nil {
		return m.searchBM25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Aggregate(ctx context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error) {
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, q)
	}
	return nil, nil
}

const testDim = 4

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, IndexConfig{VectorDim: testDim, HNSW: HNSWConfig{M: 16, EFConstruct: 200}})
	return repo, ms
}

func strPtr(s string) *string { return &s }
