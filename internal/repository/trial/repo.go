// Package trial stores clinical-trial records as RedisJSON documents and
// queries them through one RediSearch index.
package trial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Josconicme/trial-insight/internal/db"
	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// store is the consumer interface for trial persistence (ISP).
type store interface {
	JSONMergeMulti(ctx context.Context, items []db.JSONItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string, paths ...string) ([][]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	Aggregate(ctx context.Context, q *db.AggregateQuery) ([]db.AggregateRow, error)
}

func stepField(s trial.Step) (string, error) {
	switch s {
	case trial.StepEmbedding:
		return fieldEmbedded, nil
	case trial.StepSummary:
		return fieldSummarized, nil
	case trial.StepGeocode:
		return fieldGeocoded, nil
	default:
		return "", fmt.Errorf("unknown step %q", s)
	}
}

// pendingPageSize bounds one FT.SEARCH page while collecting pending ids.
const pendingPageSize = 1000

// Repo implements trial persistence on top of the JSON store and the index.
type Repo struct {
	store store
	cfg   IndexConfig
}

// New creates a trial repository.
func New(s store, cfg IndexConfig) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// Reset drops the trial index together with every indexed document.
// A missing index is not an error.
func (r *Repo) Reset(ctx context.Context) error {
	err := r.store.DropIndex(ctx, IndexName(), true)
	if err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return storeErr("drop index", err)
	}
	return nil
}

// EnsureIndex creates the trial index if it does not exist yet. A concurrent
// creator winning the race is not an error.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName())
	if err != nil {
		return storeErr("index info", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return storeErr("create index", err)
	}
	return nil
}

// UpsertBatch writes a batch of normalized trials in one round trip. Each
// document is merged at the root: pipeline fields are overwritten, AI fields
// survive.
func (r *Repo) UpsertBatch(ctx context.Context, trials []trial.Trial) error {
	if len(trials) == 0 {
		return nil
	}

	items := make([]db.JSONItem, 0, len(trials))
	for i := range trials {
		data, err := json.Marshal(toLoadDoc(&trials[i]))
		if err != nil {
			return fmt.Errorf("marshal %s: %w", trials[i].NCTID, err)
		}
		items = append(items, db.JSONItem{Key: Key(trials[i].NCTID), Path: "$", Data: data})
	}

	if err := r.store.JSONMergeMulti(ctx, items); err != nil {
		return storeErr("upsert batch", err)
	}
	return nil
}

// Get returns the full record.
func (r *Repo) Get(ctx context.Context, nctID string) (*trial.Trial, error) {
	data, err := r.store.JSONGet(ctx, Key(nctID), "$")
	if err != nil {
		return nil, notFoundOr("get "+nctID, err)
	}

	var t trial.Trial
	found, err := firstMatch(data, &t)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", nctID, err)
	}
	if !found {
		return nil, domain.ErrTrialNotFound
	}
	return &t, nil
}

// Summary returns the stored AI summary, nil when none was written.
func (r *Repo) Summary(ctx context.Context, nctID string) (*string, error) {
	data, err := r.store.JSONGet(ctx, Key(nctID), "$.summary")
	if err != nil {
		return nil, notFoundOr("get summary "+nctID, err)
	}

	var s string
	found, err := firstMatch(data, &s)
	if err != nil {
		return nil, fmt.Errorf("decode summary %s: %w", nctID, err)
	}
	if !found {
		return nil, nil
	}
	return &s, nil
}

// Embedding returns the stored vector, nil when the record has none.
func (r *Repo) Embedding(ctx context.Context, nctID string) ([]float32, error) {
	data, err := r.store.JSONGet(ctx, Key(nctID), "$.embedding")
	if err != nil {
		return nil, notFoundOr("get embedding "+nctID, err)
	}

	var vec []float32
	if _, err := firstMatch(data, &vec); err != nil {
		return nil, fmt.Errorf("decode embedding %s: %w", nctID, err)
	}
	return vec, nil
}

// Prediction returns the stored recruitment outlook fields.
func (r *Repo) Prediction(ctx context.Context, nctID string) (trial.Prediction, error) {
	data, err := r.store.JSONGet(ctx, Key(nctID), "$.predictedRecruitmentDifficulty", "$.complexityScore")
	if err != nil {
		return trial.Prediction{}, notFoundOr("get prediction "+nctID, err)
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return trial.Prediction{}, fmt.Errorf("decode prediction %s: %w", nctID, err)
	}

	p := trial.Prediction{NCTID: nctID}
	if v := raw["$.predictedRecruitmentDifficulty"]; len(v) > 0 {
		if err := json.Unmarshal(v[0], &p.PredictedRecruitmentDifficulty); err != nil {
			return trial.Prediction{}, fmt.Errorf("decode difficulty %s: %w", nctID, err)
		}
	}
	if v := raw["$.complexityScore"]; len(v) > 0 {
		if err := json.Unmarshal(v[0], &p.ComplexityScore); err != nil {
			return trial.Prediction{}, fmt.Errorf("decode complexity %s: %w", nctID, err)
		}
	}
	return p, nil
}

// SetEmbedding stores the vector and marks the embedding step done.
func (r *Repo) SetEmbedding(ctx context.Context, nctID string, vec []float32) error {
	if len(vec) != r.cfg.VectorDim {
		return fmt.Errorf("%w: embedding has %d dimensions, index expects %d",
			domain.ErrValidation, len(vec), r.cfg.VectorDim)
	}
	return r.mergeFields(ctx, nctID, map[string]any{
		"$.embedding":  vec,
		"$.__embedded": flagTrue,
	})
}

// SetSummary stores the AI summary and marks the summary step done.
func (r *Repo) SetSummary(ctx context.Context, nctID, summary string) error {
	return r.mergeFields(ctx, nctID, map[string]any{
		"$.summary":      summary,
		"$.__summarized": flagTrue,
	})
}

// SetLocations replaces the sites (with coordinates), refreshes the GEO
// values and marks the geocode step done.
func (r *Repo) SetLocations(ctx context.Context, nctID string, locs []trial.Location) error {
	if locs == nil {
		locs = []trial.Location{}
	}
	return r.mergeFields(ctx, nctID, map[string]any{
		"$.locations":  locs,
		"$.__geo":      geoPoints(locs),
		"$.__geocoded": flagTrue,
	})
}

// mergeFields patches individual paths of an existing record. Non-root merges
// fail on a missing key, so a concurrent reset cannot resurrect a partial doc.
func (r *Repo) mergeFields(ctx context.Context, nctID string, fields map[string]any) error {
	key := Key(nctID)
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return storeErr("exists "+nctID, err)
	}
	if !ok {
		return domain.ErrTrialNotFound
	}

	items := make([]db.JSONItem, 0, len(fields))
	for path, v := range fields {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		items = append(items, db.JSONItem{Key: key, Path: path, Data: data})
	}
	if err := r.store.JSONMergeMulti(ctx, items); err != nil {
		return storeErr("merge "+nctID, err)
	}
	return nil
}

// PendingIDs returns every record the given step has not completed yet.
// The full set is collected before the caller starts writing markers, so
// paging is not disturbed by records leaving the result set.
func (r *Repo) PendingIDs(ctx context.Context, step trial.Step) ([]string, error) {
	field, err := stepField(step)
	if err != nil {
		return nil, err
	}

	var ids []string
	for offset := 0; ; offset += pendingPageSize {
		res, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName: IndexName(),
			Query:     missingFilter(field),
			Offset:    offset,
			Limit:     pendingPageSize,
			NoContent: true,
		})
		if err != nil {
			return nil, storeErr("pending "+string(step), err)
		}
		for _, key := range res.Keys() {
			ids = append(ids, IDFromKey(key))
		}
		if len(res.Entries) < pendingPageSize || offset+pendingPageSize >= res.Total {
			return ids, nil
		}
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStore, op, err)
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, db.ErrKeyNotFound) {
		return domain.ErrTrialNotFound
	}
	return storeErr(op, err)
}
