package trial

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
	"github.com/Josconicme/trial-insight/internal/normalize"
)

// flagTrue marks a completed augmentation step.
const flagTrue = "true"

// loadDoc is the document written by a load: the pipeline-owned fields plus the
// derived fields the index needs. AI fields are never part of it, so a merge
// leaves them in place.
type loadDoc struct {
	trial.Trial
	derived
}

// derived fields are prefixed "__" and stripped from every read.
type derived struct {
	HasResults       string   `json:"__hasResults"`
	JoinedConditions string   `json:"__conditions"`
	StartTS          *int64   `json:"__startDate"`
	CompletionTS     *int64   `json:"__completionDate"`
	LastUpdateTS     *int64   `json:"__lastUpdateDate"`
	StartYear        *int     `json:"__startYear"`
	GeoPoints        []string `json:"__geo"`
}

func toLoadDoc(t *trial.Trial) loadDoc {
	doc := loadDoc{Trial: *t}
	doc.Embedding = nil
	doc.Summary = nil
	doc.Keywords = nil
	doc.ComplexityScore = nil
	doc.PredictedRecruitmentDifficulty = nil
	doc.RelatedTrials = nil

	doc.HasResults = strconv.FormatBool(t.ResultsAvailable)
	doc.JoinedConditions = strings.Join(t.Conditions, tagSeparator)
	doc.StartTS = unixDate(t.StartDate)
	doc.CompletionTS = unixDate(t.CompletionDate)
	doc.LastUpdateTS = unixDate(t.LastUpdateDate)
	if t.StartDate != nil {
		if d, ok := normalize.ParseDate(*t.StartDate); ok {
			y := d.Year()
			doc.StartYear = &y
		}
	}
	doc.GeoPoints = geoPoints(t.Locations)
	return doc
}

func unixDate(s *string) *int64 {
	if s == nil {
		return nil
	}
	d, ok := normalize.ParseDate(*s)
	if !ok {
		return nil
	}
	ts := d.Unix()
	return &ts
}

// geoPoints renders located sites as "lon,lat" GEO values.
func geoPoints(locs []trial.Location) []string {
	out := make([]string, 0, len(locs))
	for i := range locs {
		p := locs[i].Coordinates
		if p == nil {
			continue
		}
		out = append(out,
			strconv.FormatFloat(p.Lng(), 'f', -1, 64)+","+strconv.FormatFloat(p.Lat(), 'f', -1, 64))
	}
	return out
}

// summaryPaths is the list-view projection, in trial.Summary field order.
var summaryPaths = []string{"$.nctId", "$.title", "$.status", "$.phase", "$.conditions", "$.startDate"}

// parseSummary decodes a multi-path JSON.GET reply: {"$.title":["..."], ...}.
// Each path maps to an array holding zero or one match.
func parseSummary(data []byte) (trial.Summary, error) {
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return trial.Summary{}, fmt.Errorf("unmarshal summary: %w", err)
	}

	var s trial.Summary
	targets := []any{&s.NCTID, &s.Title, &s.Status, &s.Phase, &s.Conditions, &s.StartDate}
	for i, path := range summaryPaths {
		vals := raw[path]
		if len(vals) == 0 {
			continue
		}
		if err := json.Unmarshal(vals[0], targets[i]); err != nil {
			return trial.Summary{}, fmt.Errorf("unmarshal %s: %w", path, err)
		}
	}
	if s.Phase == nil {
		s.Phase = []string{}
	}
	if s.Conditions == nil {
		s.Conditions = []string{}
	}
	return s, nil
}

// firstMatch decodes the first element of a single-path JSON.GET reply
// ("[value]"). It reports false for an empty match list or a JSON null.
func firstMatch(data []byte, v any) (bool, error) {
	var vals []json.RawMessage
	if err := json.Unmarshal(data, &vals); err != nil {
		return false, fmt.Errorf("unmarshal: %w", err)
	}
	if len(vals) == 0 || string(vals[0]) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(vals[0], v); err != nil {
		return false, fmt.Errorf("unmarshal: %w", err)
	}
	return true, nil
}
