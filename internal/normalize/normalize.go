// Package normalize maps raw registry studies onto canonical trial records.
package normalize

import (
	"errors"
	"fmt"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// RawStudy is one study as decoded from the registry JSON.
type RawStudy = map[string]any

// Skip reasons. Both wrap domain.ErrDataShape.
var (
	ErrNoProtocol = fmt.Errorf("%w: missing protocolSection", domain.ErrDataShape)
	ErrNoID       = fmt.Errorf("%w: missing nctId", domain.ErrDataShape)
)

// Normalize converts a raw study into a canonical record. It never fails on a
// malformed field; it only rejects records without a protocol section or id.
func Normalize(raw RawStudy) (trial.Trial, error) {
	if _, ok := raw["protocolSection"].(map[string]any); !ok {
		return trial.Trial{}, ErrNoProtocol
	}

	var t trial.Trial
	for i := range rules {
		rules[i].apply(raw, &t)
	}
	if t.NCTID == "" {
		return trial.Trial{}, ErrNoID
	}

	t.StudyDuration = StudyDuration(t.StartDate, t.CompletionDate)
	return t, nil
}

// Stats counts the outcome of a NormalizeAll pass.
type Stats struct {
	Total      int
	Kept       int
	NoProtocol int
	NoID       int
}

// Skipped returns the number of dropped records.
func (s Stats) Skipped() int { return s.NoProtocol + s.NoID }

// NormalizeAll normalizes raws in order, silently dropping unusable records.
func NormalizeAll(raws []RawStudy) ([]trial.Trial, Stats) {
	out := make([]trial.Trial, 0, len(raws))
	st := Stats{Total: len(raws)}
	for _, raw := range raws {
		t, err := Normalize(raw)
		switch {
		case err == nil:
			out = append(out, t)
		case errors.Is(err, ErrNoProtocol):
			st.NoProtocol++
		default:
			st.NoID++
		}
	}
	st.Kept = len(out)
	return out, st
}
