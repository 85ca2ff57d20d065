package normalize

import (
	"math"

	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

// Transforms turn a raw node into a typed value. ok=false selects the rule's
// default, so a wrongly typed node behaves like a missing one.

// nonEmptyString accepts non-empty strings only.
func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

func optionalString(v any) (*string, bool) {
	s, ok := nonEmptyString(v)
	if !ok {
		return nil, false
	}
	return &s, true
}

// stringList keeps the string items of an array, in order.
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// count accepts whole, non-negative numbers, zero included.
func count(v any) (*int, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil, false
	}
	n := int(f)
	return &n, true
}

func boolean(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// exactlyYes maps only the literal string "Yes" to true.
func exactlyYes(v any) (bool, bool) {
	s, ok := v.(string)
	return s == "Yes", ok
}

func objects(v any) ([]map[string]any, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, true
}

func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func interventions(v any) ([]trial.Intervention, bool) {
	items, ok := objects(v)
	if !ok {
		return nil, false
	}
	out := make([]trial.Intervention, 0, len(items))
	for _, it := range items {
		out = append(out, trial.Intervention{
			Type:        stringAt(it, "type", "N/A"),
			Name:        stringAt(it, "name", "N/A"),
			Description: stringAt(it, "description", ""),
		})
	}
	return out, true
}

func eligibility(v any) (trial.Eligibility, bool) {
	m, ok := object(v)
	if !ok {
		return trial.Eligibility{}, false
	}
	e := trial.DefaultEligibility()
	e.Criteria = stringAt(m, "eligibilityCriteria", stringAt(m, "criteria", ""))
	e.MinAge, _ = optionalString(m["minimumAge"])
	e.MaxAge, _ = optionalString(m["maximumAge"])
	e.Gender = stringAt(m, "gender", "All")
	e.HealthyVolunteers, _ = exactlyYes(m["healthyVolunteers"])
	return e, true
}

func locations(v any) ([]trial.Location, bool) {
	items, ok := objects(v)
	if !ok {
		return nil, false
	}
	out := make([]trial.Location, 0, len(items))
	for _, it := range items {
		out = append(out, trial.Location{
			Facility: stringAt(it, "facility", ""),
			City:     stringAt(it, "city", ""),
			State:    stringAt(it, "state", ""),
			Country:  stringAt(it, "country", ""),
			Status:   stringAt(it, "status", ""),
		})
	}
	return out, true
}

func sponsor(v any) (*trial.Sponsor, bool) {
	m, ok := object(v)
	if !ok {
		return nil, false
	}
	return &trial.Sponsor{
		Name:  stringAt(m, "name", "N/A"),
		Class: stringAt(m, "class", "N/A"),
	}, true
}

func sponsors(v any) ([]trial.Sponsor, bool) {
	items, ok := objects(v)
	if !ok {
		return nil, false
	}
	out := make([]trial.Sponsor, 0, len(items))
	for _, it := range items {
		s, _ := sponsor(it)
		out = append(out, *s)
	}
	return out, true
}

func stringAt(m map[string]any, key, def string) string {
	if s, ok := nonEmptyString(m[key]); ok {
		return s
	}
	return def
}
