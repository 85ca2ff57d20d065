package trial

import "strings"

const embeddingCriteriaLimit = 1000

// EmbeddingText builds the text blob sent to the embedding generator.
func EmbeddingText(t *Trial) string {
	names := make([]string, 0, len(t.Interventions))
	for _, iv := range t.Interventions {
		names = append(names, iv.Name)
	}

	criteria := t.Eligibility.Criteria
	if r := []rune(criteria); len(r) > embeddingCriteriaLimit {
		criteria = string(r[:embeddingCriteriaLimit])
	}

	parts := []string{
		"Title: " + t.Title,
		"Official Title: " + t.OfficialTitle,
		"Status: " + t.Status,
		"Conditions: " + strings.Join(t.Conditions, ", "),
		"Interventions: " + strings.Join(names, ", "),
		"Summary: " + criteria,
	}
	return strings.Join(parts, "; ")
}

// Address formats a location for geocoding: facility, city, state and
// country joined by ", ", empty parts dropped.
func (l *Location) Address() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{l.Facility, l.City, l.State, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
