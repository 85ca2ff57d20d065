package normalize

import "time"

const secondsPerDay = 24 * 60 * 60

var dateLayouts = []string{"2006-01-02", "2006-01"}

// ParseDate parses a registry date. Month-precision dates resolve to the
// first day of the month, UTC.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StudyDuration returns the whole days from start to completion, or nil when
// either date is missing or unparseable or completion precedes start.
func StudyDuration(start, completion *string) *int {
	if start == nil || completion == nil {
		return nil
	}
	s, ok := ParseDate(*start)
	if !ok {
		return nil
	}
	c, ok := ParseDate(*completion)
	if !ok {
		return nil
	}
	// Unix seconds, not time.Duration: Sub saturates past about 292 years.
	secs := c.Unix() - s.Unix()
	if secs < 0 {
		return nil
	}
	days := int(secs / secondsPerDay)
	return &days
}
