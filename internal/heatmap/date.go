package heatmap

import "time"

// parseDate accepts a plain date (2006-01-02) or a full RFC3339 timestamp,
// matching the two forms the start_date/end_date query parameters may use.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
