// Package normalize maps raw wire objects from both backends into the
// canonical model shapes. All functions are pure: no I/O, no store access.
//
// Structurally invalid items (missing id or author) normalize to nil rather
// than an error, so one bad item never aborts a batch. Callers filter nils.
package normalize

import "time"

// Normalizer holds the configured label vocabulary. The zero value is not
// usable; construct with New.
type Normalizer struct {
	labels LabelTable
}

// New creates a Normalizer. A nil table falls back to DefaultLabelTable.
func New(labels LabelTable) *Normalizer {
	if labels == nil {
		labels = DefaultLabelTable
	}
	return &Normalizer{labels: labels}
}

// parseTime accepts the timestamp formats both backends emit. Malformed
// values yield the zero time, which sorts oldest rather than failing the item.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
