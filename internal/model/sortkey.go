package model

import (
	"fmt"
	"time"
)

// SortKey is a lexicographically comparable ordering key derived from creation
// time plus an id tiebreak. Byte-wise comparison of two keys matches
// chronological comparison, which lets the same value order both in-memory
// summary lists and on-disk range-scan keys.
//
// Layout: 16 hex digits of unix-millis, '.', then the tiebreak. Numeric ids
// (Mastodon snowflakes) are zero-padded so they compare numerically.
type SortKey string

const numericPadWidth = 20

// NewSortKey builds a key from a creation time and the item id.
func NewSortKey(t time.Time, id string) SortKey {
	return SortKey(fmt.Sprintf("%016x.%s", t.UnixMilli(), padNumeric(id)))
}

// Before reports whether k orders strictly earlier in time than other.
func (k SortKey) Before(other SortKey) bool {
	return k < other
}

func padNumeric(id string) string {
	if id == "" || len(id) >= numericPadWidth {
		return id
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	buf := make([]byte, numericPadWidth)
	pad := numericPadWidth - len(id)
	for i := 0; i < pad; i++ {
		buf[i] = '0'
	}
	copy(buf[pad:], id)
	return string(buf)
}

// SummaryType distinguishes what a timeline entry points at.
type SummaryType string

const (
	SummaryStatus       SummaryType = "status"
	SummaryNotification SummaryType = "notification"
)

// Summary is the projection of a Status or Notification used for list
// rendering and timeline ordering. Lists hold only these; the entity table
// holds the full objects, so one entity update fans out everywhere.
type Summary struct {
	ID      string      `json:"id"`
	SortKey SortKey     `json:"sort_key"`
	Type    SummaryType `json:"type"`
}

// StatusSummary projects a status to its timeline summary.
func StatusSummary(s *Status) Summary {
	return Summary{ID: s.ID, SortKey: NewSortKey(s.CreatedAt, s.ID), Type: SummaryStatus}
}

// NotificationSummary projects a notification to its timeline summary.
func NotificationSummary(n *Notification) Summary {
	return Summary{ID: n.ID, SortKey: NewSortKey(n.CreatedAt, n.ID), Type: SummaryNotification}
}
