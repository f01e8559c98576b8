// Package timeline implements the merge engine: given the cached summary
// list of a timeline and a freshly normalized batch, it produces the new
// authoritative ordered list. Pure set algebra over summaries, no I/O.
package timeline

import "strings"

// Kind selects the ordering rules of a timeline.
type Kind int

const (
	// KindFeed orders reverse-chronologically.
	KindFeed Kind = iota
	// KindThread orders ancestors before the focal post before descendants,
	// which plain chronological order yields.
	KindThread
	// KindNotifications applies a batch arranger before merging.
	KindNotifications
)

// Well-known timeline names. Thread timelines are named "thread:" + status id.
const (
	NameHome          = "home"
	NameLocal         = "local"
	NameFederated     = "federated"
	NameNotifications = "notifications"
	NameFavourites    = "favourites"
	NameBookmarks     = "bookmarks"
	ThreadPrefix      = "thread:"
)

// KindOf derives the kind from a timeline name.
func KindOf(name string) Kind {
	switch {
	case name == NameNotifications:
		return KindNotifications
	case strings.HasPrefix(name, ThreadPrefix):
		return KindThread
	default:
		return KindFeed
	}
}

// ThreadName returns the timeline name of a status's thread view.
func ThreadName(statusID string) string {
	return ThreadPrefix + statusID
}
