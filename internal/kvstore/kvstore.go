// Package kvstore defines the key-value storage capability the typed store
// layer sits on, with bolt, sqlite, and in-memory backends.
//
// Collections are flat ordered byte-keyed namespaces. Range iterates keys in
// lexicographic order within [lower, upper); a nil upper means "to the end".
package kvstore

import "errors"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("kvstore: key not found")

// Collections the store layer uses. Backends pre-create all of them on open.
var Collections = []string{
	"accounts",
	"statuses",
	"notifications",
	"timelines",
	"cursors",
	"bookmarks",
	"relationships",
	"feed_index",
}

// Store is the storage capability.
type Store interface {
	Collection(name string) Collection
	Close() error
}

// Collection is one ordered namespace of a Store.
type Collection interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error

	// Range calls fn for each key in [lower, upper) in lexicographic order,
	// descending when reverse is set. A non-nil error from fn stops the scan
	// and is returned.
	Range(lower, upper []byte, reverse bool, fn func(key, value []byte) error) error
}

// PrefixUpper returns the smallest key strictly greater than every key with
// the given prefix, for use as a Range upper bound. Returns nil (open-ended)
// if the prefix is all 0xff bytes.
func PrefixUpper(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
