// Package store is the typed access layer over the key-value capability:
// canonical entities in, collection bytes out. All entity collections are
// keyed by natural id within an account scope; ordered collections use the
// composite key scheme in keys.go.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/feedplex/feedplex/internal/kvstore"
)

// Store wraps a kvstore with typed entity collections.
type Store struct {
	accounts      kvstore.Collection
	statuses      kvstore.Collection
	notifications kvstore.Collection
	timelines     kvstore.Collection
	cursors       kvstore.Collection
	bookmarks     kvstore.Collection
	relationships kvstore.Collection
	feedIndex     kvstore.Collection
}

// New creates a typed store over the given backend.
func New(kv kvstore.Store) *Store {
	return &Store{
		accounts:      kv.Collection("accounts"),
		statuses:      kv.Collection("statuses"),
		notifications: kv.Collection("notifications"),
		timelines:     kv.Collection("timelines"),
		cursors:       kv.Collection("cursors"),
		bookmarks:     kv.Collection("bookmarks"),
		relationships: kv.Collection("relationships"),
		feedIndex:     kv.Collection("feed_index"),
	}
}

func putJSON(c kvstore.Collection, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %T: %w", v, err)
	}
	return c.Put(key, data)
}

// errStop terminates a range scan early without surfacing an error.
var errStop = errors.New("stop iteration")

func jsonUnmarshal(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

func prefixUpper(prefix []byte) []byte {
	return kvstore.PrefixUpper(prefix)
}

// getJSON decodes into out; reports found=false for a missing key.
func getJSON(c kvstore.Collection, key []byte, out any) (bool, error) {
	data, err := c.Get(key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %T: %w", out, err)
	}
	return true, nil
}
