package store

import (
	"fmt"
	"strings"

	"github.com/feedplex/feedplex/internal/model"
)

// GetTimeline returns the cached summary list for (account, timeline), or nil
// when the timeline has never been written.
func (s *Store) GetTimeline(accountID, timeline string) ([]model.Summary, error) {
	var summaries []model.Summary
	found, err := getJSON(s.timelines, scopedKey(accountID, timeline), &summaries)
	if err != nil || !found {
		return nil, err
	}
	return summaries, nil
}

// PutTimeline replaces the cached summary list for (account, timeline).
func (s *Store) PutTimeline(accountID, timeline string, summaries []model.Summary) error {
	if summaries == nil {
		summaries = []model.Summary{}
	}
	return putJSON(s.timelines, scopedKey(accountID, timeline), summaries)
}

// ListTimelines returns the names of every cached timeline of an account.
func (s *Store) ListTimelines(accountID string) ([]string, error) {
	prefix := scopePrefix(accountID)
	var names []string
	err := s.timelines.Range(prefix, prefixUpper(prefix), false, func(key, _ []byte) error {
		names = append(names, strings.TrimPrefix(string(key), string(prefix)))
		return nil
	})
	return names, err
}

// StripFromTimelines removes the given ids from every cached timeline list of
// the account, rewriting only lists that actually changed.
func (s *Store) StripFromTimelines(accountID string, ids map[string]bool) error {
	if len(ids) == 0 {
		return nil
	}
	prefix := scopePrefix(accountID)

	type rewrite struct {
		key  []byte
		list []model.Summary
	}
	var rewrites []rewrite

	err := s.timelines.Range(prefix, prefixUpper(prefix), false, func(key, value []byte) error {
		var list []model.Summary
		if err := jsonUnmarshal(value, &list); err != nil {
			return fmt.Errorf("decode timeline %q: %w", key, err)
		}
		kept := list[:0]
		for _, sm := range list {
			if !ids[sm.ID] {
				kept = append(kept, sm)
			}
		}
		if len(kept) != len(list) {
			k := make([]byte, len(key))
			copy(k, key)
			rewrites = append(rewrites, rewrite{key: k, list: append([]model.Summary{}, kept...)})
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, rw := range rewrites {
		if err := putJSON(s.timelines, rw.key, rw.list); err != nil {
			return err
		}
	}
	return nil
}
