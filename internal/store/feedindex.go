package store

import "github.com/feedplex/feedplex/internal/model"

// PutFeedEntry writes one entry into a time-ordered feed index (author
// feeds). The composite key makes a plain prefix scan return entries in
// chronological order.
func (s *Store) PutFeedEntry(accountID, feed string, sm model.Summary) error {
	scope := feedScope(accountID, feed)
	return putJSON(s.feedIndex, orderedKey(scope, sm.SortKey, sm.ID), sm)
}

// DeleteFeedEntry removes one entry from a feed index.
func (s *Store) DeleteFeedEntry(accountID, feed string, sm model.Summary) error {
	scope := feedScope(accountID, feed)
	return s.feedIndex.Delete(orderedKey(scope, sm.SortKey, sm.ID))
}

// RangeFeed returns up to limit entries of a feed index, newest first when
// reverse is set. limit <= 0 means no limit.
func (s *Store) RangeFeed(accountID, feed string, limit int, reverse bool) ([]model.Summary, error) {
	scope := feedScope(accountID, feed)
	var out []model.Summary
	stop := errStop
	err := s.feedIndex.Range(scope, prefixUpper(scope), reverse, func(_, value []byte) error {
		var sm model.Summary
		if err := jsonUnmarshal(value, &sm); err != nil {
			return err
		}
		out = append(out, sm)
		if limit > 0 && len(out) >= limit {
			return stop
		}
		return nil
	})
	if err != nil && err != stop {
		return nil, err
	}
	return out, nil
}
