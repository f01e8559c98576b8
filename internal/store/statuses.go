package store

import (
	"fmt"

	"github.com/feedplex/feedplex/internal/model"
)

// PutStatus upserts a status (last-write-wins on id).
func (s *Store) PutStatus(accountID string, status *model.Status) error {
	return putJSON(s.statuses, scopedKey(accountID, status.ID), status)
}

// GetStatus returns a status by canonical id, or nil when absent.
func (s *Store) GetStatus(accountID, id string) (*model.Status, error) {
	var status model.Status
	found, err := getJSON(s.statuses, scopedKey(accountID, id), &status)
	if err != nil || !found {
		return nil, err
	}
	return &status, nil
}

// DeleteStatus removes a single status record and strips its id from all of
// the account's cached timeline lists. Other entities referencing it are left
// alone; this is the non-cascading delete the DID-addressed backend gets.
func (s *Store) DeleteStatus(accountID, id string) error {
	if err := s.statuses.Delete(scopedKey(accountID, id)); err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	return s.StripFromTimelines(accountID, map[string]bool{id: true})
}

// DeleteStatusCascade removes a status together with every cached repost
// wrapper of it and every notification referencing it, stripping all removed
// ids from the account's timeline lists. Returns the removed status ids.
func (s *Store) DeleteStatusCascade(accountID, id string) ([]string, error) {
	removed := map[string]bool{id: true}

	// Find repost wrappers of the target among the account's cached statuses.
	prefix := scopePrefix(accountID)
	var repostKeys [][]byte
	err := s.statuses.Range(prefix, prefixUpper(prefix), false, func(key, value []byte) error {
		var st model.Status
		if err := jsonUnmarshal(value, &st); err != nil {
			return nil // skip undecodable entries, do not abort the cascade
		}
		if st.ReblogOf != nil && st.ReblogOf.ID == id && st.ID != id {
			removed[st.ID] = true
			k := make([]byte, len(key))
			copy(k, key)
			repostKeys = append(repostKeys, k)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan reposts: %w", err)
	}

	if err := s.statuses.Delete(scopedKey(accountID, id)); err != nil {
		return nil, fmt.Errorf("delete status: %w", err)
	}
	for _, key := range repostKeys {
		if err := s.statuses.Delete(key); err != nil {
			return nil, fmt.Errorf("delete repost: %w", err)
		}
	}

	removedNotifs, err := s.deleteNotificationsReferencing(accountID, removed)
	if err != nil {
		return nil, err
	}
	for _, nid := range removedNotifs {
		removed[nid] = true
	}

	if err := s.StripFromTimelines(accountID, removed); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(removed))
	for rid := range removed {
		ids = append(ids, rid)
	}
	return ids, nil
}
