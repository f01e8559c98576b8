package store

import (
	"fmt"

	"github.com/feedplex/feedplex/internal/model"
)

// PutNotification upserts a notification (last-write-wins on id).
func (s *Store) PutNotification(accountID string, n *model.Notification) error {
	return putJSON(s.notifications, scopedKey(accountID, n.ID), n)
}

// GetNotification returns a notification by id, or nil when absent.
func (s *Store) GetNotification(accountID, id string) (*model.Notification, error) {
	var n model.Notification
	found, err := getJSON(s.notifications, scopedKey(accountID, id), &n)
	if err != nil || !found {
		return nil, err
	}
	return &n, nil
}

// deleteNotificationsReferencing removes notifications whose subject is one
// of the given status ids and returns the removed notification ids.
func (s *Store) deleteNotificationsReferencing(accountID string, statusIDs map[string]bool) ([]string, error) {
	prefix := scopePrefix(accountID)
	var keys [][]byte
	var ids []string

	err := s.notifications.Range(prefix, prefixUpper(prefix), false, func(key, value []byte) error {
		var n model.Notification
		if err := jsonUnmarshal(value, &n); err != nil {
			return nil
		}
		if statusIDs[n.SubjectID] || (n.Subject != nil && statusIDs[n.Subject.ID]) {
			k := make([]byte, len(key))
			copy(k, key)
			keys = append(keys, k)
			ids = append(ids, n.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}

	for _, key := range keys {
		if err := s.notifications.Delete(key); err != nil {
			return nil, fmt.Errorf("delete notification: %w", err)
		}
	}
	return ids, nil
}
