package store

import "github.com/feedplex/feedplex/internal/model"

// PutAccount caches an account profile within the owning account's scope.
func (s *Store) PutAccount(accountID string, a model.Account) error {
	return putJSON(s.accounts, scopedKey(accountID, a.ID), a)
}

// GetAccount returns a cached profile, or nil when absent.
func (s *Store) GetAccount(accountID, id string) (*model.Account, error) {
	var a model.Account
	found, err := getJSON(s.accounts, scopedKey(accountID, id), &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// PutRelationship upserts the viewer's follow state toward an account.
func (s *Store) PutRelationship(accountID string, r model.Relationship) error {
	return putJSON(s.relationships, scopedKey(accountID, r.AccountID), r)
}

// GetRelationship returns the cached follow state, or nil when absent.
func (s *Store) GetRelationship(accountID, otherID string) (*model.Relationship, error) {
	var r model.Relationship
	found, err := getJSON(s.relationships, scopedKey(accountID, otherID), &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}
