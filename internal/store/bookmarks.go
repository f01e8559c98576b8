package store

import "github.com/feedplex/feedplex/internal/model"

// PutBookmark stores a client-managed bookmark. These exist only for the
// DID-addressed backend, which has no native bookmark primitive; they are
// never reconciled against server state.
func (s *Store) PutBookmark(accountID string, b model.Bookmark) error {
	return putJSON(s.bookmarks, scopedKey(accountID, b.PostID), b)
}

// GetBookmark returns a bookmark by post id, or nil when absent.
func (s *Store) GetBookmark(accountID, postID string) (*model.Bookmark, error) {
	var b model.Bookmark
	found, err := getJSON(s.bookmarks, scopedKey(accountID, postID), &b)
	if err != nil || !found {
		return nil, err
	}
	return &b, nil
}

// DeleteBookmark removes a bookmark. Deleting an absent bookmark is a no-op.
func (s *Store) DeleteBookmark(accountID, postID string) error {
	return s.bookmarks.Delete(scopedKey(accountID, postID))
}

// ListBookmarks returns all bookmarks of an account.
func (s *Store) ListBookmarks(accountID string) ([]model.Bookmark, error) {
	prefix := scopePrefix(accountID)
	var out []model.Bookmark
	err := s.bookmarks.Range(prefix, prefixUpper(prefix), false, func(_, value []byte) error {
		var b model.Bookmark
		if err := jsonUnmarshal(value, &b); err != nil {
			return err
		}
		out = append(out, b)
		return nil
	})
	return out, err
}
