package store

// CursorRecord is the persisted page token for one (account, timeline) pair.
// End distinguishes "no further pages" from "never fetched": an absent record
// means never fetched, a record with End=true means the feed is exhausted.
type CursorRecord struct {
	Token string `json:"token"`
	End   bool   `json:"end"`
}

// PutCursor persists the page token for (account, timeline).
func (s *Store) PutCursor(accountID, timeline string, rec CursorRecord) error {
	return putJSON(s.cursors, scopedKey(accountID, timeline), rec)
}

// GetCursor loads the persisted page token; found=false means never fetched.
func (s *Store) GetCursor(accountID, timeline string) (CursorRecord, bool, error) {
	var rec CursorRecord
	found, err := getJSON(s.cursors, scopedKey(accountID, timeline), &rec)
	return rec, found, err
}

// DeleteCursor forgets the persisted token, returning the pair to the
// never-fetched state.
func (s *Store) DeleteCursor(accountID, timeline string) error {
	return s.cursors.Delete(scopedKey(accountID, timeline))
}
