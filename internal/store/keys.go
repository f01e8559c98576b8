package store

import "github.com/feedplex/feedplex/internal/model"

// sep joins key components. NUL never appears in account ids, DIDs, at://
// URIs, or timeline names, so prefix scans on "scope+sep" cannot bleed into a
// neighboring scope.
const sep = byte(0x00)

// scopedKey builds a point-lookup key: accountID ++ sep ++ id.
func scopedKey(accountID, id string) []byte {
	key := make([]byte, 0, len(accountID)+1+len(id))
	key = append(key, accountID...)
	key = append(key, sep)
	key = append(key, id...)
	return key
}

// scopePrefix is the range-scan prefix covering every key of one account.
func scopePrefix(accountID string) []byte {
	key := make([]byte, 0, len(accountID)+1)
	key = append(key, accountID...)
	key = append(key, sep)
	return key
}

// orderedKey builds a time-ordered key for ordered collections:
// scope ++ sep ++ sortKey ++ sep ++ id. Lexicographic key order equals
// chronological order because SortKey is itself lexicographic.
func orderedKey(scope []byte, sortKey model.SortKey, id string) []byte {
	key := make([]byte, 0, len(scope)+1+len(sortKey)+1+len(id))
	key = append(key, scope...)
	key = append(key, sortKey...)
	key = append(key, sep)
	key = append(key, id...)
	return key
}

// feedScope builds the scope prefix for one named feed of one account.
func feedScope(accountID, feed string) []byte {
	key := make([]byte, 0, len(accountID)+1+len(feed)+1)
	key = append(key, accountID...)
	key = append(key, sep)
	key = append(key, feed...)
	key = append(key, sep)
	return key
}
