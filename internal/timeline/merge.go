package timeline

import (
	"sort"

	"github.com/feedplex/feedplex/internal/model"
)

// Mode selects how an incoming batch relates to the cached list.
type Mode int

const (
	// ModeRefresh merges a batch fetched from the head of the timeline:
	// union, dedupe, then a full re-sort by the kind's comparator.
	ModeRefresh Mode = iota
	// ModePaged appends a batch fetched with the stored cursor: pages arrive
	// in correct relative order to the existing tail, so the merge
	// concatenates and dedupes without re-sorting.
	ModePaged
)

// Options configure one merge.
type Options struct {
	Kind Kind
	Mode Mode
	// Arranger pre-processes notification batches; nil uses DefaultArranger.
	// Ignored for other kinds.
	Arranger BatchArranger
}

// Merge combines the cached list with an incoming batch and returns the new
// authoritative list. Invariants: no duplicate ids; when both sides carry an
// id the incoming summary wins; ordering follows the kind's comparator.
func Merge(old, incoming []model.Summary, opts Options) []model.Summary {
	if opts.Kind == KindNotifications {
		arranger := opts.Arranger
		if arranger == nil {
			arranger = DefaultArranger
		}
		incoming = arranger.Arrange(incoming)
	}

	switch opts.Mode {
	case ModePaged:
		return mergePaged(old, incoming)
	default:
		return mergeRefresh(old, incoming, less(opts.Kind))
	}
}

// mergeRefresh unions both lists (incoming wins on id collision) and
// re-sorts, because a head fetch can interleave arbitrarily with cache.
func mergeRefresh(old, incoming []model.Summary, cmp func(a, b model.Summary) bool) []model.Summary {
	fresh := make(map[string]model.Summary, len(incoming))
	for _, sm := range incoming {
		fresh[sm.ID] = sm
	}

	out := make([]model.Summary, 0, len(old)+len(incoming))
	seen := make(map[string]bool, len(old)+len(incoming))
	for _, sm := range old {
		if f, ok := fresh[sm.ID]; ok {
			sm = f
		}
		if !seen[sm.ID] {
			seen[sm.ID] = true
			out = append(out, sm)
		}
	}
	for _, sm := range incoming {
		if !seen[sm.ID] {
			seen[sm.ID] = true
			out = append(out, sm)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) })
	return out
}

// mergePaged keeps the existing order and appends unseen items; on collision
// the incoming summary replaces the old one in place.
func mergePaged(old, incoming []model.Summary) []model.Summary {
	index := make(map[string]int, len(old))
	out := make([]model.Summary, len(old))
	copy(out, old)
	for i, sm := range out {
		index[sm.ID] = i
	}
	for _, sm := range incoming {
		if i, ok := index[sm.ID]; ok {
			out[i] = sm
			continue
		}
		index[sm.ID] = len(out)
		out = append(out, sm)
	}
	return out
}

func less(kind Kind) func(a, b model.Summary) bool {
	if kind == KindThread {
		// Chronological: ancestors precede the focal post precede replies.
		return func(a, b model.Summary) bool { return a.SortKey < b.SortKey }
	}
	return func(a, b model.Summary) bool { return a.SortKey > b.SortKey }
}

// Equal reports whether two summary lists are structurally identical. Callers
// use it to skip writes (and downstream reactivity) for no-op merges.
func Equal(a, b []model.Summary) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
