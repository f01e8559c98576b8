package timeline

import (
	"sort"

	"github.com/feedplex/feedplex/internal/model"
)

// BatchArranger orders and collapses a freshly fetched notification batch
// before it is merged. The merge step itself stays policy-free; grouping
// rules are swappable here.
type BatchArranger interface {
	Arrange(batch []model.Summary) []model.Summary
}

// DefaultArranger dedupes within the batch (last occurrence wins, matching
// the freshest fetch) and applies a stable newest-first sort.
var DefaultArranger BatchArranger = defaultArranger{}

type defaultArranger struct{}

func (defaultArranger) Arrange(batch []model.Summary) []model.Summary {
	latest := make(map[string]model.Summary, len(batch))
	order := make([]string, 0, len(batch))
	for _, sm := range batch {
		if _, ok := latest[sm.ID]; !ok {
			order = append(order, sm.ID)
		}
		latest[sm.ID] = sm
	}

	out := make([]model.Summary, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortKey > out[j].SortKey })
	return out
}

// ArrangerFunc adapts a function to the BatchArranger interface.
type ArrangerFunc func(batch []model.Summary) []model.Summary

func (f ArrangerFunc) Arrange(batch []model.Summary) []model.Summary { return f(batch) }
