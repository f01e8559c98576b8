package timeline

import (
	"testing"
	"time"

	"github.com/feedplex/feedplex/internal/model"
)

func summaryAt(id string, minute int) model.Summary {
	ts := time.Date(2026, 8, 1, 12, minute, 0, 0, time.UTC)
	return model.Summary{ID: id, SortKey: model.NewSortKey(ts, id), Type: model.SummaryStatus}
}

func ids(list []model.Summary) []string {
	out := make([]string, len(list))
	for i, sm := range list {
		out[i] = sm.ID
	}
	return out
}

func assertOrder(t *testing.T, got []model.Summary, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: got %v, want %v", i, ids(got), want)
		}
	}
}

func TestMergeRefreshDedupesAndSorts(t *testing.T) {
	old := []model.Summary{summaryAt("c", 30), summaryAt("a", 10)}
	incoming := []model.Summary{summaryAt("d", 40), summaryAt("b", 20)}

	merged := Merge(old, incoming, Options{Kind: KindFeed, Mode: ModeRefresh})
	assertOrder(t, merged, "d", "c", "b", "a")
}

func TestMergeRefreshIncomingWinsOnCollision(t *testing.T) {
	old := []model.Summary{summaryAt("a", 10)}
	fresh := summaryAt("a", 25) // same id, newer timestamp from the server

	merged := Merge(old, []model.Summary{fresh}, Options{Kind: KindFeed, Mode: ModeRefresh})
	if len(merged) != 1 {
		t.Fatalf("got %d items, want 1", len(merged))
	}
	if merged[0].SortKey != fresh.SortKey {
		t.Errorf("collision kept old summary: got %q, want %q", merged[0].SortKey, fresh.SortKey)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	old := []model.Summary{summaryAt("b", 20), summaryAt("a", 10)}

	once := Merge(old, old, Options{Kind: KindFeed, Mode: ModeRefresh})
	twice := Merge(once, old, Options{Kind: KindFeed, Mode: ModeRefresh})
	if !Equal(once, twice) {
		t.Errorf("merge not idempotent: %v then %v", ids(once), ids(twice))
	}
	assertOrder(t, twice, "b", "a")
}

func TestMergePagedAppendsWithoutResort(t *testing.T) {
	old := []model.Summary{summaryAt("c", 30), summaryAt("b", 20)}
	page := []model.Summary{summaryAt("b", 20), summaryAt("a", 10)}

	merged := Merge(old, page, Options{Kind: KindFeed, Mode: ModePaged})
	assertOrder(t, merged, "c", "b", "a")
}

func TestMergePagedReplacesInPlace(t *testing.T) {
	old := []model.Summary{summaryAt("c", 30), summaryAt("b", 20)}
	updated := summaryAt("b", 21)

	merged := Merge(old, []model.Summary{updated}, Options{Kind: KindFeed, Mode: ModePaged})
	assertOrder(t, merged, "c", "b")
	if merged[1].SortKey != updated.SortKey {
		t.Errorf("paged collision did not replace in place")
	}
}

func TestMergeThreadAscending(t *testing.T) {
	incoming := []model.Summary{summaryAt("reply", 30), summaryAt("root", 10), summaryAt("focal", 20)}

	merged := Merge(nil, incoming, Options{Kind: KindThread, Mode: ModeRefresh})
	assertOrder(t, merged, "root", "focal", "reply")
}

func TestMergeNotificationsUsesArranger(t *testing.T) {
	a := summaryAt("n1", 10)
	b := summaryAt("n2", 20)
	incoming := []model.Summary{a, b, a} // duplicate delivery

	merged := Merge(nil, incoming, Options{Kind: KindNotifications, Mode: ModeRefresh})
	assertOrder(t, merged, "n2", "n1")
}

func TestMergeNotificationsCustomArranger(t *testing.T) {
	drop := ArrangerFunc(func(batch []model.Summary) []model.Summary {
		var out []model.Summary
		for _, sm := range batch {
			if sm.ID != "noisy" {
				out = append(out, sm)
			}
		}
		return out
	})

	incoming := []model.Summary{summaryAt("noisy", 30), summaryAt("kept", 10)}
	merged := Merge(nil, incoming, Options{Kind: KindNotifications, Mode: ModeRefresh, Arranger: drop})
	assertOrder(t, merged, "kept")
}

func TestEqual(t *testing.T) {
	a := []model.Summary{summaryAt("a", 10)}
	b := []model.Summary{summaryAt("a", 10)}
	if !Equal(a, b) {
		t.Error("identical lists reported unequal")
	}
	if Equal(a, nil) {
		t.Error("lists of different length reported equal")
	}
	if Equal(a, []model.Summary{summaryAt("b", 10)}) {
		t.Error("different ids reported equal")
	}
}

func TestSortStabilityForEqualKeys(t *testing.T) {
	// Two distinct ids sharing a timestamp and non-numeric ids: the id
	// tiebreak inside the sort key must make ordering deterministic.
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	x := model.Summary{ID: "at://did:plc:x/app.bsky.feed.post/aaa", SortKey: model.NewSortKey(ts, "at://did:plc:x/app.bsky.feed.post/aaa"), Type: model.SummaryStatus}
	y := model.Summary{ID: "at://did:plc:x/app.bsky.feed.post/bbb", SortKey: model.NewSortKey(ts, "at://did:plc:x/app.bsky.feed.post/bbb"), Type: model.SummaryStatus}

	first := Merge(nil, []model.Summary{x, y}, Options{Kind: KindFeed, Mode: ModeRefresh})
	second := Merge(nil, []model.Summary{y, x}, Options{Kind: KindFeed, Mode: ModeRefresh})
	if !Equal(first, second) {
		t.Errorf("order not deterministic for equal timestamps: %v vs %v", ids(first), ids(second))
	}
}
