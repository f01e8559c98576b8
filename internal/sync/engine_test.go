package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/errs"
	"github.com/feedplex/feedplex/internal/masto"
	"github.com/feedplex/feedplex/internal/model"
	"github.com/feedplex/feedplex/internal/timeline"
)

func rawStatus(id, createdAt string) masto.Status {
	return masto.Status{
		ID:        id,
		CreatedAt: createdAt,
		Account:   &masto.Account{ID: "7", Acct: "bob"},
		Content:   "post " + id,
	}
}

func itemIDs(items []model.Summary) []string {
	out := make([]string, len(items))
	for i, sm := range items {
		out[i] = sm.ID
	}
	return out
}

func TestFetchAndMergeTimeline(t *testing.T) {
	client := &fakeMasto{
		fetchTimeline: func(name, token string, _ int) (*masto.TimelinePage, error) {
			if name != timeline.NameHome || token != "" {
				t.Errorf("unexpected fetch %q token %q", name, token)
			}
			return &masto.TimelinePage{
				Statuses:  []masto.Status{rawStatus("b", "2026-08-01T12:20:00Z"), rawStatus("a", "2026-08-01T12:10:00Z")},
				NextToken: "a",
			}, nil
		},
	}
	f := newFixture(t, client, nil)

	result, err := f.engine.FetchAndMergeTimeline(context.Background(), mastoAcct, timeline.NameHome)
	if err != nil {
		t.Fatal(err)
	}
	if result.Stale {
		t.Error("fresh fetch marked stale")
	}
	if got := itemIDs(result.Items); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("items = %v", got)
	}

	// Entities were persisted alongside the list.
	if s, _ := f.store.GetStatus(mastoAcct, "a"); s == nil || s.Content != "post a" {
		t.Errorf("entity not persisted: %+v", s)
	}
	if f.tracker.Current(mastoAcct, timeline.NameHome) != timeline.Ready {
		t.Errorf("state = %s, want READY", f.tracker.Current(mastoAcct, timeline.NameHome))
	}
}

func TestFetchFailureServesCache(t *testing.T) {
	calls := 0
	client := &fakeMasto{
		fetchTimeline: func(string, string, int) (*masto.TimelinePage, error) {
			calls++
			if calls == 1 {
				return &masto.TimelinePage{Statuses: []masto.Status{rawStatus("a", "2026-08-01T12:10:00Z")}}, nil
			}
			return nil, errors.New("connection refused")
		},
	}
	f := newFixture(t, client, nil)

	if _, err := f.engine.FetchAndMergeTimeline(context.Background(), mastoAcct, timeline.NameHome); err != nil {
		t.Fatal(err)
	}

	result, err := f.engine.FetchAndMergeTimeline(context.Background(), mastoAcct, timeline.NameHome)
	if err != nil {
		t.Fatalf("network failure must not error on reads: %v", err)
	}
	if !result.Stale {
		t.Error("cached fallback not marked stale")
	}
	if got := itemIDs(result.Items); len(got) != 1 || got[0] != "a" {
		t.Errorf("items = %v, want cached list", got)
	}
	if !f.tracker.IsStale(mastoAcct, timeline.NameHome) {
		t.Error("tracker not STALE after failed fetch")
	}
}

func TestFetchAuthFailureSurfaces(t *testing.T) {
	client := &fakeMasto{
		fetchTimeline: func(string, string, int) (*masto.TimelinePage, error) {
			return nil, &masto.APIError{Code: 401, Message: "The access token is invalid"}
		},
	}
	f := newFixture(t, client, nil)

	_, err := f.engine.FetchAndMergeTimeline(context.Background(), mastoAcct, timeline.NameHome)
	if !errs.IsKind(err, errs.KindAuthExpired) {
		t.Errorf("got %v, want auth_expired", err)
	}
}

func TestLoadMoreOlderItemsPaging(t *testing.T) {
	pages := map[string]*atp.FeedPage{
		"": {
			Items: []atp.FeedItem{
				{Post: *bskyPost("a", "2026-08-01T12:30:00Z")},
				{Post: *bskyPost("b", "2026-08-01T12:20:00Z")},
			},
			Cursor: "cur1",
		},
		"cur1": {
			Items:  []atp.FeedItem{{Post: *bskyPost("c", "2026-08-01T12:10:00Z")}},
			Cursor: "",
		},
	}
	fetches := 0
	agent := &fakeAgent{
		getTimeline: func(_ int, cursor string) (*atp.FeedPage, error) {
			fetches++
			page, ok := pages[cursor]
			if !ok {
				t.Fatalf("unexpected cursor %q", cursor)
			}
			return page, nil
		},
	}
	f := newFixture(t, nil, agent)
	ctx := context.Background()

	if _, err := f.engine.FetchAndMergeTimeline(ctx, bskyAcct, timeline.NameHome); err != nil {
		t.Fatal(err)
	}
	state, err := f.engine.GetCursorState(bskyAcct, timeline.NameHome)
	if err != nil {
		t.Fatal(err)
	}
	if !state.HasMore {
		t.Fatal("HasMore=false after first page with cursor")
	}

	if err := f.engine.LoadMoreOlderItems(ctx, bskyAcct, timeline.NameHome); err != nil {
		t.Fatal(err)
	}
	items, err := f.store.GetTimeline(bskyAcct, timeline.NameHome)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{postURI("a"), postURI("b"), postURI("c")}
	got := itemIDs(items)
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("after paging: %v, want %v", got, want)
	}

	state, err = f.engine.GetCursorState(bskyAcct, timeline.NameHome)
	if err != nil {
		t.Fatal(err)
	}
	if state.HasMore {
		t.Error("HasMore=true after empty cursor")
	}

	// End of feed: a further load must be a silent no-op without a fetch.
	before := fetches
	if err := f.engine.LoadMoreOlderItems(ctx, bskyAcct, timeline.NameHome); err != nil {
		t.Fatal(err)
	}
	if fetches != before {
		t.Error("load past end of feed hit the network")
	}
}

func TestThreadFetchOrdersChronologically(t *testing.T) {
	client := &fakeMasto{
		fetchStatus: func(id string) (*masto.Status, error) {
			s := rawStatus(id, "2026-08-01T12:20:00Z")
			return &s, nil
		},
		fetchStatusContext: func(string) (*masto.Context, error) {
			return &masto.Context{
				Ancestors:   []masto.Status{rawStatus("root", "2026-08-01T12:00:00Z")},
				Descendants: []masto.Status{rawStatus("reply", "2026-08-01T12:40:00Z")},
			}, nil
		},
	}
	f := newFixture(t, client, nil)

	name := timeline.ThreadName("focal")
	result, err := f.engine.FetchAndMergeTimeline(context.Background(), mastoAcct, name)
	if err != nil {
		t.Fatal(err)
	}
	if got := itemIDs(result.Items); len(got) != 3 || got[0] != "root" || got[1] != "focal" || got[2] != "reply" {
		t.Errorf("thread order = %v", got)
	}
}

func TestNotificationsTimeline(t *testing.T) {
	client := &fakeMasto{
		fetchNotifications: func(token string, _ int) (*masto.NotificationPage, error) {
			return &masto.NotificationPage{
				Notifications: []masto.Notification{
					{
						ID:        "n1",
						Type:      "favourite",
						CreatedAt: "2026-08-01T12:00:00Z",
						Account:   &masto.Account{ID: "7", Acct: "bob"},
						Status:    ptrStatus(rawStatus("liked", "2026-08-01T11:00:00Z")),
					},
					{
						ID:        "n2",
						Type:      "gibberish",
						CreatedAt: "2026-08-01T12:05:00Z",
						Account:   &masto.Account{ID: "7", Acct: "bob"},
					},
				},
			}, nil
		},
	}
	f := newFixture(t, client, nil)

	result, err := f.engine.FetchAndMergeTimeline(context.Background(), mastoAcct, timeline.NameNotifications)
	if err != nil {
		t.Fatal(err)
	}
	// The unknown type was dropped during normalization.
	if got := itemIDs(result.Items); len(got) != 1 || got[0] != "n1" {
		t.Errorf("items = %v", got)
	}
	if result.Items[0].Type != model.SummaryNotification {
		t.Errorf("summary type = %s", result.Items[0].Type)
	}
	// The notification's subject status was persisted too.
	if s, _ := f.store.GetStatus(mastoAcct, "liked"); s == nil {
		t.Error("subject status not persisted")
	}
}

func TestRefreshKeepsLocalBookmarkFlag(t *testing.T) {
	page := &atp.FeedPage{Items: []atp.FeedItem{{Post: *bskyPost("a", "2026-08-01T12:10:00Z")}}}
	agent := &fakeAgent{
		getTimeline: func(int, string) (*atp.FeedPage, error) { return page, nil },
	}
	f := newFixture(t, nil, agent)
	ctx := context.Background()

	if _, err := f.engine.FetchAndMergeTimeline(ctx, bskyAcct, timeline.NameHome); err != nil {
		t.Fatal(err)
	}
	ref := model.BlueskyRef(postURI("a"), "cid-a")
	if err := f.reconciler.SetBookmarked(ctx, bskyAcct, ref, true); err != nil {
		t.Fatal(err)
	}

	// A refresh re-normalizes the post, and the wire payload carries no
	// bookmark state. The client-managed flag must survive the upsert.
	if _, err := f.engine.FetchAndMergeTimeline(ctx, bskyAcct, timeline.NameHome); err != nil {
		t.Fatal(err)
	}
	s, err := f.store.GetStatus(bskyAcct, postURI("a"))
	if err != nil {
		t.Fatal(err)
	}
	if !s.Viewer.Bookmarked {
		t.Error("refresh clobbered the bookmark flag")
	}
	if b, _ := f.store.GetBookmark(bskyAcct, postURI("a")); b == nil {
		t.Error("bookmark record missing after refresh")
	}
}

func ptrStatus(s masto.Status) *masto.Status { return &s }

func postURI(rkey string) string {
	return "at://did:plc:author/app.bsky.feed.post/" + rkey
}

func bskyPost(rkey, createdAt string) *atp.PostView {
	return &atp.PostView{
		URI:    postURI(rkey),
		CID:    "cid-" + rkey,
		Author: &atp.Actor{DID: "did:plc:author", Handle: "author.bsky.social"},
		Record: atp.Record{Text: "post " + rkey, CreatedAt: createdAt},
	}
}
