package store

import (
	"bytes"
	"testing"
	"time"

	"github.com/feedplex/feedplex/internal/kvstore"
	"github.com/feedplex/feedplex/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(kvstore.NewMemory())
}

func status(id string, minute int) *model.Status {
	return &model.Status{
		ID:        id,
		Protocol:  model.ProtocolMastodon,
		Author:    model.Account{ID: "42", Handle: "alice"},
		Content:   "post " + id,
		CreatedAt: time.Date(2026, 8, 1, 12, minute, 0, 0, time.UTC),
		Confirmed: true,
	}
}

func TestScopedKeyEncoding(t *testing.T) {
	key := scopedKey("acct1", "status9")
	want := append(append([]byte("acct1"), 0x00), []byte("status9")...)
	if !bytes.Equal(key, want) {
		t.Errorf("key = %q, want %q", key, want)
	}

	// A scope prefix for "acct" must not match keys of "acct1".
	prefix := scopePrefix("acct")
	if bytes.HasPrefix(key, prefix) {
		t.Error("scope prefix bleeds into a longer account id")
	}
}

func TestStatusRoundTrip(t *testing.T) {
	st := newStore(t)
	if err := st.PutStatus("acct", status("100", 0)); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetStatus("acct", "100")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Content != "post 100" {
		t.Fatalf("got %+v", got)
	}

	// Absent statuses come back nil without error.
	got, err = st.GetStatus("acct", "missing")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("missing status returned %+v", got)
	}
}

func TestStatusesScopedByAccount(t *testing.T) {
	st := newStore(t)
	if err := st.PutStatus("acct1", status("100", 0)); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetStatus("acct2", "100")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("status leaked across account scopes")
	}
}

func TestTimelineRoundTrip(t *testing.T) {
	st := newStore(t)
	list := []model.Summary{
		model.StatusSummary(status("b", 20)),
		model.StatusSummary(status("a", 10)),
	}
	if err := st.PutTimeline("acct", "home", list); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetTimeline("acct", "home")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("got %+v", got)
	}

	// Unknown timelines read as empty, not as an error.
	got, err = st.GetTimeline("acct", "nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v for unknown timeline", got)
	}
}

func TestDeleteStatusStripsFromTimelines(t *testing.T) {
	st := newStore(t)
	a, b := status("a", 10), status("b", 20)
	for _, s := range []*model.Status{a, b} {
		if err := st.PutStatus("acct", s); err != nil {
			t.Fatal(err)
		}
	}
	list := []model.Summary{model.StatusSummary(b), model.StatusSummary(a)}
	if err := st.PutTimeline("acct", "home", list); err != nil {
		t.Fatal(err)
	}

	if err := st.DeleteStatus("acct", "a"); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetTimeline("acct", "home")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("timeline after delete: %+v", got)
	}
	if s, _ := st.GetStatus("acct", "a"); s != nil {
		t.Error("status record survived delete")
	}
	if s, _ := st.GetStatus("acct", "b"); s == nil {
		t.Error("unrelated status removed")
	}
}

func TestDeleteStatusCascade(t *testing.T) {
	st := newStore(t)
	original := status("orig", 10)
	wrapper := status("wrap", 20)
	wrapper.ReblogOf = original
	unrelated := status("other", 30)
	for _, s := range []*model.Status{original, wrapper, unrelated} {
		if err := st.PutStatus("acct", s); err != nil {
			t.Fatal(err)
		}
	}

	notif := &model.Notification{
		ID:        "n1",
		Protocol:  model.ProtocolMastodon,
		Type:      model.NotifyLike,
		CreatedAt: time.Date(2026, 8, 1, 12, 40, 0, 0, time.UTC),
		Actor:     model.Account{ID: "7", Handle: "bob"},
		SubjectID: "orig",
	}
	if err := st.PutNotification("acct", notif); err != nil {
		t.Fatal(err)
	}

	home := []model.Summary{
		model.StatusSummary(unrelated),
		model.StatusSummary(wrapper),
		model.StatusSummary(original),
	}
	if err := st.PutTimeline("acct", "home", home); err != nil {
		t.Fatal(err)
	}
	notifs := []model.Summary{model.NotificationSummary(notif)}
	if err := st.PutTimeline("acct", "notifications", notifs); err != nil {
		t.Fatal(err)
	}

	removed, err := st.DeleteStatusCascade("acct", "orig")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 3 { // original, wrapper, notification
		t.Errorf("removed = %v, want 3 ids", removed)
	}

	if s, _ := st.GetStatus("acct", "orig"); s != nil {
		t.Error("original survived cascade")
	}
	if s, _ := st.GetStatus("acct", "wrap"); s != nil {
		t.Error("repost wrapper survived cascade")
	}
	if s, _ := st.GetStatus("acct", "other"); s == nil {
		t.Error("unrelated status removed by cascade")
	}
	if n, _ := st.GetNotification("acct", "n1"); n != nil {
		t.Error("referencing notification survived cascade")
	}

	got, err := st.GetTimeline("acct", "home")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "other" {
		t.Errorf("home after cascade: %+v", got)
	}
	got, err = st.GetTimeline("acct", "notifications")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("notifications after cascade: %+v", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	st := newStore(t)
	if err := st.PutCursor("acct", "home", CursorRecord{Token: "page2"}); err != nil {
		t.Fatal(err)
	}
	rec, found, err := st.GetCursor("acct", "home")
	if err != nil {
		t.Fatal(err)
	}
	if !found || rec.Token != "page2" {
		t.Errorf("got %+v found=%v", rec, found)
	}

	if err := st.DeleteCursor("acct", "home"); err != nil {
		t.Fatal(err)
	}
	_, found, err = st.GetCursor("acct", "home")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("cursor survived delete")
	}
}

func TestBookmarks(t *testing.T) {
	st := newStore(t)
	b := model.Bookmark{PostID: "at://p1", BookmarkedAt: time.Now().UTC()}
	if err := st.PutBookmark("acct", b); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetBookmark("acct", "at://p1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("bookmark not found")
	}

	list, err := st.ListBookmarks("acct")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("list = %+v", list)
	}

	if err := st.DeleteBookmark("acct", "at://p1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := st.GetBookmark("acct", "at://p1"); got != nil {
		t.Error("bookmark survived delete")
	}
}

func TestFeedIndexOrdering(t *testing.T) {
	st := newStore(t)
	feed := "author:did:plc:alice"
	for _, s := range []*model.Status{status("a", 10), status("c", 30), status("b", 20)} {
		if err := st.PutFeedEntry("acct", feed, model.StatusSummary(s)); err != nil {
			t.Fatal(err)
		}
	}

	oldest, err := st.RangeFeed("acct", feed, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(oldest) != 3 || oldest[0].ID != "a" || oldest[2].ID != "c" {
		t.Errorf("ascending scan: %+v", oldest)
	}

	newest, err := st.RangeFeed("acct", feed, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(newest) != 2 || newest[0].ID != "c" || newest[1].ID != "b" {
		t.Errorf("reverse limited scan: %+v", newest)
	}
}

func TestRelationships(t *testing.T) {
	st := newStore(t)
	rel := model.Relationship{AccountID: "did:plc:bob", Following: true, FollowRef: "at://f1"}
	if err := st.PutRelationship("acct", rel); err != nil {
		t.Fatal(err)
	}
	got, err := st.GetRelationship("acct", "did:plc:bob")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.Following || got.FollowRef != "at://f1" {
		t.Errorf("got %+v", got)
	}

	got, err = st.GetRelationship("acct", "did:plc:stranger")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("unknown relationship returned %+v", got)
	}
}
