package normalize

import (
	"testing"

	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/model"
)

func rawPostView(uri string) *atp.PostView {
	return &atp.PostView{
		URI:    uri,
		CID:    "bafy" + uri[len(uri)-3:],
		Author: &atp.Actor{DID: "did:plc:alice", Handle: "alice.bsky.social"},
		Record: atp.Record{
			Text:      "hello",
			CreatedAt: "2026-08-01T12:00:00.000Z",
		},
	}
}

func TestPostViewBasic(t *testing.T) {
	n := New(nil)
	raw := rawPostView("at://did:plc:alice/app.bsky.feed.post/abc")
	raw.LikeCount = 7

	s := n.PostView(raw)
	if s == nil {
		t.Fatal("got nil for valid post")
	}
	if s.ID != raw.URI || s.Protocol != model.ProtocolBluesky {
		t.Errorf("identity: %q/%q", s.ID, s.Protocol)
	}
	if s.CID == "" {
		t.Error("cid must be preserved for later mutations")
	}
	if s.Counts.Likes != 7 {
		t.Errorf("likes = %d, want 7", s.Counts.Likes)
	}
}

func TestPostViewInvalidInput(t *testing.T) {
	n := New(nil)
	cases := []*atp.PostView{
		nil,
		{Author: &atp.Actor{DID: "did:plc:x"}}, // no uri
		{URI: "at://x"},                        // no author
		{URI: "at://x", Author: &atp.Actor{Handle: "x"}},
	}
	for i, raw := range cases {
		if s := n.PostView(raw); s != nil {
			t.Errorf("case %d: got %+v, want nil", i, s)
		}
	}
}

func TestPostViewViewerRefs(t *testing.T) {
	n := New(nil)
	like := "at://did:plc:viewer/app.bsky.feed.like/l1"
	repost := "at://did:plc:viewer/app.bsky.feed.repost/r1"
	raw := rawPostView("at://did:plc:alice/app.bsky.feed.post/abc")
	raw.Viewer = &atp.ViewerState{Like: &like, Repost: &repost}

	s := n.PostView(raw)
	if !s.Viewer.Liked || s.Viewer.LikeRef != like {
		t.Errorf("like ref not mapped: %+v", s.Viewer)
	}
	if !s.Viewer.Reposted || s.Viewer.RepostRef != repost {
		t.Errorf("repost ref not mapped: %+v", s.Viewer)
	}
}

func TestRepostIDUniquePerReposter(t *testing.T) {
	original := "at://did:plc:alice/app.bsky.feed.post/abc"
	a := RepostID("did:plc:bob", original)
	b := RepostID("did:plc:carol", original)
	if a == b {
		t.Error("reposts of the same post by different actors must get distinct ids")
	}
	if a == original || b == original {
		t.Error("repost id must differ from the original post id")
	}
}

func TestFeedItemRepostWrapper(t *testing.T) {
	n := New(nil)
	item := &atp.FeedItem{
		Post: *rawPostView("at://did:plc:alice/app.bsky.feed.post/abc"),
		Reason: &atp.ReasonRepost{
			By:        atp.Actor{DID: "did:plc:bob", Handle: "bob.bsky.social"},
			IndexedAt: "2026-08-02T08:00:00Z",
		},
	}

	s := n.FeedItem(item)
	if s == nil {
		t.Fatal("got nil")
	}
	if s.ID != RepostID("did:plc:bob", item.Post.URI) {
		t.Errorf("wrapper id = %q", s.ID)
	}
	if s.Author.ID != "did:plc:bob" {
		t.Errorf("wrapper author = %q, want reposter", s.Author.ID)
	}
	if s.ReblogOf == nil || s.ReblogOf.ID != item.Post.URI {
		t.Fatalf("original not nested: %+v", s.ReblogOf)
	}
	// The wrapper orders by the repost event, not the original post time.
	if !s.CreatedAt.After(s.ReblogOf.CreatedAt) {
		t.Errorf("wrapper time %v not after original %v", s.CreatedAt, s.ReblogOf.CreatedAt)
	}
}

func TestFeedItemReplyContextOverridesRecordRefs(t *testing.T) {
	n := New(nil)
	post := rawPostView("at://did:plc:alice/app.bsky.feed.post/reply")
	post.Record.Reply = &atp.ReplyRef{
		Parent: atp.RecordRef{URI: "at://stale/parent"},
		Root:   atp.RecordRef{URI: "at://stale/root"},
	}
	item := &atp.FeedItem{
		Post: *post,
		Reply: &atp.FeedReply{
			Parent: rawPostView("at://did:plc:carol/app.bsky.feed.post/parent"),
			Root:   rawPostView("at://did:plc:carol/app.bsky.feed.post/root"),
		},
	}

	s := n.FeedItem(item)
	if s.ReplyParentID != "at://did:plc:carol/app.bsky.feed.post/parent" {
		t.Errorf("parent = %q, want hydrated context", s.ReplyParentID)
	}
	if s.ReplyRootID != "at://did:plc:carol/app.bsky.feed.post/root" {
		t.Errorf("root = %q, want hydrated context", s.ReplyRootID)
	}
}

func TestApplyLabels(t *testing.T) {
	n := New(nil) // built-in vocabulary
	raw := rawPostView("at://did:plc:alice/app.bsky.feed.post/abc")
	raw.Labels = []atp.Label{{Val: "porn"}, {Val: "unmapped-label"}}

	s := n.PostView(raw)
	if !s.Sensitive {
		t.Error("porn label must mark the post sensitive")
	}
}

func TestApplyLabelsHideSetsPlaceholderSpoiler(t *testing.T) {
	n := New(nil)
	raw := rawPostView("at://did:plc:alice/app.bsky.feed.post/abc")
	raw.Labels = []atp.Label{{Val: "!hide"}}

	s := n.PostView(raw)
	if !s.Sensitive || s.SpoilerText == "" {
		t.Errorf("!hide must hide behind a placeholder: sensitive=%v spoiler=%q", s.Sensitive, s.SpoilerText)
	}
}

func TestApplyLabelsCustomTable(t *testing.T) {
	table := DefaultLabelTable.Merge(LabelTable{
		"house-rule": {Sensitive: true, Spoiler: "house rule"},
	})
	n := New(table)
	raw := rawPostView("at://did:plc:alice/app.bsky.feed.post/abc")
	raw.Labels = []atp.Label{{Val: "house-rule"}}

	s := n.PostView(raw)
	if !s.Sensitive || s.SpoilerText != "house rule" {
		t.Errorf("custom label not applied: sensitive=%v spoiler=%q", s.Sensitive, s.SpoilerText)
	}
}

func TestFacetEntitiesByteOffsets(t *testing.T) {
	// "héllo @alice #go" in UTF-8: 'é' is two bytes, so the mention starts at
	// byte 7, not rune 6.
	text := "héllo @alice #go"
	facets := []atp.Facet{
		{
			Index:    atp.ByteSlice{ByteStart: 7, ByteEnd: 13},
			Features: []atp.FacetFeature{{Type: "app.bsky.richtext.facet#mention", DID: "did:plc:alice"}},
		},
		{
			Index:    atp.ByteSlice{ByteStart: 14, ByteEnd: 17},
			Features: []atp.FacetFeature{{Type: "app.bsky.richtext.facet#tag"}},
		},
	}

	mentions, tags := facetEntities(text, facets)
	if len(mentions) != 1 || mentions[0].AccountID != "did:plc:alice" || mentions[0].Handle != "alice" {
		t.Errorf("mentions = %+v", mentions)
	}
	if len(tags) != 1 || tags[0] != "go" {
		t.Errorf("tags = %+v", tags)
	}
}

func TestFacetEntitiesOutOfBoundsSkipped(t *testing.T) {
	text := "short"
	facets := []atp.Facet{
		{
			Index:    atp.ByteSlice{ByteStart: 2, ByteEnd: 50},
			Features: []atp.FacetFeature{{Type: "app.bsky.richtext.facet#tag", Tag: "x"}},
		},
		{
			Index:    atp.ByteSlice{ByteStart: -1, ByteEnd: 3},
			Features: []atp.FacetFeature{{Type: "app.bsky.richtext.facet#tag", Tag: "y"}},
		},
		{
			Index:    atp.ByteSlice{ByteStart: 3, ByteEnd: 3},
			Features: []atp.FacetFeature{{Type: "app.bsky.richtext.facet#tag", Tag: "z"}},
		},
	}

	mentions, tags := facetEntities(text, facets)
	if len(mentions) != 0 || len(tags) != 0 {
		t.Errorf("malformed facets must be skipped: %+v %+v", mentions, tags)
	}
}

func TestBlueskyNotificationSubjects(t *testing.T) {
	n := New(nil)

	like := &atp.Notification{
		URI:           "at://did:plc:bob/app.bsky.feed.like/l1",
		Author:        &atp.Actor{DID: "did:plc:bob", Handle: "bob"},
		Reason:        "like",
		ReasonSubject: "at://did:plc:viewer/app.bsky.feed.post/mine",
		IndexedAt:     "2026-08-01T12:00:00Z",
	}
	got := n.BlueskyNotification(like)
	if got == nil || got.Type != model.NotifyLike {
		t.Fatalf("like: %+v", got)
	}
	if got.SubjectID != like.ReasonSubject {
		t.Errorf("like subject = %q, want the liked post", got.SubjectID)
	}
	if got.Subject != nil {
		t.Error("like subject must stay reference-only until hydrated")
	}

	reply := &atp.Notification{
		URI:       "at://did:plc:bob/app.bsky.feed.post/r1",
		Author:    &atp.Actor{DID: "did:plc:bob", Handle: "bob"},
		Reason:    "reply",
		IndexedAt: "2026-08-01T12:00:00Z",
	}
	got = n.BlueskyNotification(reply)
	if got == nil || got.SubjectID != reply.URI {
		t.Fatalf("reply subject must be the reply's own record: %+v", got)
	}
}

func TestBlueskyNotificationUnknownReasonDropped(t *testing.T) {
	n := New(nil)
	raw := &atp.Notification{
		URI:    "at://did:plc:bob/x/1",
		Author: &atp.Actor{DID: "did:plc:bob"},
		Reason: "starterpack-joined",
	}
	if got := n.BlueskyNotification(raw); got != nil {
		t.Errorf("unknown reason must yield nil, got %+v", got)
	}
}
