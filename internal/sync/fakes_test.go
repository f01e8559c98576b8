package sync

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/bus"
	"github.com/feedplex/feedplex/internal/cursor"
	"github.com/feedplex/feedplex/internal/kvstore"
	"github.com/feedplex/feedplex/internal/masto"
	"github.com/feedplex/feedplex/internal/normalize"
	"github.com/feedplex/feedplex/internal/session"
	"github.com/feedplex/feedplex/internal/store"
	"github.com/feedplex/feedplex/internal/timeline"
)

// fakeMasto stubs the REST client. Unset methods panic via the embedded nil
// interface, which doubles as a "must not be called" assertion.
type fakeMasto struct {
	masto.Client

	fetchTimeline      func(timeline, pageToken string, limit int) (*masto.TimelinePage, error)
	fetchStatus        func(id string) (*masto.Status, error)
	fetchStatusContext func(id string) (*masto.Context, error)
	fetchNotifications func(pageToken string, limit int) (*masto.NotificationPage, error)
	favourite          func(id string) (*masto.Status, error)
	unfavourite        func(id string) (*masto.Status, error)
	reblog             func(id string) (*masto.Status, error)
	unreblog           func(id string) (*masto.Status, error)
	bookmark           func(id string) (*masto.Status, error)
	unbookmark         func(id string) (*masto.Status, error)
	postStatus         func(form masto.StatusForm) (*masto.Status, error)
	editStatus         func(id string, form masto.StatusForm) (*masto.Status, error)
	deleteStatus       func(id string) error
	follow             func(id string) (*masto.Relationship, error)
	unfollow           func(id string) (*masto.Relationship, error)
}

func (f *fakeMasto) FetchTimeline(_ context.Context, timeline, pageToken string, limit int) (*masto.TimelinePage, error) {
	return f.fetchTimeline(timeline, pageToken, limit)
}

func (f *fakeMasto) FetchStatus(_ context.Context, id string) (*masto.Status, error) {
	return f.fetchStatus(id)
}

func (f *fakeMasto) FetchStatusContext(_ context.Context, id string) (*masto.Context, error) {
	return f.fetchStatusContext(id)
}

func (f *fakeMasto) FetchNotifications(_ context.Context, pageToken string, limit int) (*masto.NotificationPage, error) {
	return f.fetchNotifications(pageToken, limit)
}

func (f *fakeMasto) Favourite(_ context.Context, id string) (*masto.Status, error) {
	return f.favourite(id)
}

func (f *fakeMasto) Unfavourite(_ context.Context, id string) (*masto.Status, error) {
	return f.unfavourite(id)
}

func (f *fakeMasto) Reblog(_ context.Context, id string) (*masto.Status, error) {
	return f.reblog(id)
}

func (f *fakeMasto) Unreblog(_ context.Context, id string) (*masto.Status, error) {
	return f.unreblog(id)
}

func (f *fakeMasto) Bookmark(_ context.Context, id string) (*masto.Status, error) {
	return f.bookmark(id)
}

func (f *fakeMasto) Unbookmark(_ context.Context, id string) (*masto.Status, error) {
	return f.unbookmark(id)
}

func (f *fakeMasto) PostStatus(_ context.Context, form masto.StatusForm) (*masto.Status, error) {
	return f.postStatus(form)
}

func (f *fakeMasto) EditStatus(_ context.Context, id string, form masto.StatusForm) (*masto.Status, error) {
	return f.editStatus(id, form)
}

func (f *fakeMasto) DeleteStatus(_ context.Context, id string) error {
	return f.deleteStatus(id)
}

func (f *fakeMasto) Follow(_ context.Context, id string) (*masto.Relationship, error) {
	return f.follow(id)
}

func (f *fakeMasto) Unfollow(_ context.Context, id string) (*masto.Relationship, error) {
	return f.unfollow(id)
}

// fakeAgent stubs the XRPC agent the same way.
type fakeAgent struct {
	atp.Agent

	getTimeline   func(limit int, cursor string) (*atp.FeedPage, error)
	getAuthorFeed func(actor string, limit int, cursor string) (*atp.FeedPage, error)
	getPostThread func(uri string, depth int) (*atp.ThreadView, error)
	post          func(record atp.Record) (*atp.RecordRef, error)
	deletePost    func(uri string) error
	like          func(subject atp.RecordRef) (*atp.RecordRef, error)
	deleteLike    func(uri string) error
	repost        func(subject atp.RecordRef) (*atp.RecordRef, error)
	deleteRepost  func(uri string) error
	follow        func(did string) (*atp.RecordRef, error)
	deleteFollow  func(uri string) error
	listNotifs    func(limit int, cursor string) (*atp.NotificationPage, error)
}

func (f *fakeAgent) GetTimeline(_ context.Context, limit int, cursor string) (*atp.FeedPage, error) {
	return f.getTimeline(limit, cursor)
}

func (f *fakeAgent) GetAuthorFeed(_ context.Context, actor string, limit int, cursor string) (*atp.FeedPage, error) {
	return f.getAuthorFeed(actor, limit, cursor)
}

func (f *fakeAgent) GetPostThread(_ context.Context, uri string, depth int) (*atp.ThreadView, error) {
	return f.getPostThread(uri, depth)
}

func (f *fakeAgent) Post(_ context.Context, record atp.Record) (*atp.RecordRef, error) {
	return f.post(record)
}

func (f *fakeAgent) DeletePost(_ context.Context, uri string) error {
	return f.deletePost(uri)
}

func (f *fakeAgent) Like(_ context.Context, subject atp.RecordRef) (*atp.RecordRef, error) {
	return f.like(subject)
}

func (f *fakeAgent) DeleteLike(_ context.Context, uri string) error {
	return f.deleteLike(uri)
}

func (f *fakeAgent) Repost(_ context.Context, subject atp.RecordRef) (*atp.RecordRef, error) {
	return f.repost(subject)
}

func (f *fakeAgent) DeleteRepost(_ context.Context, uri string) error {
	return f.deleteRepost(uri)
}

func (f *fakeAgent) Follow(_ context.Context, did string) (*atp.RecordRef, error) {
	return f.follow(did)
}

func (f *fakeAgent) DeleteFollow(_ context.Context, uri string) error {
	return f.deleteFollow(uri)
}

func (f *fakeAgent) ListNotifications(_ context.Context, limit int, cursor string) (*atp.NotificationPage, error) {
	return f.listNotifs(limit, cursor)
}

// fixture bundles the wired-up core around in-memory storage.
type fixture struct {
	engine     *Engine
	reconciler *Reconciler
	store      *store.Store
	cursors    *cursor.Manager
	tracker    *timeline.Tracker
	bus        *bus.Bus
	registry   *session.Registry
}

const (
	mastoAcct = "acct-masto"
	bskyAcct  = "acct-bsky"
	bskyDID   = "did:plc:viewer"
)

func newFixture(t *testing.T, client masto.Client, agent atp.Agent) *fixture {
	t.Helper()

	st := store.New(kvstore.NewMemory())
	b := bus.New()
	reg := session.NewRegistry()
	if client != nil {
		reg.RegisterMastodon(session.Context{ID: mastoAcct, Host: "example.social", Handle: "alice", ViewerID: "42"}, client)
	}
	if agent != nil {
		reg.RegisterBluesky(session.Context{ID: bskyAcct, Host: "bsky.social", Handle: "viewer.bsky.social", ViewerID: bskyDID}, agent)
	}

	cur := cursor.NewManager(st, []string{timeline.NameFavourites, timeline.NameBookmarks})
	norm := normalize.New(nil)
	tracker := timeline.NewTracker(b)
	logger := zap.NewNop()

	return &fixture{
		engine:     NewEngine(reg, st, cur, norm, tracker, b, nil, logger),
		reconciler: NewReconciler(reg, st, norm, b, logger),
		store:      st,
		cursors:    cur,
		tracker:    tracker,
		bus:        b,
		registry:   reg,
	}
}
