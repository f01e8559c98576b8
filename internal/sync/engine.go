// Package sync orchestrates the core flows: fetching pages from whichever
// backend an account lives on, normalizing them, persisting entities, and
// merging timeline summary lists. It also hosts the interaction reconciler.
package sync

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/feedplex/feedplex/internal/bus"
	"github.com/feedplex/feedplex/internal/cursor"
	"github.com/feedplex/feedplex/internal/errs"
	"github.com/feedplex/feedplex/internal/model"
	"github.com/feedplex/feedplex/internal/normalize"
	"github.com/feedplex/feedplex/internal/session"
	"github.com/feedplex/feedplex/internal/store"
	"github.com/feedplex/feedplex/internal/tasks"
	"github.com/feedplex/feedplex/internal/timeline"
)

const defaultPageSize = 40

// AuthorFeedPrefix names per-author timelines: "author:" + account id.
const AuthorFeedPrefix = "author:"

// TimelineResult is what the UI renders: the ordered summary list plus
// whether it is being served from cache after a failed fetch.
type TimelineResult struct {
	Items []model.Summary
	Stale bool
}

// CursorState is the pagination state exposed to the UI.
type CursorState struct {
	HasMore bool
}

// Engine implements the read-side surface. Callers serialize fetches per
// (account, timeline) pair; the engine does not queue concurrent fetches for
// the same key, and concurrent calls risk out-of-order cursor writes.
type Engine struct {
	registry *session.Registry
	store    *store.Store
	cursors  *cursor.Manager
	norm     *normalize.Normalizer
	tracker  *timeline.Tracker
	bus      *bus.Bus
	tasks    *tasks.Queue
	logger   *zap.Logger
	pageSize int
}

// NewEngine creates an engine.
func NewEngine(reg *session.Registry, st *store.Store, cur *cursor.Manager, norm *normalize.Normalizer, tracker *timeline.Tracker, b *bus.Bus, q *tasks.Queue, logger *zap.Logger) *Engine {
	return &Engine{
		registry: reg,
		store:    st,
		cursors:  cur,
		norm:     norm,
		tracker:  tracker,
		bus:      b,
		tasks:    q,
		logger:   logger,
		pageSize: defaultPageSize,
	}
}

// FetchAndMergeTimeline fetches the head page of a timeline, merges it into
// the cached list, and returns the authoritative result.
//
// Network and server failures do not error: the cached list is returned with
// Stale=true, per the fallback-to-cache contract for reads. Auth failures do
// error, so the UI can prompt for re-login. Storage failures always error.
func (e *Engine) FetchAndMergeTimeline(ctx context.Context, accountID, timelineName string) (*TimelineResult, error) {
	acct, err := e.registry.Resolve(accountID)
	if err != nil {
		return nil, err
	}

	old, err := e.store.GetTimeline(accountID, timelineName)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	_ = e.tracker.Transition(accountID, timelineName, timeline.Loading)

	incoming, nextToken, fetchErr := e.fetchHead(ctx, acct, timelineName)
	if fetchErr != nil {
		_ = e.tracker.Transition(accountID, timelineName, timeline.Stale)
		classified := errs.Classify(fetchErr, "refresh")
		if classified.Kind == errs.KindAuthExpired {
			return nil, classified
		}
		e.logger.Warn("timeline fetch failed, serving cache",
			zap.String("account", accountID),
			zap.String("timeline", timelineName),
			zap.Error(fetchErr))
		return &TimelineResult{Items: old, Stale: true}, nil
	}

	merged, err := e.mergeAndPersist(accountID, timelineName, old, incoming, timeline.ModeRefresh)
	if err != nil {
		return nil, err
	}
	if err := e.cursors.Set(accountID, timelineName, nextToken); err != nil {
		return nil, fmt.Errorf("write cursor: %w", err)
	}

	// A successful fetch clears staleness even when it returned zero items.
	_ = e.tracker.Transition(accountID, timelineName, timeline.Ready)
	return &TimelineResult{Items: merged, Stale: false}, nil
}

// LoadMoreOlderItems fetches the next page using the stored cursor and
// appends it. A timeline already at end of feed is a no-op.
func (e *Engine) LoadMoreOlderItems(ctx context.Context, accountID, timelineName string) error {
	acct, err := e.registry.Resolve(accountID)
	if err != nil {
		return err
	}

	token, fetched, err := e.cursors.Get(accountID, timelineName)
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}
	if fetched && token == "" {
		return nil // end of feed
	}

	old, err := e.store.GetTimeline(accountID, timelineName)
	if err != nil {
		return fmt.Errorf("read timeline: %w", err)
	}

	incoming, nextToken, fetchErr := e.fetchPage(ctx, acct, timelineName, token)
	if fetchErr != nil {
		_ = e.tracker.Transition(accountID, timelineName, timeline.Loading)
		_ = e.tracker.Transition(accountID, timelineName, timeline.Stale)
		return errs.Classify(fetchErr, "load older items")
	}

	if _, err := e.mergeAndPersist(accountID, timelineName, old, incoming, timeline.ModePaged); err != nil {
		return err
	}
	if err := e.cursors.Set(accountID, timelineName, nextToken); err != nil {
		return fmt.Errorf("write cursor: %w", err)
	}
	_ = e.tracker.Transition(accountID, timelineName, timeline.Loading)
	_ = e.tracker.Transition(accountID, timelineName, timeline.Ready)
	return nil
}

// GetCursorState reports whether more pages may exist for a timeline.
func (e *Engine) GetCursorState(accountID, timelineName string) (CursorState, error) {
	hasMore, err := e.cursors.HasMore(accountID, timelineName)
	if err != nil {
		return CursorState{}, err
	}
	return CursorState{HasMore: hasMore}, nil
}

// FetchThread fetches a status with its ancestors and descendants and merges
// them into the thread timeline, in thread order.
func (e *Engine) FetchThread(ctx context.Context, accountID, statusID string) (*TimelineResult, error) {
	return e.FetchAndMergeTimeline(ctx, accountID, timeline.ThreadName(statusID))
}

// FetchNotifications fetches the head page of the notification feed.
func (e *Engine) FetchNotifications(ctx context.Context, accountID string) (*TimelineResult, error) {
	return e.FetchAndMergeTimeline(ctx, accountID, timeline.NameNotifications)
}

// GetStatus returns the cached copy of a status, hydrating list rows.
func (e *Engine) GetStatus(accountID, id string) (*model.Status, error) {
	return e.store.GetStatus(accountID, id)
}

// fetchHead fetches the first page of a timeline (no cursor).
func (e *Engine) fetchHead(ctx context.Context, acct session.Context, timelineName string) ([]fetched, string, error) {
	if timeline.KindOf(timelineName) == timeline.KindThread {
		items, err := e.fetchThread(ctx, acct, strings.TrimPrefix(timelineName, timeline.ThreadPrefix))
		return items, "", err
	}
	return e.fetchPage(ctx, acct, timelineName, "")
}

// fetched pairs a normalized entity with its summary projection.
type fetched struct {
	status *model.Status
	notif  *model.Notification
}

func (f fetched) summary() model.Summary {
	if f.notif != nil {
		return model.NotificationSummary(f.notif)
	}
	return model.StatusSummary(f.status)
}

// fetchPage routes one page fetch to the account's backend and normalizes
// the result. Invalid items normalize to nil and are dropped here.
func (e *Engine) fetchPage(ctx context.Context, acct session.Context, timelineName, token string) ([]fetched, string, error) {
	if timelineName == timeline.NameNotifications {
		return e.fetchNotificationsPage(ctx, acct, token)
	}

	switch acct.Protocol {
	case model.ProtocolMastodon:
		client, err := e.registry.Mastodon(acct.ID)
		if err != nil {
			return nil, "", err
		}
		page, err := client.FetchTimeline(ctx, timelineName, token, e.pageSize)
		if err != nil {
			return nil, "", err
		}
		var out []fetched
		for i := range page.Statuses {
			if s := e.norm.MastodonStatus(&page.Statuses[i]); s != nil {
				out = append(out, fetched{status: s})
			}
		}
		return out, page.NextToken, nil

	case model.ProtocolBluesky:
		agent, err := e.registry.Bluesky(acct.ID)
		if err != nil {
			return nil, "", err
		}
		page, err := fetchBlueskyFeed(ctx, agent, timelineName, e.pageSize, token)
		if err != nil {
			return nil, "", err
		}
		var out []fetched
		for i := range page.Items {
			if s := e.norm.FeedItem(&page.Items[i]); s != nil {
				out = append(out, fetched{status: s})
			}
		}
		return out, page.Cursor, nil
	}
	return nil, "", fmt.Errorf("unsupported protocol %q", acct.Protocol)
}

// overlayBookmark re-applies the client-managed bookmark flag before a
// re-normalized status is persisted. Bluesky has no server-side bookmark
// state, so the normalizer can never set it and a plain upsert would clobber
// the flag while the bookmark record still exists.
func (e *Engine) overlayBookmark(accountID string, s *model.Status) error {
	if s.Protocol != model.ProtocolBluesky {
		return nil
	}
	if s.ReblogOf != nil {
		if err := e.overlayBookmark(accountID, s.ReblogOf); err != nil {
			return err
		}
	}
	if s.Viewer.Bookmarked {
		return nil
	}
	b, err := e.store.GetBookmark(accountID, s.ID)
	if err != nil {
		return err
	}
	if b != nil {
		s.Viewer.Bookmarked = true
	}
	return nil
}

// mergeAndPersist upserts fetched entities, merges summaries, and writes the
// timeline list only when it structurally changed.
func (e *Engine) mergeAndPersist(accountID, timelineName string, old []model.Summary, incoming []fetched, mode timeline.Mode) ([]model.Summary, error) {
	summaries := make([]model.Summary, 0, len(incoming))
	for _, f := range incoming {
		if f.notif != nil {
			if err := e.store.PutNotification(accountID, f.notif); err != nil {
				return nil, fmt.Errorf("write notification: %w", err)
			}
			if f.notif.Subject != nil {
				if err := e.overlayBookmark(accountID, f.notif.Subject); err != nil {
					return nil, err
				}
				if err := e.store.PutStatus(accountID, f.notif.Subject); err != nil {
					return nil, fmt.Errorf("write subject: %w", err)
				}
			}
		} else {
			if err := e.overlayBookmark(accountID, f.status); err != nil {
				return nil, err
			}
			if err := e.store.PutStatus(accountID, f.status); err != nil {
				return nil, fmt.Errorf("write status: %w", err)
			}
			if strings.HasPrefix(timelineName, AuthorFeedPrefix) {
				if err := e.store.PutFeedEntry(accountID, timelineName, model.StatusSummary(f.status)); err != nil {
					return nil, fmt.Errorf("write feed index: %w", err)
				}
			}
		}
		summaries = append(summaries, f.summary())
	}

	merged := timeline.Merge(old, summaries, timeline.Options{
		Kind: timeline.KindOf(timelineName),
		Mode: mode,
	})
	if timeline.Equal(old, merged) {
		return merged, nil
	}
	if err := e.store.PutTimeline(accountID, timelineName, merged); err != nil {
		return nil, fmt.Errorf("write timeline: %w", err)
	}
	e.bus.Emit(bus.KindTimelineUpdated, bus.TimelineChange{AccountID: accountID, Timeline: timelineName})
	return merged, nil
}
