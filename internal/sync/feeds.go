package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/bus"
	"github.com/feedplex/feedplex/internal/model"
	"github.com/feedplex/feedplex/internal/session"
	"github.com/feedplex/feedplex/internal/timeline"
)

// fetchBlueskyFeed routes a timeline name to the right agent call.
func fetchBlueskyFeed(ctx context.Context, agent atp.Agent, name string, limit int, cursor string) (*atp.FeedPage, error) {
	switch {
	case name == timeline.NameHome:
		return agent.GetTimeline(ctx, limit, cursor)
	case strings.HasPrefix(name, AuthorFeedPrefix):
		return agent.GetAuthorFeed(ctx, strings.TrimPrefix(name, AuthorFeedPrefix), limit, cursor)
	default:
		return agent.GetFeed(ctx, name, limit, cursor)
	}
}

// fetchThread fetches the focal status with its ancestors and descendants.
// The returned order is already thread order; the thread comparator keeps it.
func (e *Engine) fetchThread(ctx context.Context, acct session.Context, statusID string) ([]fetched, error) {
	switch acct.Protocol {
	case model.ProtocolMastodon:
		client, err := e.registry.Mastodon(acct.ID)
		if err != nil {
			return nil, err
		}
		focal, err := client.FetchStatus(ctx, statusID)
		if err != nil {
			return nil, err
		}
		thread, err := client.FetchStatusContext(ctx, statusID)
		if err != nil {
			return nil, err
		}

		var out []fetched
		for i := range thread.Ancestors {
			if s := e.norm.MastodonStatus(&thread.Ancestors[i]); s != nil {
				out = append(out, fetched{status: s})
			}
		}
		if s := e.norm.MastodonStatus(focal); s != nil {
			out = append(out, fetched{status: s})
		}
		for i := range thread.Descendants {
			if s := e.norm.MastodonStatus(&thread.Descendants[i]); s != nil {
				out = append(out, fetched{status: s})
			}
		}
		return out, nil

	case model.ProtocolBluesky:
		agent, err := e.registry.Bluesky(acct.ID)
		if err != nil {
			return nil, err
		}
		view, err := agent.GetPostThread(ctx, statusID, 10)
		if err != nil {
			return nil, err
		}
		var out []fetched
		e.flattenThread(view, &out)
		return out, nil
	}
	return nil, fmt.Errorf("unsupported protocol %q", acct.Protocol)
}

// flattenThread walks parents up to the root, then the focal post, then
// replies depth-first.
func (e *Engine) flattenThread(view *atp.ThreadView, out *[]fetched) {
	if view == nil {
		return
	}

	var ancestors []*atp.PostView
	for p := view.Parent; p != nil; p = p.Parent {
		ancestors = append(ancestors, p.Post)
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		if s := e.norm.PostView(ancestors[i]); s != nil {
			*out = append(*out, fetched{status: s})
		}
	}

	if s := e.norm.PostView(view.Post); s != nil {
		*out = append(*out, fetched{status: s})
	}
	e.flattenReplies(view.Replies, out)
}

func (e *Engine) flattenReplies(replies []atp.ThreadView, out *[]fetched) {
	for i := range replies {
		if s := e.norm.PostView(replies[i].Post); s != nil {
			*out = append(*out, fetched{status: s})
		}
		e.flattenReplies(replies[i].Replies, out)
	}
}

// fetchNotificationsPage fetches one page of notifications. Bluesky subjects
// arrive reference-only; a background task hydrates missing ones later.
func (e *Engine) fetchNotificationsPage(ctx context.Context, acct session.Context, token string) ([]fetched, string, error) {
	switch acct.Protocol {
	case model.ProtocolMastodon:
		client, err := e.registry.Mastodon(acct.ID)
		if err != nil {
			return nil, "", err
		}
		page, err := client.FetchNotifications(ctx, token, e.pageSize)
		if err != nil {
			return nil, "", err
		}
		var out []fetched
		for i := range page.Notifications {
			if n := e.norm.MastodonNotification(&page.Notifications[i]); n != nil {
				out = append(out, fetched{notif: n})
			}
		}
		return out, page.NextToken, nil

	case model.ProtocolBluesky:
		agent, err := e.registry.Bluesky(acct.ID)
		if err != nil {
			return nil, "", err
		}
		page, err := agent.ListNotifications(ctx, e.pageSize, token)
		if err != nil {
			return nil, "", err
		}
		var out []fetched
		var subjects []string
		for i := range page.Notifications {
			if n := e.norm.BlueskyNotification(&page.Notifications[i]); n != nil {
				out = append(out, fetched{notif: n})
				if n.SubjectID != "" && n.Subject == nil {
					subjects = append(subjects, n.SubjectID)
				}
			}
		}
		if len(subjects) > 0 {
			e.scheduleSubjectHydration(acct, subjects)
		}
		return out, page.Cursor, nil
	}
	return nil, "", fmt.Errorf("unsupported protocol %q", acct.Protocol)
}

// scheduleSubjectHydration fetches uncached notification subjects in the
// background. Best-effort: failures are logged, never surfaced.
func (e *Engine) scheduleSubjectHydration(acct session.Context, subjectIDs []string) {
	if e.tasks == nil {
		return
	}
	e.tasks.Submit("hydrate notification subjects", func(ctx context.Context) error {
		agent, err := e.registry.Bluesky(acct.ID)
		if err != nil {
			return err
		}
		for _, id := range subjectIDs {
			cached, err := e.store.GetStatus(acct.ID, id)
			if err != nil {
				return err
			}
			if cached != nil {
				continue
			}
			view, err := agent.GetPostThread(ctx, id, 0)
			if err != nil || view == nil {
				continue // one missing subject must not abort the rest
			}
			if s := e.norm.PostView(view.Post); s != nil {
				if err := e.overlayBookmark(acct.ID, s); err != nil {
					return err
				}
				if err := e.store.PutStatus(acct.ID, s); err != nil {
					return err
				}
				e.bus.Emit(bus.KindStatusUpdated, bus.StatusChange{AccountID: acct.ID, StatusID: s.ID})
			}
		}
		return nil
	})
}

// WarmThread refreshes a status's thread in the background so the thread view
// opens from warm cache. Fire-and-forget by contract.
func (e *Engine) WarmThread(accountID, statusID string) {
	if e.tasks == nil {
		return
	}
	e.tasks.Submit("thread warm-up", func(ctx context.Context) error {
		_, err := e.FetchAndMergeTimeline(ctx, accountID, timeline.ThreadName(statusID))
		return err
	})
}

// RefreshUnreadCount re-reads the unread notification count in the
// background and publishes it on the bus.
func (e *Engine) RefreshUnreadCount(accountID string) {
	if e.tasks == nil {
		return
	}
	e.tasks.Submit("unread count refresh", func(ctx context.Context) error {
		acct, err := e.registry.Resolve(accountID)
		if err != nil {
			return err
		}
		if acct.Protocol != model.ProtocolBluesky {
			return nil
		}
		agent, err := e.registry.Bluesky(accountID)
		if err != nil {
			return err
		}
		count, err := agent.CountUnreadNotifications(ctx)
		if err != nil {
			return err
		}
		e.bus.Emit(bus.KindNotifyUpdated, map[string]any{"account_id": accountID, "unread": count})
		return nil
	})
}

// MarkNotificationsSeen tells the backend all notifications up to now were
// seen. Best-effort background write.
func (e *Engine) MarkNotificationsSeen(accountID string) {
	if e.tasks == nil {
		return
	}
	e.tasks.Submit("mark notifications seen", func(ctx context.Context) error {
		acct, err := e.registry.Resolve(accountID)
		if err != nil {
			return err
		}
		if acct.Protocol != model.ProtocolBluesky {
			return nil
		}
		agent, err := e.registry.Bluesky(accountID)
		if err != nil {
			return err
		}
		if err := agent.UpdateSeenNotifications(ctx, time.Now()); err != nil {
			return err
		}
		e.logger.Debug("notifications marked seen", zap.String("account", accountID))
		return nil
	})
}
