package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/bus"
	"github.com/feedplex/feedplex/internal/errs"
	"github.com/feedplex/feedplex/internal/masto"
	"github.com/feedplex/feedplex/internal/model"
	"github.com/feedplex/feedplex/internal/normalize"
	"github.com/feedplex/feedplex/internal/session"
	"github.com/feedplex/feedplex/internal/store"
)

// Reconciler executes user-initiated mutations: validate identifiers, apply
// the optimistic local change, issue the protocol-correct network call, then
// confirm or roll back. Every method returns exactly one success-or-failure
// signal to the caller.
type Reconciler struct {
	registry *session.Registry
	store    *store.Store
	norm     *normalize.Normalizer
	bus      *bus.Bus
	logger   *zap.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(reg *session.Registry, st *store.Store, norm *normalize.Normalizer, b *bus.Bus, logger *zap.Logger) *Reconciler {
	return &Reconciler{registry: reg, store: st, norm: norm, bus: b, logger: logger}
}

// viewerSnapshot captures the pre-mutation state needed for exact rollback.
type viewerSnapshot struct {
	viewer model.Viewer
	counts model.Counts
}

func snapshot(s *model.Status) viewerSnapshot {
	return viewerSnapshot{viewer: s.Viewer, counts: s.Counts}
}

func (r *Reconciler) restore(accountID string, s *model.Status, snap viewerSnapshot) {
	s.Viewer = snap.viewer
	s.Counts = snap.counts
	if err := r.patch(accountID, s); err != nil {
		r.logger.Error("rollback write failed", zap.String("status", s.ID), zap.Error(err))
	}
}

// patch persists a status and notifies subscribers. Timeline lists hold only
// ids, so a single entity write fans out to every list referencing it.
func (r *Reconciler) patch(accountID string, s *model.Status) error {
	if err := r.store.PutStatus(accountID, s); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	r.bus.Emit(bus.KindStatusUpdated, bus.StatusChange{AccountID: accountID, StatusID: s.ID})
	return nil
}

func clampDelta(v, delta int) int {
	v += delta
	if v < 0 {
		return 0
	}
	return v
}

// fail classifies a backend failure and announces it for passive observers.
// The returned error stays the caller's single success-or-failure signal.
func (r *Reconciler) fail(accountID, action string, err error) *errs.Error {
	classified := errs.Classify(err, action)
	r.bus.Emit(bus.KindActionFailed, bus.ActionFailure{
		AccountID: accountID,
		Action:    action,
		Kind:      string(classified.Kind),
	})
	return classified
}

// SetLiked sets the like state of a status to desired.
func (r *Reconciler) SetLiked(ctx context.Context, accountID string, ref model.TargetRef, desired bool) error {
	acct, err := r.registry.Resolve(accountID)
	if err != nil {
		return err
	}
	cached, err := r.store.GetStatus(accountID, ref.Key())
	if err != nil {
		return err
	}
	if cached != nil && cached.Viewer.Liked == desired {
		return nil // already in the desired state
	}

	// Bluesky undo needs the like record's own URI; recover it from the
	// cached copy before failing outright.
	likeRef := ref.LikeRef
	if acct.Protocol == model.ProtocolBluesky {
		if !desired {
			if likeRef == "" && cached != nil {
				likeRef = cached.Viewer.LikeRef
			}
			if likeRef == "" {
				return errs.Validation("cannot remove like: missing like record reference")
			}
		} else if ref.URI == "" || ref.CID == "" {
			return errs.Validation("cannot like: missing post uri or cid")
		}
	}

	var snap viewerSnapshot
	if cached != nil {
		snap = snapshot(cached)
		cached.Viewer.Liked = desired
		if desired {
			cached.Counts.Likes = clampDelta(cached.Counts.Likes, 1)
		} else {
			cached.Counts.Likes = clampDelta(cached.Counts.Likes, -1)
			cached.Viewer.LikeRef = ""
		}
		if err := r.patch(accountID, cached); err != nil {
			return err
		}
	}

	netErr := r.likeOnBackend(ctx, acct, ref, desired, likeRef, cached)
	if netErr != nil {
		if cached != nil {
			r.restore(accountID, cached, snap)
		}
		return r.fail(accountID, "like", netErr)
	}
	return nil
}

func (r *Reconciler) likeOnBackend(ctx context.Context, acct session.Context, ref model.TargetRef, desired bool, likeRef string, cached *model.Status) error {
	switch acct.Protocol {
	case model.ProtocolMastodon:
		client, err := r.registry.Mastodon(acct.ID)
		if err != nil {
			return err
		}
		var resp *masto.Status
		if desired {
			resp, err = client.Favourite(ctx, ref.ID)
		} else {
			resp, err = client.Unfavourite(ctx, ref.ID)
		}
		if err != nil {
			return err
		}
		return r.confirmMastodon(acct.ID, resp, cached)

	case model.ProtocolBluesky:
		agent, err := r.registry.Bluesky(acct.ID)
		if err != nil {
			return err
		}
		if desired {
			rec, err := agent.Like(ctx, atp.RecordRef{URI: ref.URI, CID: ref.CID})
			if err != nil {
				return err
			}
			// Persist the returned reference id for the future undo.
			if cached != nil {
				cached.Viewer.LikeRef = rec.URI
				return r.patch(acct.ID, cached)
			}
			return nil
		}
		return agent.DeleteLike(ctx, likeRef)
	}
	return fmt.Errorf("unsupported protocol %q", acct.Protocol)
}

// SetReposted sets the repost state of a status to desired.
func (r *Reconciler) SetReposted(ctx context.Context, accountID string, ref model.TargetRef, desired bool) error {
	acct, err := r.registry.Resolve(accountID)
	if err != nil {
		return err
	}
	cached, err := r.store.GetStatus(accountID, ref.Key())
	if err != nil {
		return err
	}
	if cached != nil && cached.Viewer.Reposted == desired {
		return nil
	}

	repostRef := ref.RepostRef
	if acct.Protocol == model.ProtocolBluesky {
		if !desired {
			if repostRef == "" && cached != nil {
				repostRef = cached.Viewer.RepostRef
			}
			if repostRef == "" {
				return errs.Validation("cannot remove repost: missing repost record reference")
			}
		} else if ref.URI == "" || ref.CID == "" {
			return errs.Validation("cannot repost: missing post uri or cid")
		}
	}

	var snap viewerSnapshot
	if cached != nil {
		snap = snapshot(cached)
		cached.Viewer.Reposted = desired
		if desired {
			cached.Counts.Reposts = clampDelta(cached.Counts.Reposts, 1)
		} else {
			cached.Counts.Reposts = clampDelta(cached.Counts.Reposts, -1)
			cached.Viewer.RepostRef = ""
		}
		if err := r.patch(accountID, cached); err != nil {
			return err
		}
	}

	netErr := r.repostOnBackend(ctx, acct, ref, desired, repostRef, cached)
	if netErr != nil {
		if cached != nil {
			r.restore(accountID, cached, snap)
		}
		return r.fail(accountID, "repost", netErr)
	}
	return nil
}

func (r *Reconciler) repostOnBackend(ctx context.Context, acct session.Context, ref model.TargetRef, desired bool, repostRef string, cached *model.Status) error {
	switch acct.Protocol {
	case model.ProtocolMastodon:
		client, err := r.registry.Mastodon(acct.ID)
		if err != nil {
			return err
		}
		var resp *masto.Status
		if desired {
			resp, err = client.Reblog(ctx, ref.ID)
		} else {
			resp, err = client.Unreblog(ctx, ref.ID)
		}
		if err != nil {
			return err
		}
		// A reblog call answers with the wrapper; the target's fresh state
		// is nested under it.
		if resp != nil && resp.Reblog != nil {
			return r.confirmMastodon(acct.ID, resp.Reblog, cached)
		}
		return r.confirmMastodon(acct.ID, resp, cached)

	case model.ProtocolBluesky:
		agent, err := r.registry.Bluesky(acct.ID)
		if err != nil {
			return err
		}
		if desired {
			rec, err := agent.Repost(ctx, atp.RecordRef{URI: ref.URI, CID: ref.CID})
			if err != nil {
				return err
			}
			if cached != nil {
				cached.Viewer.RepostRef = rec.URI
				return r.patch(acct.ID, cached)
			}
			return nil
		}
		return agent.DeleteRepost(ctx, repostRef)
	}
	return fmt.Errorf("unsupported protocol %q", acct.Protocol)
}

// confirmMastodon overwrites local state with the server-confirmed status
// when the backend echoes one, preserving nothing optimistic.
func (r *Reconciler) confirmMastodon(accountID string, resp *masto.Status, cached *model.Status) error {
	confirmed := r.norm.MastodonStatus(resp)
	if confirmed == nil {
		return nil // no usable echo; optimistic state stands
	}
	return r.patch(accountID, confirmed)
}

// SetBookmarked sets the bookmark state. Mastodon bookmarks are a server
// mutation; Bluesky has no bookmark primitive, so those are purely local.
func (r *Reconciler) SetBookmarked(ctx context.Context, accountID string, ref model.TargetRef, desired bool) error {
	acct, err := r.registry.Resolve(accountID)
	if err != nil {
		return err
	}
	cached, err := r.store.GetStatus(accountID, ref.Key())
	if err != nil {
		return err
	}
	if cached != nil && cached.Viewer.Bookmarked == desired {
		return nil
	}

	var snap viewerSnapshot
	if cached != nil {
		snap = snapshot(cached)
		cached.Viewer.Bookmarked = desired
		if err := r.patch(accountID, cached); err != nil {
			return err
		}
	}

	switch acct.Protocol {
	case model.ProtocolMastodon:
		client, err := r.registry.Mastodon(accountID)
		if err != nil {
			return err
		}
		var resp *masto.Status
		if desired {
			resp, err = client.Bookmark(ctx, ref.ID)
		} else {
			resp, err = client.Unbookmark(ctx, ref.ID)
		}
		if err != nil {
			if cached != nil {
				r.restore(accountID, cached, snap)
			}
			return r.fail(accountID, "bookmark", err)
		}
		return r.confirmMastodon(accountID, resp, cached)

	case model.ProtocolBluesky:
		if desired {
			return r.store.PutBookmark(accountID, model.Bookmark{PostID: ref.Key(), BookmarkedAt: time.Now().UTC()})
		}
		return r.store.DeleteBookmark(accountID, ref.Key())
	}
	return fmt.Errorf("unsupported protocol %q", acct.Protocol)
}

// Delete removes a status. Deletion is confirmed-first rather than
// optimistic: a cascaded removal cannot be faithfully rolled back.
//
// Mastodon deletion cascades locally (the status, every cached repost
// wrapper of it, and notifications referencing it). Bluesky deletion removes
// only the single record; other actors' likes/reposts go stale on their own.
func (r *Reconciler) Delete(ctx context.Context, accountID string, ref model.TargetRef) error {
	acct, err := r.registry.Resolve(accountID)
	if err != nil {
		return err
	}

	switch acct.Protocol {
	case model.ProtocolMastodon:
		if ref.ID == "" {
			return errs.Validation("cannot delete: missing status id")
		}
		client, err := r.registry.Mastodon(accountID)
		if err != nil {
			return err
		}
		if err := client.DeleteStatus(ctx, ref.ID); err != nil {
			return r.fail(accountID, "delete", err)
		}
		removed, err := r.store.DeleteStatusCascade(accountID, ref.ID)
		if err != nil {
			return err
		}
		for _, id := range removed {
			r.bus.Emit(bus.KindStatusDeleted, bus.StatusChange{AccountID: accountID, StatusID: id})
		}
		return nil

	case model.ProtocolBluesky:
		if ref.URI == "" {
			return errs.Validation("cannot delete: missing post uri")
		}
		agent, err := r.registry.Bluesky(accountID)
		if err != nil {
			return err
		}
		if err := agent.DeletePost(ctx, ref.URI); err != nil {
			return r.fail(accountID, "delete", err)
		}
		if err := r.store.DeleteStatus(accountID, ref.URI); err != nil {
			return err
		}
		r.bus.Emit(bus.KindStatusDeleted, bus.StatusChange{AccountID: accountID, StatusID: ref.URI})
		return nil
	}
	return fmt.Errorf("unsupported protocol %q", acct.Protocol)
}

// Compose publishes a draft and returns the resulting status. Mastodon
// answers with the full status; Bluesky answers with only a record ref, so a
// local optimistic status (Confirmed=false) is synthesized until the next
// fetch replaces it.
func (r *Reconciler) Compose(ctx context.Context, accountID string, draft model.Draft) (*model.Status, error) {
	if draft.Text == "" && len(draft.MediaIDs) == 0 {
		return nil, errs.Validation("cannot post: empty draft")
	}
	acct, err := r.registry.Resolve(accountID)
	if err != nil {
		return nil, err
	}

	switch acct.Protocol {
	case model.ProtocolMastodon:
		client, err := r.registry.Mastodon(accountID)
		if err != nil {
			return nil, err
		}
		resp, err := client.PostStatus(ctx, masto.StatusForm{
			Status:      draft.Text,
			InReplyToID: draft.ReplyToID,
			Visibility:  draft.Visibility,
			Sensitive:   draft.Sensitive,
			SpoilerText: draft.SpoilerText,
			Language:    draft.Language,
			MediaIDs:    draft.MediaIDs,
		})
		if err != nil {
			return nil, r.fail(accountID, "post", err)
		}
		posted := r.norm.MastodonStatus(resp)
		if posted == nil {
			return nil, r.fail(accountID, "post", fmt.Errorf("malformed response"))
		}
		if err := r.patch(accountID, posted); err != nil {
			return nil, err
		}
		return posted, nil

	case model.ProtocolBluesky:
		agent, err := r.registry.Bluesky(accountID)
		if err != nil {
			return nil, err
		}
		record := atp.Record{Text: draft.Text, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
		if draft.Language != "" {
			record.Langs = []string{draft.Language}
		}
		if draft.ReplyToID != "" {
			parent, err := r.store.GetStatus(accountID, draft.ReplyToID)
			if err != nil {
				return nil, err
			}
			if parent == nil || parent.CID == "" {
				return nil, errs.Validation("cannot reply: parent post not cached")
			}
			root := atp.RecordRef{URI: parent.ID, CID: parent.CID}
			if parent.ReplyRootID != "" && parent.ReplyRootID != parent.ID {
				if rootStatus, err := r.store.GetStatus(accountID, parent.ReplyRootID); err == nil && rootStatus != nil {
					root = atp.RecordRef{URI: rootStatus.ID, CID: rootStatus.CID}
				}
			}
			record.Reply = &atp.ReplyRef{
				Root:   root,
				Parent: atp.RecordRef{URI: parent.ID, CID: parent.CID},
			}
		}

		rec, err := agent.Post(ctx, record)
		if err != nil {
			return nil, r.fail(accountID, "post", err)
		}

		optimistic := &model.Status{
			ID:       rec.URI,
			CID:      rec.CID,
			Protocol: model.ProtocolBluesky,
			Author: model.Account{
				ID:     acct.ViewerID,
				Handle: acct.Handle,
			},
			Content:   draft.Text,
			CreatedAt: time.Now().UTC(),
			Confirmed: false,
		}
		if draft.ReplyToID != "" {
			optimistic.ReplyParentID = draft.ReplyToID
			optimistic.ReplyRootID = draft.ReplyToID
		}
		if err := r.patch(accountID, optimistic); err != nil {
			return nil, err
		}
		return optimistic, nil
	}
	return nil, fmt.Errorf("unsupported protocol %q", acct.Protocol)
}

// Edit updates an existing status. Only the REST backend supports edits;
// DID-addressed records are immutable.
func (r *Reconciler) Edit(ctx context.Context, accountID string, ref model.TargetRef, draft model.Draft) (*model.Status, error) {
	acct, err := r.registry.Resolve(accountID)
	if err != nil {
		return nil, err
	}
	if acct.Protocol != model.ProtocolMastodon {
		return nil, errs.Validation("editing is not supported for this account")
	}
	if ref.ID == "" {
		return nil, errs.Validation("cannot edit: missing status id")
	}

	client, err := r.registry.Mastodon(accountID)
	if err != nil {
		return nil, err
	}
	resp, err := client.EditStatus(ctx, ref.ID, masto.StatusForm{
		Status:      draft.Text,
		Visibility:  draft.Visibility,
		Sensitive:   draft.Sensitive,
		SpoilerText: draft.SpoilerText,
		Language:    draft.Language,
		MediaIDs:    draft.MediaIDs,
	})
	if err != nil {
		return nil, r.fail(accountID, "edit", err)
	}
	edited := r.norm.MastodonStatus(resp)
	if edited == nil {
		return nil, r.fail(accountID, "edit", fmt.Errorf("malformed response"))
	}
	if err := r.patch(accountID, edited); err != nil {
		return nil, err
	}
	return edited, nil
}

// SetFollowing sets the follow state toward another account, with the same
// optimistic/rollback contract as status mutations.
func (r *Reconciler) SetFollowing(ctx context.Context, accountID, otherID string, desired bool) error {
	acct, err := r.registry.Resolve(accountID)
	if err != nil {
		return err
	}
	rel, err := r.store.GetRelationship(accountID, otherID)
	if err != nil {
		return err
	}
	if rel == nil {
		rel = &model.Relationship{AccountID: otherID}
	}
	if rel.Following == desired {
		return nil
	}
	// Validation precedes the optimistic write: an impossible undo must not
	// flip local state or emit a failure event.
	if !desired && acct.Protocol == model.ProtocolBluesky && rel.FollowRef == "" {
		return errs.Validation("cannot unfollow: missing follow record reference")
	}

	prev := *rel
	rel.Following = desired
	if !desired {
		rel.FollowRef = ""
	}
	if err := r.store.PutRelationship(accountID, *rel); err != nil {
		return err
	}

	netErr := r.followOnBackend(ctx, acct, otherID, desired, prev.FollowRef, rel)
	if netErr != nil {
		if err := r.store.PutRelationship(accountID, prev); err != nil {
			r.logger.Error("rollback write failed", zap.String("relationship", otherID), zap.Error(err))
		}
		return r.fail(accountID, "follow", netErr)
	}
	return nil
}

func (r *Reconciler) followOnBackend(ctx context.Context, acct session.Context, otherID string, desired bool, followRef string, rel *model.Relationship) error {
	switch acct.Protocol {
	case model.ProtocolMastodon:
		client, err := r.registry.Mastodon(acct.ID)
		if err != nil {
			return err
		}
		if desired {
			_, err = client.Follow(ctx, otherID)
		} else {
			_, err = client.Unfollow(ctx, otherID)
		}
		return err

	case model.ProtocolBluesky:
		agent, err := r.registry.Bluesky(acct.ID)
		if err != nil {
			return err
		}
		if desired {
			rec, err := agent.Follow(ctx, otherID)
			if err != nil {
				return err
			}
			rel.FollowRef = rec.URI
			return r.store.PutRelationship(acct.ID, *rel)
		}
		return agent.DeleteFollow(ctx, followRef)
	}
	return fmt.Errorf("unsupported protocol %q", acct.Protocol)
}
