package normalize

import (
	"github.com/feedplex/feedplex/internal/masto"
	"github.com/feedplex/feedplex/internal/model"
)

// MastodonStatus maps a raw status to the canonical shape. Returns nil for
// structurally invalid input. Boost wrappers keep the wrapper's own id and
// nest the original under ReblogOf, matching the wire shape.
func (n *Normalizer) MastodonStatus(raw *masto.Status) *model.Status {
	if raw == nil || raw.ID == "" || raw.Account == nil || raw.Account.ID == "" {
		return nil
	}

	s := &model.Status{
		ID:          raw.ID,
		Protocol:    model.ProtocolMastodon,
		Author:      mastoAccount(raw.Account),
		Content:     raw.Content,
		CreatedAt:   parseTime(raw.CreatedAt),
		Visibility:  raw.Visibility,
		Language:    raw.Language,
		Sensitive:   raw.Sensitive,
		SpoilerText: raw.SpoilerText,
		URL:         raw.URL,
		Confirmed:   true,
		Counts: model.Counts{
			Replies: clampCount(raw.RepliesCount),
			Reposts: clampCount(raw.ReblogsCount),
			Likes:   clampCount(raw.FavouritesCount),
		},
		Viewer: model.Viewer{
			Liked:      raw.Favourited,
			Reposted:   raw.Reblogged,
			Bookmarked: raw.Bookmarked,
		},
	}

	if raw.EditedAt != "" {
		if t := parseTime(raw.EditedAt); !t.IsZero() {
			s.EditedAt = &t
		}
	}

	// The wire only carries the direct parent; the root is not separately
	// known, so a reply's root defaults to its parent.
	if raw.InReplyToID != "" {
		s.ReplyParentID = raw.InReplyToID
		s.ReplyRootID = raw.InReplyToID
	}

	s.ReblogOf = n.MastodonStatus(raw.Reblog)
	s.Quoted = n.MastodonStatus(raw.Quote)

	for _, m := range raw.MediaAttachments {
		s.Media = append(s.Media, model.Media{
			Type:        m.Type,
			URL:         m.URL,
			PreviewURL:  m.PreviewURL,
			Description: m.Description,
		})
	}
	if raw.Card != nil && raw.Card.URL != "" {
		s.Card = &model.Card{
			URL:         raw.Card.URL,
			Title:       raw.Card.Title,
			Description: raw.Card.Description,
			Image:       raw.Card.Image,
		}
	}
	for _, m := range raw.Mentions {
		s.Mentions = append(s.Mentions, model.Mention{AccountID: m.ID, Handle: m.Acct})
	}
	for _, t := range raw.Tags {
		if t.Name != "" {
			s.Tags = append(s.Tags, t.Name)
		}
	}
	return s
}

// MastodonNotification maps a raw notification. Unknown types yield nil.
func (n *Normalizer) MastodonNotification(raw *masto.Notification) *model.Notification {
	if raw == nil || raw.ID == "" || raw.Account == nil || raw.Account.ID == "" {
		return nil
	}

	var typ model.NotificationType
	switch raw.Type {
	case "favourite":
		typ = model.NotifyLike
	case "reblog":
		typ = model.NotifyRepost
	case "follow":
		typ = model.NotifyFollow
	case "mention":
		typ = model.NotifyMention
	default:
		return nil
	}

	out := &model.Notification{
		ID:        raw.ID,
		Protocol:  model.ProtocolMastodon,
		Type:      typ,
		CreatedAt: parseTime(raw.CreatedAt),
		Actor:     mastoAccount(raw.Account),
	}
	if subject := n.MastodonStatus(raw.Status); subject != nil {
		out.Subject = subject
		out.SubjectID = subject.ID
	}
	return out
}

func mastoAccount(a *masto.Account) model.Account {
	name := a.DisplayName
	if name == "" {
		name = a.Username
	}
	return model.Account{
		ID:          a.ID,
		Handle:      a.Acct,
		DisplayName: name,
		Avatar:      a.Avatar,
		URL:         a.URL,
	}
}

func clampCount(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
