package normalize

import (
	"github.com/feedplex/feedplex/internal/atp"
	"github.com/feedplex/feedplex/internal/model"
)

// RepostID builds the synthetic id for a repost event. The repost wrapper
// needs an id distinct from the original post's URI (and from other actors'
// reposts of the same post) so both can coexist in one timeline.
func RepostID(reposterDID, originalID string) string {
	return "repost:" + reposterDID + ":" + originalID
}

// FeedItem maps one {post, reply?, reason?} feed entry to a canonical status.
// A repost reason produces a wrapper status carrying the reposting actor and
// the repost's own timestamp, with the original nested under ReblogOf.
func (n *Normalizer) FeedItem(item *atp.FeedItem) *model.Status {
	if item == nil {
		return nil
	}
	post := n.PostView(&item.Post)
	if post == nil {
		return nil
	}

	// Hydrated reply context beats the record's bare refs when present.
	if item.Reply != nil && item.Reply.Parent != nil && item.Reply.Parent.URI != "" {
		post.ReplyParentID = item.Reply.Parent.URI
		if item.Reply.Root != nil && item.Reply.Root.URI != "" {
			post.ReplyRootID = item.Reply.Root.URI
		} else {
			post.ReplyRootID = item.Reply.Parent.URI
		}
	}

	if item.Reason == nil {
		return post
	}
	if item.Reason.By.DID == "" {
		return post
	}
	return &model.Status{
		ID:        RepostID(item.Reason.By.DID, post.ID),
		Protocol:  model.ProtocolBluesky,
		Author:    atpAccount(&item.Reason.By),
		CreatedAt: parseTime(item.Reason.IndexedAt),
		ReblogOf:  post,
		Confirmed: true,
	}
}

// PostView maps a hydrated post view to a canonical status. Viewer state
// comes from the view's own viewer block. Returns nil for structurally
// invalid input.
func (n *Normalizer) PostView(post *atp.PostView) *model.Status {
	if post == nil || post.URI == "" || post.Author == nil || post.Author.DID == "" {
		return nil
	}

	s := &model.Status{
		ID:        post.URI,
		Protocol:  model.ProtocolBluesky,
		Author:    atpAccount(post.Author),
		Content:   post.Record.Text,
		CreatedAt: parseTime(post.Record.CreatedAt),
		Language:  firstLang(post.Record.Langs),
		CID:       post.CID,
		Confirmed: true,
		Counts: model.Counts{
			Replies: clampCount(post.ReplyCount),
			Reposts: clampCount(post.RepostCount),
			Likes:   clampCount(post.LikeCount),
		},
	}

	if post.Viewer != nil {
		if post.Viewer.Like != nil {
			s.Viewer.Liked = true
			s.Viewer.LikeRef = *post.Viewer.Like
		}
		if post.Viewer.Repost != nil {
			s.Viewer.Reposted = true
			s.Viewer.RepostRef = *post.Viewer.Repost
		}
	}

	if reply := post.Record.Reply; reply != nil && reply.Parent.URI != "" {
		s.ReplyParentID = reply.Parent.URI
		if reply.Root.URI != "" {
			s.ReplyRootID = reply.Root.URI
		} else {
			s.ReplyRootID = reply.Parent.URI
		}
	}

	n.applyLabels(s, post.Labels)
	mentions, tags := facetEntities(post.Record.Text, post.Record.Facets)
	s.Mentions = mentions
	s.Tags = tags

	if post.Embed != nil {
		for _, img := range post.Embed.Images {
			s.Media = append(s.Media, model.Media{
				Type:        "image",
				URL:         img.Fullsize,
				PreviewURL:  img.Thumb,
				Description: img.Alt,
			})
		}
		if ext := post.Embed.External; ext != nil && ext.URI != "" {
			s.Card = &model.Card{
				URL:         ext.URI,
				Title:       ext.Title,
				Description: ext.Description,
				Image:       ext.Thumb,
			}
		}
		if post.Embed.Record != nil {
			s.Quoted = n.PostView(post.Embed.Record)
		}
	}
	return s
}

// BlueskyNotification maps one raw notification. For like/repost the subject
// is a bare reference (hydrated later); for mention/reply/quote the
// notification's own record is the subject post.
func (n *Normalizer) BlueskyNotification(raw *atp.Notification) *model.Notification {
	if raw == nil || raw.URI == "" || raw.Author == nil || raw.Author.DID == "" {
		return nil
	}

	var typ model.NotificationType
	switch raw.Reason {
	case "like":
		typ = model.NotifyLike
	case "repost":
		typ = model.NotifyRepost
	case "follow":
		typ = model.NotifyFollow
	case "mention":
		typ = model.NotifyMention
	case "reply":
		typ = model.NotifyReply
	case "quote":
		typ = model.NotifyQuote
	default:
		return nil
	}

	out := &model.Notification{
		ID:        raw.URI,
		Protocol:  model.ProtocolBluesky,
		Type:      typ,
		CreatedAt: parseTime(raw.IndexedAt),
		Actor:     atpAccount(raw.Author),
		Read:      raw.IsRead,
	}
	switch typ {
	case model.NotifyLike, model.NotifyRepost, model.NotifyQuote:
		out.SubjectID = raw.ReasonSubject
	case model.NotifyMention, model.NotifyReply:
		out.SubjectID = raw.URI
	}
	return out
}

func (n *Normalizer) applyLabels(s *model.Status, labels []atp.Label) {
	for _, l := range labels {
		rule, ok := n.labels[l.Val]
		if !ok {
			continue // unmapped labels are non-fatal
		}
		if rule.Sensitive {
			s.Sensitive = true
		}
		if rule.Spoiler != "" && s.SpoilerText == "" {
			s.SpoilerText = rule.Spoiler
		}
	}
}

func atpAccount(a *atp.Actor) model.Account {
	name := a.DisplayName
	if name == "" {
		name = a.Handle
	}
	return model.Account{
		ID:          a.DID,
		Handle:      a.Handle,
		DisplayName: name,
		Avatar:      a.Avatar,
	}
}

func firstLang(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}
