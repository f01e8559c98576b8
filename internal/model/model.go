package model

import "time"

// Protocol identifies which backend a piece of data came from.
type Protocol string

const (
	ProtocolMastodon Protocol = "mastodon"
	ProtocolBluesky  Protocol = "bluesky"
)

// Account is the embedded author summary carried on statuses and notifications.
type Account struct {
	ID          string `json:"id"` // numeric id for Mastodon, DID for Bluesky
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Counts holds the public interaction counters of a status. Never negative.
type Counts struct {
	Replies int `json:"replies"`
	Reposts int `json:"reposts"`
	Likes   int `json:"likes"`
}

// Viewer holds the requesting account's own state toward a status.
// LikeRef/RepostRef are Bluesky record URIs required to undo the mutation later;
// Mastodon needs no such reference.
type Viewer struct {
	Liked      bool   `json:"liked"`
	Reposted   bool   `json:"reposted"`
	Bookmarked bool   `json:"bookmarked"`
	LikeRef    string `json:"like_ref,omitempty"`
	RepostRef  string `json:"repost_ref,omitempty"`
}

// Media is a normalized media attachment.
type Media struct {
	Type        string `json:"type"` // image, video, gifv, audio, unknown
	URL         string `json:"url"`
	PreviewURL  string `json:"preview_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Card is a link preview.
type Card struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Mention is a reference to another account inside status content.
type Mention struct {
	AccountID string `json:"account_id"`
	Handle    string `json:"handle"`
}

// Status is the canonical post representation both protocols normalize into.
//
// ID is protocol-unique: the numeric/string status id for Mastodon, the at://
// URI for Bluesky. IDs are unique only within an (account, protocol) scope, so
// every lookup must be scoped by account context.
type Status struct {
	ID       string   `json:"id"`
	Protocol Protocol `json:"protocol"`

	Author    Account    `json:"author"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`

	Visibility  string `json:"visibility,omitempty"`
	Language    string `json:"language,omitempty"`
	Sensitive   bool   `json:"sensitive,omitempty"`
	SpoilerText string `json:"spoiler_text,omitempty"`

	Counts Counts `json:"counts"`
	Viewer Viewer `json:"viewer"`

	ReplyParentID string `json:"reply_parent_id,omitempty"`
	ReplyRootID   string `json:"reply_root_id,omitempty"`

	// ReblogOf distinguishes a repost wrapper from original content.
	ReblogOf *Status `json:"reblog_of,omitempty"`
	Quoted   *Status `json:"quoted,omitempty"`

	// CID is the Bluesky content hash needed alongside the URI for mutations.
	CID string `json:"cid,omitempty"`
	URL string `json:"url,omitempty"`

	Media    []Media   `json:"media,omitempty"`
	Card     *Card     `json:"card,omitempty"`
	Mentions []Mention `json:"mentions,omitempty"`
	Tags     []string  `json:"tags,omitempty"`

	// Confirmed is false only for locally synthesized optimistic posts that
	// have not yet been re-fetched from the server.
	Confirmed bool `json:"confirmed"`
}

// NotificationType enumerates canonical notification kinds.
type NotificationType string

const (
	NotifyLike    NotificationType = "like"
	NotifyRepost  NotificationType = "repost"
	NotifyFollow  NotificationType = "follow"
	NotifyMention NotificationType = "mention"
	NotifyReply   NotificationType = "reply"
	NotifyQuote   NotificationType = "quote"
)

// Notification is the canonical notification representation.
// Subject may be nil or partial (reference-only) until hydrated.
type Notification struct {
	ID        string           `json:"id"`
	Protocol  Protocol         `json:"protocol"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	Actor     Account          `json:"actor"`
	SubjectID string           `json:"subject_id,omitempty"`
	Subject   *Status          `json:"subject,omitempty"`
	Read      bool             `json:"read"`
}

// Bookmark is a client-managed Bluesky bookmark. The protocol has no native
// bookmark primitive, so these live entirely locally and are never reconciled
// against server state.
type Bookmark struct {
	PostID       string    `json:"post_id"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}

// Relationship tracks the viewer's follow state toward another account.
// FollowRef is the Bluesky follow record URI needed to unfollow.
type Relationship struct {
	AccountID string `json:"account_id"`
	Following bool   `json:"following"`
	FollowRef string `json:"follow_ref,omitempty"`
}

// Draft is the input to compose/edit operations.
type Draft struct {
	Text        string
	ReplyToID   string
	Visibility  string
	Sensitive   bool
	SpoilerText string
	Language    string
	MediaIDs    []string
}
