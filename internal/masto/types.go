// Package masto defines the wire shapes of the federated REST backend and the
// client capability the core consumes. The HTTP transport itself is an
// external collaborator; the core only depends on the Client interface.
package masto

// Account is a raw account object.
type Account struct {
	ID          string `json:"id"`
	Acct        string `json:"acct"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	URL         string `json:"url"`
}

// MediaAttachment is a raw media attachment.
type MediaAttachment struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	PreviewURL  string `json:"preview_url"`
	Description string `json:"description"`
}

// Card is a raw link preview card.
type Card struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Mention is a raw mention entry.
type Mention struct {
	ID   string `json:"id"`
	Acct string `json:"acct"`
}

// Tag is a raw hashtag entry.
type Tag struct {
	Name string `json:"name"`
}

// Status is a raw status object. Reblog is set when this entry is a boost
// wrapper around another status.
type Status struct {
	ID              string            `json:"id"`
	URI             string            `json:"uri"`
	URL             string            `json:"url"`
	CreatedAt       string            `json:"created_at"`
	EditedAt        string            `json:"edited_at,omitempty"`
	Account         *Account          `json:"account"`
	Content         string            `json:"content"`
	Visibility      string            `json:"visibility"`
	Language        string            `json:"language"`
	Sensitive       bool              `json:"sensitive"`
	SpoilerText     string            `json:"spoiler_text"`
	RepliesCount    int               `json:"replies_count"`
	ReblogsCount    int               `json:"reblogs_count"`
	FavouritesCount int               `json:"favourites_count"`
	Favourited      bool              `json:"favourited"`
	Reblogged       bool              `json:"reblogged"`
	Bookmarked      bool              `json:"bookmarked"`
	InReplyToID     string            `json:"in_reply_to_id,omitempty"`
	Reblog          *Status           `json:"reblog,omitempty"`
	Quote           *Status           `json:"quote,omitempty"`
	MediaAttachments []MediaAttachment `json:"media_attachments"`
	Card            *Card             `json:"card,omitempty"`
	Mentions        []Mention         `json:"mentions"`
	Tags            []Tag             `json:"tags"`
}

// Notification is a raw notification object.
type Notification struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"` // favourite, reblog, follow, mention, status, update
	CreatedAt string   `json:"created_at"`
	Account   *Account `json:"account"`
	Status    *Status  `json:"status,omitempty"`
}

// Context is the ancestors/descendants view around one status.
type Context struct {
	Ancestors   []Status `json:"ancestors"`
	Descendants []Status `json:"descendants"`
}

// Relationship is the viewer's relationship toward an account.
type Relationship struct {
	ID        string `json:"id"`
	Following bool   `json:"following"`
}

// StatusForm is the body of a post or edit call.
type StatusForm struct {
	Status      string   `json:"status"`
	InReplyToID string   `json:"in_reply_to_id,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
	Sensitive   bool     `json:"sensitive,omitempty"`
	SpoilerText string   `json:"spoiler_text,omitempty"`
	Language    string   `json:"language,omitempty"`
	MediaIDs    []string `json:"media_ids,omitempty"`
}

// TimelinePage is one page of a timeline fetch. NextToken is the opaque
// max-id token the transport extracted from the Link response header; empty
// means no further pages.
type TimelinePage struct {
	Statuses  []Status
	NextToken string
}

// NotificationPage is one page of a notification fetch.
type NotificationPage struct {
	Notifications []Notification
	NextToken     string
}
