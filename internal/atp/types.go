// Package atp defines the wire shapes of the DID-addressed backend and the
// agent capability the core consumes. Session handling and record CRUD live
// in an external SDK; the core only depends on the Agent interface.
package atp

// Actor is a raw actor reference.
type Actor struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// RecordRef addresses one record by URI plus content hash.
type RecordRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ReplyRef links a reply record to its thread root and parent.
type ReplyRef struct {
	Root   RecordRef `json:"root"`
	Parent RecordRef `json:"parent"`
}

// ByteSlice is a byte-offset range into the UTF-8 encoding of record text.
type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// FacetFeature is one annotation attached to a byte range.
type FacetFeature struct {
	Type string `json:"$type"` // ...#mention, ...#tag, ...#link
	DID  string `json:"did,omitempty"`
	Tag  string `json:"tag,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// Facet annotates a byte range of the text with mention/tag/link features.
type Facet struct {
	Index    ByteSlice      `json:"index"`
	Features []FacetFeature `json:"features"`
}

// Record is the raw post record.
type Record struct {
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Reply     *ReplyRef `json:"reply,omitempty"`
	Facets    []Facet   `json:"facets,omitempty"`
	Langs     []string  `json:"langs,omitempty"`
}

// Label is a moderation label applied to a post.
type Label struct {
	Val string `json:"val"`
}

// ViewerState carries the requesting account's own mutation record URIs.
// A nil pointer means "not liked/reposted"; the URI is required to undo.
type ViewerState struct {
	Like   *string `json:"like,omitempty"`
	Repost *string `json:"repost,omitempty"`
}

// EmbedImage is one embedded image view.
type EmbedImage struct {
	Fullsize string `json:"fullsize"`
	Thumb    string `json:"thumb"`
	Alt      string `json:"alt"`
}

// EmbedExternal is an external link preview.
type EmbedExternal struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumb       string `json:"thumb,omitempty"`
}

// Embed is the hydrated embed view of a post.
type Embed struct {
	Images   []EmbedImage   `json:"images,omitempty"`
	External *EmbedExternal `json:"external,omitempty"`
	Record   *PostView      `json:"record,omitempty"` // quoted post
}

// PostView is the hydrated view of one post.
type PostView struct {
	URI         string       `json:"uri"`
	CID         string       `json:"cid"`
	Author      *Actor       `json:"author"`
	Record      Record       `json:"record"`
	ReplyCount  int          `json:"replyCount"`
	RepostCount int          `json:"repostCount"`
	LikeCount   int          `json:"likeCount"`
	IndexedAt   string       `json:"indexedAt"`
	Viewer      *ViewerState `json:"viewer,omitempty"`
	Labels      []Label      `json:"labels,omitempty"`
	Embed       *Embed       `json:"embed,omitempty"`
}

// ReasonRepost marks a feed item as a repost by another actor.
type ReasonRepost struct {
	By        Actor  `json:"by"`
	IndexedAt string `json:"indexedAt"`
}

// FeedReply carries the hydrated root and parent of a reply feed item.
type FeedReply struct {
	Root   *PostView `json:"root,omitempty"`
	Parent *PostView `json:"parent,omitempty"`
}

// FeedItem is one timeline entry: a post, optionally with reply context and
// a repost reason.
type FeedItem struct {
	Post   PostView      `json:"post"`
	Reply  *FeedReply    `json:"reply,omitempty"`
	Reason *ReasonRepost `json:"reason,omitempty"`
}

// FeedPage is one page of a feed fetch. Cursor comes back in the response
// body; empty means no further pages.
type FeedPage struct {
	Items  []FeedItem `json:"feed"`
	Cursor string     `json:"cursor,omitempty"`
}

// ThreadView is a recursive thread node.
type ThreadView struct {
	Post    *PostView    `json:"post"`
	Parent  *ThreadView  `json:"parent,omitempty"`
	Replies []ThreadView `json:"replies,omitempty"`
}

// Notification is one raw notification entry.
type Notification struct {
	URI           string `json:"uri"`
	CID           string `json:"cid"`
	Author        *Actor `json:"author"`
	Reason        string `json:"reason"` // like, repost, follow, mention, reply, quote
	ReasonSubject string `json:"reasonSubject,omitempty"`
	Record        Record `json:"record"`
	IndexedAt     string `json:"indexedAt"`
	IsRead        bool   `json:"isRead"`
}

// NotificationPage is one page of notifications.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Cursor        string         `json:"cursor,omitempty"`
}

// BlobRef references an uploaded blob.
type BlobRef struct {
	CID      string `json:"cid"`
	MimeType string `json:"mimeType"`
}
