package atp

import (
	"context"
	"fmt"
	"time"
)

// XRPCError is a failure reported by the backend, carrying a named code plus
// an HTTP-like status.
type XRPCError struct {
	Code    string
	Status  int
	Message string
}

func (e *XRPCError) Error() string {
	return fmt.Sprintf("xrpc error %s (%d): %s", e.Code, e.Status, e.Message)
}

// HTTPStatus implements errs.HTTPStatus.
func (e *XRPCError) HTTPStatus() int { return e.Status }

// Agent is the consumed capability for the DID-addressed backend, bound to
// one account's session by the session registry.
type Agent interface {
	GetTimeline(ctx context.Context, limit int, cursor string) (*FeedPage, error)
	GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*FeedPage, error)
	GetFeed(ctx context.Context, feedRef string, limit int, cursor string) (*FeedPage, error)
	GetPostThread(ctx context.Context, uri string, depth int) (*ThreadView, error)

	Post(ctx context.Context, record Record) (*RecordRef, error)
	DeletePost(ctx context.Context, uri string) error
	Like(ctx context.Context, subject RecordRef) (*RecordRef, error)
	DeleteLike(ctx context.Context, likeURI string) error
	Repost(ctx context.Context, subject RecordRef) (*RecordRef, error)
	DeleteRepost(ctx context.Context, repostURI string) error
	Follow(ctx context.Context, did string) (*RecordRef, error)
	DeleteFollow(ctx context.Context, followURI string) error

	GetProfile(ctx context.Context, actor string) (*Actor, error)
	ListNotifications(ctx context.Context, limit int, cursor string) (*NotificationPage, error)
	CountUnreadNotifications(ctx context.Context) (int, error)
	UpdateSeenNotifications(ctx context.Context, seenAt time.Time) error
	UploadBlob(ctx context.Context, data []byte, mimeType string) (*BlobRef, error)
}
