package masto

import (
	"context"
	"fmt"
)

// APIError is a failure reported by the backend, carrying its HTTP code.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// HTTPStatus implements errs.HTTPStatus.
func (e *APIError) HTTPStatus() int { return e.Code }

// Client is the consumed capability for the federated REST backend. A Client
// is already bound to one account's host and credentials by the session
// registry; methods return raw wire shapes.
type Client interface {
	FetchTimeline(ctx context.Context, timeline, pageToken string, limit int) (*TimelinePage, error)
	FetchStatus(ctx context.Context, id string) (*Status, error)
	FetchStatusContext(ctx context.Context, id string) (*Context, error)
	FetchNotifications(ctx context.Context, pageToken string, limit int) (*NotificationPage, error)

	PostStatus(ctx context.Context, form StatusForm) (*Status, error)
	EditStatus(ctx context.Context, id string, form StatusForm) (*Status, error)
	DeleteStatus(ctx context.Context, id string) error

	Favourite(ctx context.Context, id string) (*Status, error)
	Unfavourite(ctx context.Context, id string) (*Status, error)
	Reblog(ctx context.Context, id string) (*Status, error)
	Unreblog(ctx context.Context, id string) (*Status, error)
	Bookmark(ctx context.Context, id string) (*Status, error)
	Unbookmark(ctx context.Context, id string) (*Status, error)

	Follow(ctx context.Context, accountID string) (*Relationship, error)
	Unfollow(ctx context.Context, accountID string) (*Relationship, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetRelationship(ctx context.Context, id string) (*Relationship, error)
}
