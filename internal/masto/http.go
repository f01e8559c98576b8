package masto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPClient talks to one Mastodon-compatible server over its REST API.
type HTTPClient struct {
	base  *url.URL
	token string
	hc    *http.Client
}

// NewHTTPClient creates a client bound to a host and access token. Host may
// be given with or without the https:// scheme.
func NewHTTPClient(host, accessToken string) (*HTTPClient, error) {
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse host: %w", err)
	}
	return &HTTPClient{
		base:  base,
		token: accessToken,
		hc:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) (http.Header, error) {
	u := *c.base
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, &APIError{Code: resp.StatusCode, Message: apiErr.Error}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}

// timelinePath maps a timeline name to its endpoint. Local and federated
// share the public endpoint, distinguished by the local query parameter.
func timelinePath(name string) (path string, query url.Values) {
	query = url.Values{}
	switch {
	case name == "home":
		return "/api/v1/timelines/home", query
	case name == "local":
		query.Set("local", "true")
		return "/api/v1/timelines/public", query
	case name == "federated":
		return "/api/v1/timelines/public", query
	case name == "favourites":
		return "/api/v1/favourites", query
	case name == "bookmarks":
		return "/api/v1/bookmarks", query
	case strings.HasPrefix(name, "author:"):
		return "/api/v1/accounts/" + strings.TrimPrefix(name, "author:") + "/statuses", query
	default:
		// Hashtag and list timelines are addressed by their raw name.
		return "/api/v1/timelines/tag/" + name, query
	}
}

func (c *HTTPClient) FetchTimeline(ctx context.Context, timeline, pageToken string, limit int) (*TimelinePage, error) {
	path, query := timelinePath(timeline)
	if pageToken != "" {
		query.Set("max_id", pageToken)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var statuses []Status
	header, err := c.do(ctx, http.MethodGet, path, query, nil, &statuses)
	if err != nil {
		return nil, err
	}
	return &TimelinePage{Statuses: statuses, NextToken: ParseNextLink(header.Get("Link"))}, nil
}

func (c *HTTPClient) FetchStatus(ctx context.Context, id string) (*Status, error) {
	var s Status
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/statuses/"+id, nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) FetchStatusContext(ctx context.Context, id string) (*Context, error) {
	var thread Context
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/statuses/"+id+"/context", nil, nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *HTTPClient) FetchNotifications(ctx context.Context, pageToken string, limit int) (*NotificationPage, error) {
	query := url.Values{}
	if pageToken != "" {
		query.Set("max_id", pageToken)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var notifications []Notification
	header, err := c.do(ctx, http.MethodGet, "/api/v1/notifications", query, nil, &notifications)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{Notifications: notifications, NextToken: ParseNextLink(header.Get("Link"))}, nil
}

func (c *HTTPClient) PostStatus(ctx context.Context, form StatusForm) (*Status, error) {
	var s Status
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/statuses", nil, form, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) EditStatus(ctx context.Context, id string, form StatusForm) (*Status, error) {
	var s Status
	if _, err := c.do(ctx, http.MethodPut, "/api/v1/statuses/"+id, nil, form, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) DeleteStatus(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/statuses/"+id, nil, nil, nil)
	return err
}

func (c *HTTPClient) statusAction(ctx context.Context, id, action string) (*Status, error) {
	var s Status
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/statuses/"+id+"/"+action, nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Favourite(ctx context.Context, id string) (*Status, error) {
	return c.statusAction(ctx, id, "favourite")
}

func (c *HTTPClient) Unfavourite(ctx context.Context, id string) (*Status, error) {
	return c.statusAction(ctx, id, "unfavourite")
}

func (c *HTTPClient) Reblog(ctx context.Context, id string) (*Status, error) {
	return c.statusAction(ctx, id, "reblog")
}

func (c *HTTPClient) Unreblog(ctx context.Context, id string) (*Status, error) {
	return c.statusAction(ctx, id, "unreblog")
}

func (c *HTTPClient) Bookmark(ctx context.Context, id string) (*Status, error) {
	return c.statusAction(ctx, id, "bookmark")
}

func (c *HTTPClient) Unbookmark(ctx context.Context, id string) (*Status, error) {
	return c.statusAction(ctx, id, "unbookmark")
}

func (c *HTTPClient) Follow(ctx context.Context, accountID string) (*Relationship, error) {
	var rel Relationship
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/accounts/"+accountID+"/follow", nil, nil, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *HTTPClient) Unfollow(ctx context.Context, accountID string) (*Relationship, error) {
	var rel Relationship
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/accounts/"+accountID+"/unfollow", nil, nil, &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *HTTPClient) GetAccount(ctx context.Context, id string) (*Account, error) {
	var a Account
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/accounts/"+id, nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) GetRelationship(ctx context.Context, id string) (*Relationship, error) {
	query := url.Values{}
	query.Set("id[]", id)
	var rels []Relationship
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/accounts/relationships", query, nil, &rels); err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		return nil, &APIError{Code: http.StatusNotFound, Message: "relationship not found"}
	}
	return &rels[0], nil
}

var _ Client = (*HTTPClient)(nil)
