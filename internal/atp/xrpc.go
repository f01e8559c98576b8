package atp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// XRPCAgent talks to one PDS over XRPC. It creates a session on first use
// and refreshes the access token once when the server reports expiry.
type XRPCAgent struct {
	host string
	hc   *http.Client

	identifier string
	password   string

	mu         sync.Mutex
	did        string
	accessJwt  string
	refreshJwt string
}

// NewXRPCAgent creates an agent for a host, handle and app password.
func NewXRPCAgent(host, identifier, password string) *XRPCAgent {
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return &XRPCAgent{
		host:       strings.TrimSuffix(host, "/"),
		hc:         &http.Client{Timeout: 30 * time.Second},
		identifier: identifier,
		password:   password,
	}
}

// DID returns the session's DID, logging in first if needed.
func (a *XRPCAgent) DID(ctx context.Context) (string, error) {
	if err := a.ensureSession(ctx); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.did, nil
}

type sessionResponse struct {
	DID        string `json:"did"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

func (a *XRPCAgent) ensureSession(ctx context.Context) error {
	a.mu.Lock()
	have := a.accessJwt != ""
	a.mu.Unlock()
	if have {
		return nil
	}

	var sess sessionResponse
	err := a.call(ctx, http.MethodPost, "com.atproto.server.createSession", nil,
		map[string]string{"identifier": a.identifier, "password": a.password}, &sess, "")
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	a.mu.Lock()
	a.did = sess.DID
	a.accessJwt = sess.AccessJwt
	a.refreshJwt = sess.RefreshJwt
	a.mu.Unlock()
	return nil
}

func (a *XRPCAgent) refreshSession(ctx context.Context) error {
	a.mu.Lock()
	refresh := a.refreshJwt
	a.mu.Unlock()
	if refresh == "" {
		return &XRPCError{Code: "ExpiredToken", Status: http.StatusUnauthorized, Message: "no refresh token"}
	}

	var sess sessionResponse
	err := a.call(ctx, http.MethodPost, "com.atproto.server.refreshSession", nil, nil, &sess, refresh)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.did = sess.DID
	a.accessJwt = sess.AccessJwt
	a.refreshJwt = sess.RefreshJwt
	a.mu.Unlock()
	return nil
}

// call performs one raw XRPC request. An explicit token overrides the
// session access token (used for refresh calls).
func (a *XRPCAgent) call(ctx context.Context, method, nsid string, query url.Values, body, out any, token string) error {
	u := a.host + "/xrpc/" + nsid
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if token == "" {
		a.mu.Lock()
		token = a.accessJwt
		a.mu.Unlock()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var xerr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&xerr)
		return &XRPCError{Code: xerr.Error, Status: resp.StatusCode, Message: xerr.Message}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// do wraps call with session setup and a single expired-token retry.
func (a *XRPCAgent) do(ctx context.Context, method, nsid string, query url.Values, body, out any) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	err := a.call(ctx, method, nsid, query, body, out, "")
	var xerr *XRPCError
	if errors.As(err, &xerr) && xerr.Code == "ExpiredToken" {
		if rerr := a.refreshSession(ctx); rerr != nil {
			return err
		}
		return a.call(ctx, method, nsid, query, body, out, "")
	}
	return err
}

func pageQuery(limit int, cursor string) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return q
}

func (a *XRPCAgent) GetTimeline(ctx context.Context, limit int, cursor string) (*FeedPage, error) {
	var page FeedPage
	if err := a.do(ctx, http.MethodGet, "app.bsky.feed.getTimeline", pageQuery(limit, cursor), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *XRPCAgent) GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*FeedPage, error) {
	q := pageQuery(limit, cursor)
	q.Set("actor", actor)
	var page FeedPage
	if err := a.do(ctx, http.MethodGet, "app.bsky.feed.getAuthorFeed", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *XRPCAgent) GetFeed(ctx context.Context, feedRef string, limit int, cursor string) (*FeedPage, error) {
	q := pageQuery(limit, cursor)
	q.Set("feed", feedRef)
	var page FeedPage
	if err := a.do(ctx, http.MethodGet, "app.bsky.feed.getFeed", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *XRPCAgent) GetPostThread(ctx context.Context, uri string, depth int) (*ThreadView, error) {
	q := url.Values{}
	q.Set("uri", uri)
	q.Set("depth", strconv.Itoa(depth))
	var resp struct {
		Thread ThreadView `json:"thread"`
	}
	if err := a.do(ctx, http.MethodGet, "app.bsky.feed.getPostThread", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Thread, nil
}

// parseATURI splits at://did/collection/rkey.
func parseATURI(uri string) (repo, collection, rkey string, err error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return "", "", "", fmt.Errorf("not an at:// uri: %q", uri)
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed at:// uri: %q", uri)
	}
	return parts[0], parts[1], parts[2], nil
}

func (a *XRPCAgent) createRecord(ctx context.Context, collection string, record any) (*RecordRef, error) {
	did, err := a.DID(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"repo":       did,
		"collection": collection,
		"record":     record,
	}
	var ref RecordRef
	if err := a.do(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil, body, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (a *XRPCAgent) deleteRecord(ctx context.Context, uri, wantCollection string) error {
	repo, collection, rkey, err := parseATURI(uri)
	if err != nil {
		return err
	}
	if wantCollection != "" && collection != wantCollection {
		return fmt.Errorf("uri %q is not a %s record", uri, wantCollection)
	}
	body := map[string]any{
		"repo":       repo,
		"collection": collection,
		"rkey":       rkey,
	}
	return a.do(ctx, http.MethodPost, "com.atproto.repo.deleteRecord", nil, body, nil)
}

func (a *XRPCAgent) Post(ctx context.Context, record Record) (*RecordRef, error) {
	type postRecord struct {
		Type string `json:"$type"`
		Record
	}
	return a.createRecord(ctx, "app.bsky.feed.post", postRecord{Type: "app.bsky.feed.post", Record: record})
}

func (a *XRPCAgent) DeletePost(ctx context.Context, uri string) error {
	return a.deleteRecord(ctx, uri, "app.bsky.feed.post")
}

type subjectRecord struct {
	Type      string    `json:"$type"`
	Subject   RecordRef `json:"subject"`
	CreatedAt string    `json:"createdAt"`
}

func (a *XRPCAgent) Like(ctx context.Context, subject RecordRef) (*RecordRef, error) {
	return a.createRecord(ctx, "app.bsky.feed.like", subjectRecord{
		Type:      "app.bsky.feed.like",
		Subject:   subject,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *XRPCAgent) DeleteLike(ctx context.Context, likeURI string) error {
	return a.deleteRecord(ctx, likeURI, "app.bsky.feed.like")
}

func (a *XRPCAgent) Repost(ctx context.Context, subject RecordRef) (*RecordRef, error) {
	return a.createRecord(ctx, "app.bsky.feed.repost", subjectRecord{
		Type:      "app.bsky.feed.repost",
		Subject:   subject,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *XRPCAgent) DeleteRepost(ctx context.Context, repostURI string) error {
	return a.deleteRecord(ctx, repostURI, "app.bsky.feed.repost")
}

func (a *XRPCAgent) Follow(ctx context.Context, did string) (*RecordRef, error) {
	record := struct {
		Type      string `json:"$type"`
		Subject   string `json:"subject"`
		CreatedAt string `json:"createdAt"`
	}{
		Type:      "app.bsky.graph.follow",
		Subject:   did,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return a.createRecord(ctx, "app.bsky.graph.follow", record)
}

func (a *XRPCAgent) DeleteFollow(ctx context.Context, followURI string) error {
	return a.deleteRecord(ctx, followURI, "app.bsky.graph.follow")
}

func (a *XRPCAgent) GetProfile(ctx context.Context, actor string) (*Actor, error) {
	q := url.Values{}
	q.Set("actor", actor)
	var profile Actor
	if err := a.do(ctx, http.MethodGet, "app.bsky.actor.getProfile", q, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (a *XRPCAgent) ListNotifications(ctx context.Context, limit int, cursor string) (*NotificationPage, error) {
	var page NotificationPage
	if err := a.do(ctx, http.MethodGet, "app.bsky.notification.listNotifications", pageQuery(limit, cursor), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *XRPCAgent) CountUnreadNotifications(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := a.do(ctx, http.MethodGet, "app.bsky.notification.getUnreadCount", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (a *XRPCAgent) UpdateSeenNotifications(ctx context.Context, seenAt time.Time) error {
	body := map[string]string{"seenAt": seenAt.UTC().Format(time.RFC3339)}
	return a.do(ctx, http.MethodPost, "app.bsky.notification.updateSeen", nil, body, nil)
}

func (a *XRPCAgent) UploadBlob(ctx context.Context, data []byte, mimeType string) (*BlobRef, error) {
	if err := a.ensureSession(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	token := a.accessJwt
	a.mu.Unlock()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mimeType)

	resp, err := a.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var xerr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&xerr)
		return nil, &XRPCError{Code: xerr.Error, Status: resp.StatusCode, Message: xerr.Message}
	}
	var out struct {
		Blob struct {
			Ref struct {
				Link string `json:"$link"`
			} `json:"ref"`
			MimeType string `json:"mimeType"`
		} `json:"blob"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &BlobRef{CID: out.Blob.Ref.Link, MimeType: out.Blob.MimeType}, nil
}

var _ Agent = (*XRPCAgent)(nil)
