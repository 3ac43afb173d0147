package apiclient

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

	"github.com/dmitrymomot/garagedesk/pkg/notifications"
	"github.com/dmitrymomot/garagedesk/pkg/requestid"
)

// UserHeader carries the user identity supplied by the session layer.
const UserHeader = "X-User-ID"

// Client is the notifications REST client.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient sends requests through a copy of hc whose transport is
// wrapped to propagate request ids. hc itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	if hc == nil {
		panic("WithHTTPClient: nil client")
	}
	return func(c *Client) {
		cp := *hc
		if _, ok := cp.Transport.(requestid.Transport); !ok {
			cp.Transport = requestid.Transport{Base: cp.Transport}
		}
		c.httpClient = &cp
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithTimeout: duration must be > 0")
	}
	return func(c *Client) {
		cp := *c.httpClient
		cp.Timeout = d
		c.httpClient = &cp
	}
}

// New creates a new API client. Outgoing requests carry the request id from
// their context.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: requestid.Transport{},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForUser returns a copy of c that acts on behalf of userID.
func (c *Client) ForUser(userID string) *Client {
	cp := *c
	cp.userID = userID
	return &cp
}

// Remote is ForUser typed as notifications.Remote.
func (c *Client) Remote(userID string) notifications.Remote {
	return c.ForUser(userID)
}

// List fetches the notification history, newest first as the server orders it.
func (c *Client) List(ctx context.Context, opts notifications.ListOptions) ([]notifications.Notification, error) {
	params := url.Values{}
	params.Set("unreadOnly", strconv.FormatBool(opts.UnreadOnly))

	var raw json.RawMessage
	if err := c.get(ctx, "/notifications?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("apiclient.List: %w", err)
	}
	list, err := decodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("apiclient.List: %w", err)
	}
	for i := range list {
		list[i].Type = notifications.ParseType(string(list[i].Type))
		if list[i].Progress != nil {
			p := notifications.ClampProgress(*list[i].Progress)
			list[i].Progress = &p
		}
	}
	return list, nil
}

// UnreadCount returns the server's unread count. Both a bare integer and
// {"count": n} are accepted.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/notifications/unread-count", &raw); err != nil {
		return 0, fmt.Errorf("apiclient.UnreadCount: %w", err)
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var obj struct {
		Count *int `json:"count"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Count == nil {
		return 0, fmt.Errorf("apiclient.UnreadCount: unexpected body %s", truncate(raw))
	}
	return *obj.Count, nil
}

func (c *Client) MarkRead(ctx context.Context, id string) error {
	body := map[string]bool{"read": true}
	if err := c.doRequest(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", body, nil); err != nil {
		return fmt.Errorf("apiclient.MarkRead: %w", err)
	}
	return nil
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/notifications/mark-all-read", nil, nil); err != nil {
		return fmt.Errorf("apiclient.MarkAllRead: %w", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("apiclient.Delete: %w", err)
	}
	return nil
}

// decodeList accepts a bare array or an object wrapping it in
// "notifications" or "data".
func decodeList(raw json.RawMessage) ([]notifications.Notification, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var list []notifications.Notification
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Notifications []notifications.Notification `json:"notifications"`
		Data          []notifications.Notification `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if wrapped.Notifications != nil {
		return wrapped.Notifications, nil
	}
	return wrapped.Data, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set(UserHeader, c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(b []byte) string {
	const limit = 64
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
