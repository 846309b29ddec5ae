// Package client is a typed HTTP client for the beats API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sixtrece/beats-server/internal/domain"
	domainerrors "github.com/sixtrece/beats-server/internal/errors"
	"github.com/sixtrece/beats-server/internal/http/response"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "beatctl/1.0"
	maxBodyBytes   = 4 << 20
)

// Error is a failure reported by the API in its error envelope.
type Error struct {
	Status  int
	Code    domainerrors.Code
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// IsNotFound reports whether err is an API NOT_FOUND error.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == domainerrors.CodeNotFound
}

// Client talks to one beats server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListParams filters an item listing. Zero values are omitted so the
// server defaults apply.
type ListParams struct {
	Search string
	Genre  string
	Page   int
	Limit  int
}

// ListItems fetches one page of the catalog.
func (c *Client) ListItems(ctx context.Context, p ListParams) (*domain.ItemPage, error) {
	q := url.Values{}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	if p.Genre != "" {
		q.Set("genre", p.Genre)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	var page domain.ItemPage
	if err := c.do(ctx, http.MethodGet, "/api/items", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetItem fetches a single item.
func (c *Client) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	if err := c.do(ctx, http.MethodGet, "/api/items/"+strconv.FormatInt(id, 10), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Like adds a like to an item and returns the updated item.
func (c *Client) Like(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	path := "/api/items/" + strconv.FormatInt(id, 10) + "/like"
	if err := c.do(ctx, http.MethodPost, path, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Genres lists the distinct genres.
func (c *Client) Genres(ctx context.Context) ([]string, error) {
	var genres []string
	if err := c.do(ctx, http.MethodGet, "/api/genres", nil, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// Artists lists all artists.
func (c *Client) Artists(ctx context.Context) ([]domain.Artist, error) {
	var artists []domain.Artist
	if err := c.do(ctx, http.MethodGet, "/api/artists", nil, &artists); err != nil {
		return nil, err
	}
	return artists, nil
}

// Progress fetches the click counter.
func (c *Client) Progress(ctx context.Context) (*domain.Progress, error) {
	var p domain.Progress
	if err := c.do(ctx, http.MethodGet, "/api/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Click increments the click counter.
func (c *Client) Click(ctx context.Context) (*domain.Progress, error) {
	var p domain.Progress
	if err := c.do(ctx, http.MethodPost, "/api/click", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AssetURL resolves a server-relative asset ref ("/audio/x.mp3") against the
// server. Absolute URLs are returned unchanged.
func (c *Client) AssetURL(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

// envelope mirrors response.Envelope with the payload left undecoded.
type envelope struct {
	V       int               `json:"v"`
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Code    domainerrors.Code `json:"code"`
	Message string            `json:"message"`
	Details any               `json:"details"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &Error{
			Status:  resp.StatusCode,
			Code:    domainerrors.CodeInternal,
			Message: fmt.Sprintf("unexpected response: %s", resp.Status),
		}
	}

	if env.V != response.Version {
		return fmt.Errorf("unsupported envelope version %d", env.V)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		code := env.Code
		if code == "" {
			code = domainerrors.CodeInternal
		}
		return &Error{Status: resp.StatusCode, Code: code, Message: env.Message, Details: env.Details}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
