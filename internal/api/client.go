// Package api implements the client for the remote article collection
// service: paged listing, full-text search, category counts, and the
// save/unsave toggle.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/smartbrief/internal/feed"
	"github.com/abelbrown/smartbrief/internal/otel"
)

const userAgent = "SmartBrief/1.0 (terminal reader)"

// maxBodySize caps response reads; a page of 100 articles is well under 1MB.
const maxBodySize = 1 << 20

// Options configures a Client.
type Options struct {
	BaseURL           string        // e.g. "http://localhost:8000/api/v1"
	APIKey            string        // optional, sent as X-API-Key
	Timeout           time.Duration // per-request; zero means 15s
	RequestsPerSecond float64       // rate limit; zero means 10/s
	Logger            *otel.Logger  // optional
}

// Client talks HTTP+JSON to the article service. Safe for concurrent use.
// It implements feed.Client.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *rate.Limiter
	log     *otel.Logger
}

var _ feed.Client = (*Client)(nil)

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 10
	}
	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		httpc:   &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		log:     opts.Logger,
	}
}

// ListArticles fetches one page of articles, optionally filtered by
// category, sorted server-side.
func (c *Client) ListArticles(ctx context.Context, q feed.ListQuery) (*feed.Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		params.Set("sort_order", q.SortOrder)
	}

	var list articleListJSON
	if err := c.getJSON(ctx, "/articles", params, &list); err != nil {
		return nil, err
	}
	return list.toFeed(), nil
}

// SearchArticles runs a full-text search. Results come back relevance-
// ordered; the feed core re-normalizes ordering on its side.
func (c *Client) SearchArticles(ctx context.Context, query string, page, pageSize int) (*feed.Page, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	var list articleListJSON
	if err := c.getJSON(ctx, "/articles/search", params, &list); err != nil {
		return nil, err
	}
	return list.toFeed(), nil
}

// ListCategories fetches all categories with article counts.
func (c *Client) ListCategories(ctx context.Context) ([]feed.Category, error) {
	var env categoriesEnvelopeJSON
	if err := c.getJSON(ctx, "/categories", nil, &env); err != nil {
		return nil, err
	}
	cats := make([]feed.Category, 0, len(env.Data))
	for _, cj := range env.Data {
		cats = append(cats, feed.Category{Name: cj.Name, Count: cj.Count})
	}
	return cats, nil
}

// SetSaved sets an article's saved flag to the exact desired value. Never
// retried: the request is not idempotent from the caller's point of view
// (a late duplicate could clobber a newer toggle), and the feed core rolls
// back on failure anyway.
func (c *Client) SetSaved(ctx context.Context, id string, saved bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(saveRequestJSON{Saved: saved})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u := c.baseURL + "/article/" + url.PathEscape(id) + "/save"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.emitError("/article/save", err)
		return fmt.Errorf("save article: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("save article: HTTP %d: %s", resp.StatusCode, errorDetail(data))
		c.emitError("/article/save", err)
		return err
	}

	var env saveEnvelopeJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if env.Data.Saved != saved {
		return fmt.Errorf("save article: service confirmed %v, wanted %v", env.Data.Saved, saved)
	}
	c.emit(otel.Event{Kind: otel.KindAPIRequest, Comp: "api", Msg: "/article/save", Dur: time.Since(start)})
	return nil
}

// getJSON performs a GET with rate limiting and bounded retries on 429 and
// 5xx (reads are idempotent). 4xx responses and parse failures are never
// retried.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	backoffs := []time.Duration{500 * time.Millisecond, 2 * time.Second}
	var lastErr error

	for attempt := 0; attempt <= len(backoffs); attempt++ {
		if attempt > 0 {
			c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindAPIRetry, Comp: "api", Msg: path, Count: attempt})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffs[attempt-1]):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		c.setHeaders(req)

		start := time.Now()
		resp, err := c.httpc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("GET %s: %w", path, err)
			continue
		}

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			c.emit(otel.Event{Kind: otel.KindAPIRequest, Comp: "api", Msg: path, Dur: time.Since(start)})
			return nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, errorDetail(data))
			continue

		default:
			err := fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, errorDetail(data))
			c.emitError(path, err)
			return err
		}
	}

	c.emitError(path, lastErr)
	return lastErr
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

func (c *Client) emit(e otel.Event) {
	if c.log != nil {
		c.log.Emit(e)
	}
}

func (c *Client) emitError(path string, err error) {
	if c.log != nil && err != nil {
		c.log.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindAPIError, Comp: "api", Msg: path, Err: err.Error()})
	}
}

// errorDetail extracts the service's error message from a response body,
// falling back to the raw body (truncated) when it isn't the standard
// error envelope.
func errorDetail(data []byte) string {
	var env envelopeJSON
	if err := json.Unmarshal(data, &env); err == nil && env.Message != "" {
		return env.Message
	}
	s := string(data)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
