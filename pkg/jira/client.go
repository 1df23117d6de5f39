package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	searchPath = "/rest/api/2/search"

	// pageSize is the number of issues requested per search page.
	pageSize = 100

	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond

	bearerPrefix = "bearer "
)

// Sentinel errors for the live client.
var (
	// ErrNoBaseURL indicates a client without a configured base URL.
	ErrNoBaseURL = errors.New("jira base URL is not configured")
	// ErrRequestFailed indicates a non-2xx response from the Jira API.
	ErrRequestFailed = errors.New("jira request failed")
)

// ClientConfig configures the live Jira REST client.
type ClientConfig struct {
	// BaseURL is the Jira instance root, e.g. https://jira.example.com.
	BaseURL string

	// User enables basic auth together with APIToken. When User is empty
	// the token is sent as a bearer Authorization header.
	User     string
	APIToken string

	// Timeout bounds each HTTP request. Zero uses a 10s default.
	Timeout time.Duration

	// MaxRetries is the number of attempts per request. Zero uses 3.
	MaxRetries int

	// Backoff is the initial retry delay, doubled per attempt. Zero uses
	// 500ms.
	Backoff time.Duration

	// Logger is optional; nil uses the slog default.
	Logger *slog.Logger
}

// Client fetches issues from a live Jira instance. Business rules live in
// pkg/flow; the client only retrieves and decodes.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	log  *slog.Logger
}

// NewClient creates a Jira REST client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// searchResponse is one page of the Jira search endpoint.
type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// SearchIssues fetches all issues for a project, with changelogs expanded.
// An empty jql defaults to all unresolved issues of the project.
func (c *Client) SearchIssues(ctx context.Context, projectKey, jql string) ([]Issue, error) {
	if c.cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	if jql == "" {
		jql = fmt.Sprintf("project=%s AND status!=Done", projectKey)
	}

	var all []Issue

	startAt := 0

	for {
		page, err := c.searchPage(ctx, jql, startAt)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Issues...)

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			return all, nil
		}
	}
}

func (c *Client) searchPage(ctx context.Context, jql string, startAt int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("expand", "changelog")
	q.Set("maxResults", strconv.Itoa(pageSize))
	q.Set("startAt", strconv.Itoa(startAt))

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + searchPath + "?" + q.Encode()

	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		page, err := c.doSearch(ctx, endpoint)
		if err == nil {
			return page, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("search issues: %w", ctx.Err())
		}

		c.log.Debug("jira request failed", "attempt", attempt, "error", err)

		if attempt < c.cfg.MaxRetries {
			backoff := c.cfg.Backoff << (attempt - 1)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("search issues: %w", ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("search issues after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

func (c *Client) doSearch(ctx context.Context, endpoint string) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &page, nil
}

func (c *Client) authorize(req *http.Request) {
	token := strings.TrimSpace(c.cfg.APIToken)
	if token == "" {
		return
	}

	switch {
	case strings.HasPrefix(strings.ToLower(token), bearerPrefix):
		req.Header.Set("Authorization", token)
	case c.cfg.User != "":
		req.SetBasicAuth(c.cfg.User, token)
	default:
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
