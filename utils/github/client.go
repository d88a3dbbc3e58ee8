package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/eidosai/eidos/utils/config"
	"github.com/eidosai/eidos/utils/fileutil"
)

const (
	// MaxRetries is the number of retries after the first attempt
	MaxRetries = 3
	// RetryInitialInterval is the first backoff interval
	RetryInitialInterval = 500 * time.Millisecond
	// RetryMaxInterval caps a single backoff interval
	RetryMaxInterval = 10 * time.Second

	userAgent = "eidos-action"
)

// APIError is a non-2xx answer from the REST API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API returned %d: %s", e.StatusCode, e.Message)
}

// Client is a minimal REST client for issue comments
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	backoff func(ctx context.Context) backoff.BackOff
}

// NewClient creates a client for the given API base URL (https://api.github.com for github.com)
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = config.DefaultGitHubAPIURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		backoff: newRetryBackoff,
	}
}

func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInitialInterval
	b.MaxInterval = RetryMaxInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)
}

type commentRequest struct {
	Body string `json:"body"`
}

type commentResponse struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// CreateComment posts a comment on an issue and returns its ID
func (c *Client) CreateComment(ctx context.Context, repo string, issue int, body string) (int64, error) {
	path := fmt.Sprintf("/repos/%s/issues/%d/comments", repo, issue)
	var resp commentResponse
	if err := c.do(ctx, http.MethodPost, path, commentRequest{Body: body}, &resp); err != nil {
		return 0, fmt.Errorf("error creating comment on %s#%d: %w", repo, issue, err)
	}
	config.VerboseLog("Created comment %d on %s#%d", resp.ID, repo, issue)
	return resp.ID, nil
}

// UpdateComment replaces the body of an existing comment
func (c *Client) UpdateComment(ctx context.Context, repo string, commentID int64, body string) error {
	path := fmt.Sprintf("/repos/%s/issues/comments/%d", repo, commentID)
	if err := c.do(ctx, http.MethodPatch, path, commentRequest{Body: body}, nil); err != nil {
		return fmt.Errorf("error updating comment %d on %s: %w", commentID, repo, err)
	}
	config.VerboseLog("Updated comment %d on %s", commentID, repo)
	return nil
}

// do sends a JSON request, retrying network errors and 5xx answers
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		config.DebugLog("%s %s (attempt %d)", method, path, attempt)
		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := fileutil.ReadLimited(resp.Body, fileutil.MaxFileSize)
		if err != nil {
			return fmt.Errorf("error reading response: %w", err)
		}

		if resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
			if resp.StatusCode >= 500 {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return backoff.Permanent(fmt.Errorf("error decoding response: %w", err))
			}
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		config.VerboseLog("GitHub request %s %s failed, retrying in %s: %v", method, path, wait.Round(time.Millisecond), err)
	}
	return backoff.RetryNotify(operation, c.backoff(ctx), notify)
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(data))
}

// IsNotFound reports whether err is a 404 answer
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
