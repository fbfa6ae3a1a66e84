package propagation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the shared REST transport for downstream context services. Each
// adapter owns its own Client so timeouts stay adapter-specific.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient creates a Client for one downstream base URL. The timeout bounds
// every call; an expired timeout is reported as a plain request failure and
// treated like any other adapter error.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// CreateJSON issues a POST. A remote 409 is tolerated: retried creates after
// a partial propagation run must not fail on "already exists".
func (c *Client) CreateJSON(ctx context.Context, path string, payload interface{}) error {
	status, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		return nil
	}
	return c.checkStatus(http.MethodPost, path, status)
}

// UpdateJSON issues a PUT.
func (c *Client) UpdateJSON(ctx context.Context, path string, payload interface{}) error {
	status, err := c.do(ctx, http.MethodPut, path, payload)
	if err != nil {
		return err
	}
	return c.checkStatus(http.MethodPut, path, status)
}

// UpsertJSON issues a PUT carrying the current state and falls back to a POST
// when the remote answers 404. Resync depends on the PUT-first ordering: a
// downstream already holding a stale context must converge on the current
// payload, and a POST there would be swallowed as an "already exists" 409.
func (c *Client) UpsertJSON(ctx context.Context, updatePath, createPath string, payload interface{}) error {
	status, err := c.do(ctx, http.MethodPut, updatePath, payload)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return c.CreateJSON(ctx, createPath, payload)
	}
	return c.checkStatus(http.MethodPut, updatePath, status)
}

// Delete issues a DELETE. A remote 404 is tolerated: retried deletes after a
// partial propagation run must not fail on "already gone".
func (c *Client) Delete(ctx context.Context, path string) error {
	status, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	return c.checkStatus(http.MethodDelete, path, status)
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.ServiceAccessToken(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to obtain service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	return resp.StatusCode, nil
}

func (c *Client) checkStatus(method, path string, status int) error {
	if status < 200 || status >= 300 {
		return fmt.Errorf("%s %s returned status %d", method, path, status)
	}
	return nil
}
