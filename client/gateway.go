package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/devprozorov/unicorn/credstore"
)

// maxResponseBody caps how much of a response is buffered. API
// payloads are small JSON documents; anything larger is a bug upstream.
const maxResponseBody = 4 << 20

type callSettings struct {
	// noAuth skips attaching the bearer token (login, register).
	noAuth bool
	// noRetry makes a 401 a terminal answer instead of a refresh
	// trigger (the auth endpoints themselves).
	noRetry bool
}

type callOption func(*callSettings)

func noAuth() callOption {
	return func(s *callSettings) {
		s.noAuth = true
		s.noRetry = true
	}
}

func noRetry() callOption {
	return func(s *callSettings) { s.noRetry = true }
}

// do runs one logical API call: attach token, send, and on a 401 with
// an attached token refresh and resend exactly once. Never recursive.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...callOption) error {
	var settings callSettings
	for _, opt := range opts {
		opt(&settings)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	attached := ""
	if !settings.noAuth {
		attached = c.session.AccessToken()
	}

	status, raw, err := c.send(ctx, method, path, payload, attached)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && attached != "" && !settings.noRetry {
		return c.retryAfterRefresh(ctx, method, path, payload, attached, out)
	}
	return decode(status, raw, out)
}

// retryAfterRefresh handles the one permitted resend. On refresh denial
// it falls back to the persisted slot once (another process may have
// refreshed concurrently) before clearing the session.
func (c *Client) retryAfterRefresh(ctx context.Context, method, path string, payload []byte, staleToken string, out any) error {
	fresh, refreshErr := c.Refresh(ctx)
	if refreshErr == nil {
		c.setToken(ctx, fresh)
		c.metrics.retry()
		status, raw, err := c.send(ctx, method, path, payload, fresh)
		if err != nil {
			return err
		}
		return decode(status, raw, out)
	}

	c.logger.Debug("refresh failed; checking persisted slot", "error", refreshErr)
	if fallback := c.session.Tokens().Persisted(ctx); fallback != "" && fallback != staleToken {
		c.session.ReconcileExternal(ctx, credstore.Event{Token: fallback, Present: true})
		c.metrics.retry()
		status, raw, err := c.send(ctx, method, path, payload, fallback)
		if err != nil {
			return err
		}
		if status != http.StatusUnauthorized {
			c.expired.Store(false)
			return decode(status, raw, out)
		}
	}

	c.expireSession(ctx)
	return fmt.Errorf("%w: %w", ErrAuthExpired, refreshErr)
}

// send performs one HTTP round trip and buffers the response.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("building request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.metrics.request()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, fmt.Errorf("reading response of %s %s: %w", method, path, err)
	}
	return resp.StatusCode, raw, nil
}

func decode(status int, raw []byte, out any) error {
	if status < 200 || status >= 300 {
		return newRequestError(status, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
