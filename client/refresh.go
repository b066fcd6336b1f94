package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Refresh exchanges the transport-held refresh cookie for a new access
// token. At most one refresh round trip is outstanding process-wide;
// concurrent callers coalesce onto it and observe the same token or the
// same denial. The caller stores the returned token.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	v, err, _ := c.refreshFlight.Do("refresh", func() (any, error) {
		return c.refreshOnce(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refreshOnce(ctx context.Context) (string, error) {
	c.metrics.refresh()

	// The bearer header is attached for parity with the other product
	// clients; the cookie is the credential that matters.
	status, raw, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, c.session.AccessToken())
	if err != nil {
		c.metrics.refreshFailure()
		return "", fmt.Errorf("refresh: %w", err)
	}
	if status != http.StatusOK {
		c.metrics.refreshFailure()
		e := newRequestError(status, raw)
		return "", fmt.Errorf("%w: %v", ErrRefreshDenied, e)
	}

	var body struct {
		OK          bool   `json:"ok"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		c.metrics.refreshFailure()
		return "", fmt.Errorf("refresh: decoding response: %w", err)
	}
	if !body.OK || body.AccessToken == "" {
		c.metrics.refreshFailure()
		return "", fmt.Errorf("%w: response carried no token", ErrRefreshDenied)
	}
	return body.AccessToken, nil
}
