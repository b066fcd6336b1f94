package client

import (
	"context"
	"fmt"
	"net/http"
)

// Subscription returns the premium subscription status of the current
// account.
func (c *Client) Subscription(ctx context.Context) (*SubscriptionStatus, error) {
	var res struct {
		OK bool `json:"ok"`
		SubscriptionStatus
	}
	if err := c.do(ctx, http.MethodGet, "/subscription/status", nil, &res); err != nil {
		return nil, fmt.Errorf("fetching subscription status: %w", err)
	}
	status := res.SubscriptionStatus
	return &status, nil
}
