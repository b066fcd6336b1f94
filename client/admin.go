package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AdminListUsers returns all accounts. Requires an admin session; a
// non-admin token gets a plain 403 from the backend.
func (c *Client) AdminListUsers(ctx context.Context) ([]AdminUser, error) {
	var res struct {
		OK    bool        `json:"ok"`
		Items []AdminUser `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &res); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return res.Items, nil
}

// AdminGetUser returns one account.
func (c *Client) AdminGetUser(ctx context.Context, userID string) (*AdminUser, error) {
	var res struct {
		OK   bool      `json:"ok"`
		User AdminUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(userID), nil, &res); err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return &res.User, nil
}

// AdminBlockUser blocks an account.
func (c *Client) AdminBlockUser(ctx context.Context, userID string) error {
	path := "/admin/users/" + url.PathEscape(userID) + "/block"
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("blocking user %s: %w", userID, err)
	}
	return nil
}

// AdminUnblockUser unblocks an account.
func (c *Client) AdminUnblockUser(ctx context.Context, userID string) error {
	path := "/admin/users/" + url.PathEscape(userID) + "/unblock"
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("unblocking user %s: %w", userID, err)
	}
	return nil
}

// AdminDeleteUser removes an account.
func (c *Client) AdminDeleteUser(ctx context.Context, userID string) error {
	if err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(userID), nil, nil); err != nil {
		return fmt.Errorf("deleting user %s: %w", userID, err)
	}
	return nil
}
