package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ProfileParams are the writable profile fields.
type ProfileParams struct {
	DisplayName string   `json:"displayName,omitempty"`
	About       string   `json:"about,omitempty"`
	Location    string   `json:"location,omitempty"`
	Links       []string `json:"links,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Website     string   `json:"website,omitempty"`
}

// MyProfile fetches the current account's profile.
func (c *Client) MyProfile(ctx context.Context) (*Profile, error) {
	var res struct {
		OK      bool    `json:"ok"`
		Profile Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile/me", nil, &res); err != nil {
		return nil, fmt.Errorf("fetching own profile: %w", err)
	}
	return &res.Profile, nil
}

// GetProfile fetches the public profile of any user.
func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var res struct {
		OK      bool    `json:"ok"`
		Profile Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile/"+url.PathEscape(userID), nil, &res); err != nil {
		return nil, fmt.Errorf("fetching profile %s: %w", userID, err)
	}
	return &res.Profile, nil
}

// UpdateProfile applies partial changes to the current profile.
func (c *Client) UpdateProfile(ctx context.Context, params ProfileParams) error {
	if err := c.do(ctx, http.MethodPatch, "/profile/me", params, nil); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}
