package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Apply submits a resume to a vacancy and returns the application id.
func (c *Client) Apply(ctx context.Context, vacancyID, resumeID, message string) (string, error) {
	body := map[string]string{
		"vacancyId": vacancyID,
		"resumeId":  resumeID,
		"message":   message,
	}
	var res struct {
		OK            bool   `json:"ok"`
		ApplicationID string `json:"applicationId"`
	}
	if err := c.do(ctx, http.MethodPost, "/applications", body, &res); err != nil {
		return "", fmt.Errorf("applying to vacancy %s: %w", vacancyID, err)
	}
	return res.ApplicationID, nil
}

// MyApplications returns the current user's submitted applications.
func (c *Client) MyApplications(ctx context.Context) ([]Application, error) {
	var res struct {
		OK    bool          `json:"ok"`
		Items []Application `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/applications/my", nil, &res); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return res.Items, nil
}

// ApplicationInbox returns the applications received by the current
// company account.
func (c *Client) ApplicationInbox(ctx context.Context) ([]Application, error) {
	var res struct {
		OK    bool          `json:"ok"`
		Items []Application `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/applications/inbox", nil, &res); err != nil {
		return nil, fmt.Errorf("listing application inbox: %w", err)
	}
	return res.Items, nil
}

// AcceptApplication marks a received application accepted.
func (c *Client) AcceptApplication(ctx context.Context, applicationID string) error {
	path := "/applications/" + url.PathEscape(applicationID) + "/accept"
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("accepting application %s: %w", applicationID, err)
	}
	return nil
}

// RejectApplication marks a received application rejected.
func (c *Client) RejectApplication(ctx context.Context, applicationID string) error {
	path := "/applications/" + url.PathEscape(applicationID) + "/reject"
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("rejecting application %s: %w", applicationID, err)
	}
	return nil
}
