package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ResumeParams are the writable fields of a resume.
type ResumeParams struct {
	Title  string   `json:"title"`
	About  string   `json:"about"`
	Skills []string `json:"skills,omitempty"`
	Links  []string `json:"links,omitempty"`
	Status string   `json:"status,omitempty"`
}

// ListResumes returns published resumes, optionally filtered by tag.
func (c *Client) ListResumes(ctx context.Context, tags ...string) ([]Resume, error) {
	path := "/resumes"
	if len(tags) > 0 {
		q := url.Values{"tags": tags}
		path += "?" + q.Encode()
	}
	var res struct {
		OK    bool     `json:"ok"`
		Items []Resume `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, fmt.Errorf("listing resumes: %w", err)
	}
	return res.Items, nil
}

// MyResumes returns the resumes belonging to the current user.
func (c *Client) MyResumes(ctx context.Context) ([]Resume, error) {
	var res struct {
		OK    bool     `json:"ok"`
		Items []Resume `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/resumes/my", nil, &res); err != nil {
		return nil, fmt.Errorf("listing own resumes: %w", err)
	}
	return res.Items, nil
}

// GetResume fetches one resume by id.
func (c *Client) GetResume(ctx context.Context, resumeID string) (*Resume, error) {
	var res struct {
		OK     bool   `json:"ok"`
		Resume Resume `json:"resume"`
	}
	if err := c.do(ctx, http.MethodGet, "/resumes/"+url.PathEscape(resumeID), nil, &res); err != nil {
		return nil, fmt.Errorf("fetching resume %s: %w", resumeID, err)
	}
	return &res.Resume, nil
}

// CreateResume creates a resume and returns its id.
func (c *Client) CreateResume(ctx context.Context, params ResumeParams) (string, error) {
	var res struct {
		OK       bool   `json:"ok"`
		ResumeID string `json:"resumeId"`
	}
	if err := c.do(ctx, http.MethodPost, "/resumes", params, &res); err != nil {
		return "", fmt.Errorf("creating resume: %w", err)
	}
	return res.ResumeID, nil
}

// UpdateResume applies partial changes to an owned resume.
func (c *Client) UpdateResume(ctx context.Context, resumeID string, params ResumeParams) error {
	if err := c.do(ctx, http.MethodPatch, "/resumes/"+url.PathEscape(resumeID), params, nil); err != nil {
		return fmt.Errorf("updating resume %s: %w", resumeID, err)
	}
	return nil
}

// DeleteResume removes an owned resume.
func (c *Client) DeleteResume(ctx context.Context, resumeID string) error {
	if err := c.do(ctx, http.MethodDelete, "/resumes/"+url.PathEscape(resumeID), nil, nil); err != nil {
		return fmt.Errorf("deleting resume %s: %w", resumeID, err)
	}
	return nil
}
