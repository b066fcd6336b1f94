package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// VacancyParams are the writable fields of a vacancy.
type VacancyParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// ListVacancies returns active vacancies, optionally filtered by tag.
// The listing is public; no token is needed.
func (c *Client) ListVacancies(ctx context.Context, tags ...string) ([]Vacancy, error) {
	path := "/vacancies"
	if len(tags) > 0 {
		q := url.Values{"tags": tags}
		path += "?" + q.Encode()
	}
	var res struct {
		OK    bool      `json:"ok"`
		Items []Vacancy `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, fmt.Errorf("listing vacancies: %w", err)
	}
	return res.Items, nil
}

// MyVacancies returns the vacancies of the current company account.
func (c *Client) MyVacancies(ctx context.Context) ([]Vacancy, error) {
	var res struct {
		OK    bool      `json:"ok"`
		Items []Vacancy `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/vacancies/my", nil, &res); err != nil {
		return nil, fmt.Errorf("listing own vacancies: %w", err)
	}
	return res.Items, nil
}

// GetVacancy fetches one vacancy by id.
func (c *Client) GetVacancy(ctx context.Context, vacancyID string) (*Vacancy, error) {
	var res struct {
		OK      bool    `json:"ok"`
		Vacancy Vacancy `json:"vacancy"`
	}
	if err := c.do(ctx, http.MethodGet, "/vacancies/"+url.PathEscape(vacancyID), nil, &res); err != nil {
		return nil, fmt.Errorf("fetching vacancy %s: %w", vacancyID, err)
	}
	return &res.Vacancy, nil
}

// CreateVacancy creates a vacancy and returns its id.
func (c *Client) CreateVacancy(ctx context.Context, params VacancyParams) (string, error) {
	var res struct {
		OK        bool   `json:"ok"`
		VacancyID string `json:"vacancyId"`
	}
	if err := c.do(ctx, http.MethodPost, "/vacancies", params, &res); err != nil {
		return "", fmt.Errorf("creating vacancy: %w", err)
	}
	return res.VacancyID, nil
}

// UpdateVacancy applies partial changes to an owned vacancy.
func (c *Client) UpdateVacancy(ctx context.Context, vacancyID string, params VacancyParams) error {
	if err := c.do(ctx, http.MethodPatch, "/vacancies/"+url.PathEscape(vacancyID), params, nil); err != nil {
		return fmt.Errorf("updating vacancy %s: %w", vacancyID, err)
	}
	return nil
}

// DeleteVacancy removes an owned vacancy.
func (c *Client) DeleteVacancy(ctx context.Context, vacancyID string) error {
	if err := c.do(ctx, http.MethodDelete, "/vacancies/"+url.PathEscape(vacancyID), nil, nil); err != nil {
		return fmt.Errorf("deleting vacancy %s: %w", vacancyID, err)
	}
	return nil
}
