package client

import "time"

// Resume is a job seeker's resume.
type Resume struct {
	ResumeID  string   `json:"resumeId"`
	UserID    string   `json:"userId"`
	Title     string   `json:"title"`
	About     string   `json:"about"`
	Skills    []string `json:"skills,omitempty"`
	Links     []string `json:"links,omitempty"`
	IsPremium bool     `json:"isPremium"`
	ColorCode string   `json:"colorCode,omitempty"`
	Status    string   `json:"status"` // active or hidden
}

// Vacancy is a job listing.
type Vacancy struct {
	VacancyID   string    `json:"vacancyId"`
	CompanyID   string    `json:"companyId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	IsPremium   bool      `json:"isPremium"`
	ColorCode   string    `json:"colorCode,omitempty"`
	Status      string    `json:"status"` // active or closed
	CreatedAt   time.Time `json:"createdAt"`
}

// Profile is the public profile of a user or company.
type Profile struct {
	UserID      string   `json:"userId"`
	Type        string   `json:"type"`
	DisplayName string   `json:"displayName"`
	About       string   `json:"about,omitempty"`
	Location    string   `json:"location,omitempty"`
	Links       []string `json:"links,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Website     string   `json:"website,omitempty"`
	AvatarURL   string   `json:"avatarUrl,omitempty"`
}

// Application is a user's application to a vacancy.
type Application struct {
	ApplicationID string `json:"applicationId"`
	VacancyID     string `json:"vacancyId"`
	ResumeID      string `json:"resumeId"`
	UserID        string `json:"userId"`
	CompanyID     string `json:"companyId"`
	Status        string `json:"status"` // pending, accepted or rejected
	Message       string `json:"message,omitempty"`
}

// SubscriptionStatus reports the premium subscription state.
type SubscriptionStatus struct {
	Active   bool       `json:"active"`
	EndDate  *time.Time `json:"endDate,omitempty"`
	DaysLeft int        `json:"daysLeft,omitempty"`
}

// AdminUser is an account as seen from the admin panel.
type AdminUser struct {
	UserID      string    `json:"userId"`
	Login       string    `json:"login"`
	DisplayName string    `json:"displayName"`
	Type        string    `json:"type"`
	Blocked     bool      `json:"blocked"`
	CreatedAt   time.Time `json:"createdAt"`
}
