package models

import "time"

// TrackedQuery is a (marketplace, query) pair the scheduler re-scrapes on an
// interval.
type TrackedQuery struct {
	ID              string     `json:"id" db:"id"`
	Marketplace     string     `json:"marketplace" db:"marketplace"`
	Query           string     `json:"query" db:"query"`
	IntervalMinutes int        `json:"interval_minutes" db:"interval_minutes"`
	Enabled         bool       `json:"enabled" db:"enabled"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty" db:"last_run_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateTrackedQueryRequest is the request for creating a tracked query
type CreateTrackedQueryRequest struct {
	Marketplace     string `json:"marketplace" validate:"required"`
	Query           string `json:"query" validate:"required"`
	IntervalMinutes int    `json:"interval_minutes" validate:"gte=0"`
	Enabled         *bool  `json:"enabled,omitempty"`
}

// UpdateTrackedQueryRequest is the request for updating a tracked query
type UpdateTrackedQueryRequest struct {
	IntervalMinutes *int  `json:"interval_minutes,omitempty" validate:"omitempty,gte=0"`
	Enabled         *bool `json:"enabled,omitempty"`
}

// TrackedQueryListResponse is the response for listing tracked queries
type TrackedQueryListResponse struct {
	Items      []TrackedQuery `json:"items"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}
