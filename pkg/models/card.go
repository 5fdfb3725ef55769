package models

import (
	"time"
)

// Card is the grouping record for a marketplace search. Every listing ingested
// for the same (marketplace, query) pair hangs off the same card row.
type Card struct {
	ID          string    `json:"id" db:"id"`
	Marketplace string    `json:"marketplace" db:"marketplace"`
	Query       string    `json:"query" db:"query"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DryRunCardID is returned as the card id for dry-run ingests, which never
// touch storage.
const DryRunCardID = "dry-run-simulation"

// CardListResponse is the response for listing cards
type CardListResponse struct {
	Items      []Card `json:"items"`
	TotalCount int    `json:"total_count"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}
