package models

import (
	"time"
)

// Listing is an individual marketplace item record, unique within its card by
// the marketplace's own listing id. Column mapping lives in the listing
// repository's dao.
type Listing struct {
	ID              string           `json:"id"`
	CardID          string           `json:"card_id"`
	SourceListingID string           `json:"source_listing_id"`
	Title           string           `json:"title"`
	URL             string           `json:"url"`
	Price           *float64         `json:"price,omitempty"`
	Currency        *string          `json:"currency,omitempty"`
	Sold            bool             `json:"sold"`
	EndedAt         *time.Time       `json:"ended_at,omitempty"`
	CanonicalKey    string           `json:"canonical_key"`
	Parsed          ParsedAttributes `json:"parsed"`
	TitleConfidence float64          `json:"title_confidence"`
	Confidence      float64          `json:"confidence"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ListingListResponse is the response for listing a card's listings
type ListingListResponse struct {
	Items      []Listing `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}
