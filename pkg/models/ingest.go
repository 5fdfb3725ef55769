package models

import "time"

// RawItem is one unvalidated record from a scrape payload. Field names vary
// by marketplace, so the shape stays loose until the resolver classifies it.
type RawItem map[string]any

// SkipReasonNoURLAndNoID marks items that carried neither a usable URL nor a
// usable source identifier.
const SkipReasonNoURLAndNoID = "no_url_and_no_id"

// SkipReasonPersistError marks items whose listing upsert failed after the
// card row was already in place.
const SkipReasonPersistError = "persist_error"

// ResolvedItem is a RawItem that passed validation: it always has a source
// listing id, and a URL when one could be found or synthesized.
type ResolvedItem struct {
	SourceListingID string     `json:"source_listing_id"`
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Price           *float64   `json:"price,omitempty"`
	Currency        *string    `json:"currency,omitempty"`
	Sold            bool       `json:"sold"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// IngestRequest is the request for ingesting a batch of raw items
type IngestRequest struct {
	Marketplace string    `json:"marketplace" validate:"required"`
	Query       string    `json:"query" validate:"required"`
	Items       []RawItem `json:"items"`
}

// IngestSummary is the aggregate outcome of one ingest call.
type IngestSummary struct {
	Total          int            `json:"total"`
	Accepted       int            `json:"accepted"`
	Skipped        int            `json:"skipped"`
	SkippedReasons map[string]int `json:"skippedReasons,omitempty"`
}

// IngestResult is the coordinator's return value. CardID is DryRunCardID for
// dry runs.
type IngestResult struct {
	CardID  string        `json:"card_id"`
	Summary IngestSummary `json:"ingestSummary"`
	Trace   []string      `json:"trace,omitempty"`
}

// IngestResponse is the response for an ingest call
type IngestResponse struct {
	OK      bool          `json:"ok"`
	CardID  string        `json:"card_id"`
	Summary IngestSummary `json:"ingestSummary"`
	Trace   []string      `json:"trace,omitempty"`
}
