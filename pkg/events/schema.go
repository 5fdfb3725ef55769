package events

import (
	"time"

	"github.com/tradepost/cardrail/pkg/models"
)

// EventType defines the type of event
type EventType string

const (
	// EventTypeCardCreated is emitted the first time a (marketplace, query)
	// pair is tracked
	EventTypeCardCreated EventType = "card.created"

	// EventTypeListingCreated is emitted when a listing row is first stored
	EventTypeListingCreated EventType = "listing.created"

	// EventTypeIngestCompleted is emitted at the end of every persisted batch
	EventTypeIngestCompleted EventType = "ingest.completed"
)

// CardCreatedEvent is the payload for card.created
type CardCreatedEvent struct {
	SchemaVersion string `json:"schema_version"`
	Marketplace   string `json:"marketplace"`
	Query         string `json:"query"`
}

// ListingCreatedEvent is the payload for listing.created
type ListingCreatedEvent struct {
	SchemaVersion   string   `json:"schema_version"`
	SourceListingID string   `json:"source_listing_id"`
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Price           *float64 `json:"price,omitempty"`
	Currency        *string  `json:"currency,omitempty"`
	CanonicalKey    string   `json:"canonical_key"`
	TitleConfidence float64  `json:"title_confidence"`
	Confidence      float64  `json:"confidence"`
}

// IngestCompletedEvent is the payload for ingest.completed
type IngestCompletedEvent struct {
	SchemaVersion string               `json:"schema_version"`
	Summary       models.IngestSummary `json:"summary"`
	CompletedAt   time.Time            `json:"completed_at"`
}
