// Package events handles event emission for card and listing lifecycle changes
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/tradepost/cardrail/pkg/kafka"
	"github.com/tradepost/cardrail/pkg/metrics"
	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes lifecycle events. Emission failures are reported to the
// caller but are never fatal to an ingest.
type Emitter interface {
	EmitCardCreated(ctx context.Context, card *models.Card) error
	EmitListingCreated(ctx context.Context, marketplace string, listing *models.Listing) error
	EmitIngestCompleted(ctx context.Context, marketplace, cardID string, summary models.IngestSummary) error
}

// KafkaEmitter emits events through a Kafka producer
type KafkaEmitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewKafkaEmitter creates a new Kafka-backed emitter
func NewKafkaEmitter(producer *kafka.Producer, logger ectologger.Logger) *KafkaEmitter {
	return &KafkaEmitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitCardCreated emits a card.created event
func (e *KafkaEmitter) EmitCardCreated(ctx context.Context, card *models.Card) error {
	ctx, span := tracing.StartSpan(ctx, "events.KafkaEmitter.EmitCardCreated")
	defer span.End()

	data, _ := json.Marshal(CardCreatedEvent{
		SchemaVersion: SchemaVersion,
		Marketplace:   card.Marketplace,
		Query:         card.Query,
	})

	event := &kafka.ListingEvent{
		EventType:   string(EventTypeCardCreated),
		Marketplace: card.Marketplace,
		CardID:      card.ID,
		Data:        data,
	}

	return e.publish(ctx, event)
}

// EmitListingCreated emits a listing.created event keyed by the listing's
// canonical key
func (e *KafkaEmitter) EmitListingCreated(ctx context.Context, marketplace string, listing *models.Listing) error {
	ctx, span := tracing.StartSpan(ctx, "events.KafkaEmitter.EmitListingCreated")
	defer span.End()

	data, _ := json.Marshal(ListingCreatedEvent{
		SchemaVersion:   SchemaVersion,
		SourceListingID: listing.SourceListingID,
		Title:           listing.Title,
		URL:             listing.URL,
		Price:           listing.Price,
		Currency:        listing.Currency,
		CanonicalKey:    listing.CanonicalKey,
		TitleConfidence: listing.TitleConfidence,
		Confidence:      listing.Confidence,
	})

	event := &kafka.ListingEvent{
		EventType:    string(EventTypeListingCreated),
		Marketplace:  marketplace,
		CardID:       listing.CardID,
		ListingID:    listing.ID,
		CanonicalKey: listing.CanonicalKey,
		Data:         data,
	}

	return e.publish(ctx, event)
}

// EmitIngestCompleted emits an ingest.completed event with the batch summary
func (e *KafkaEmitter) EmitIngestCompleted(ctx context.Context, marketplace, cardID string, summary models.IngestSummary) error {
	ctx, span := tracing.StartSpan(ctx, "events.KafkaEmitter.EmitIngestCompleted")
	defer span.End()

	data, _ := json.Marshal(IngestCompletedEvent{
		SchemaVersion: SchemaVersion,
		Summary:       summary,
		CompletedAt:   time.Now().UTC(),
	})

	event := &kafka.ListingEvent{
		EventType:   string(EventTypeIngestCompleted),
		Marketplace: marketplace,
		CardID:      cardID,
		Data:        data,
	}

	return e.publish(ctx, event)
}

// publish sends the event and records the outcome
func (e *KafkaEmitter) publish(ctx context.Context, event *kafka.ListingEvent) error {
	if err := e.producer.PublishListingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", event.EventType)
		metrics.EventsPublishedTotal.WithLabelValues(event.EventType, "error").Inc()
		return err
	}
	metrics.EventsPublishedTotal.WithLabelValues(event.EventType, "success").Inc()
	return nil
}

// NopEmitter discards events. Used when Kafka is not configured and in tests.
type NopEmitter struct{}

func (NopEmitter) EmitCardCreated(ctx context.Context, card *models.Card) error { return nil }

func (NopEmitter) EmitListingCreated(ctx context.Context, marketplace string, listing *models.Listing) error {
	return nil
}

func (NopEmitter) EmitIngestCompleted(ctx context.Context, marketplace, cardID string, summary models.IngestSummary) error {
	return nil
}
