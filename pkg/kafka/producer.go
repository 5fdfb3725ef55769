package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/tradepost/cardrail/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ListingEvent represents an event about a listing or its card. Messages are
// keyed by canonical key so downstream consumers see all listings for the
// same physical card on one partition; card-level events fall back to the
// card id.
type ListingEvent struct {
	EventType    string          `json:"event_type"` // listing.created, card.created, ingest.completed
	Marketplace  string          `json:"marketplace"`
	CardID       string          `json:"card_id"`
	ListingID    string          `json:"listing_id,omitempty"`
	CanonicalKey string          `json:"canonical_key,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

func (e *ListingEvent) message(topic string) (kafka.Message, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}

	key := e.CanonicalKey
	if key == "" {
		key = e.CardID
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "marketplace", Value: []byte(e.Marketplace)},
		},
	}, nil
}

// PublishListingEvent publishes a listing event to Kafka
func (p *Producer) PublishListingEvent(ctx context.Context, event *ListingEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishListingEvent")
	defer span.End()

	msg, err := event.message(p.topic)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish listing event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"card_id":    event.CardID,
		"listing_id": event.ListingID,
	}).Debug("Published listing event")

	return nil
}
