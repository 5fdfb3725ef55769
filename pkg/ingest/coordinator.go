package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/tradepost/cardrail/pkg/events"
	"github.com/tradepost/cardrail/pkg/metrics"
	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/normalizer"
	"github.com/tradepost/cardrail/pkg/resolver"
	"github.com/tradepost/cardrail/pkg/tracing"
)

// CardStore upserts the grouping record for a (marketplace, query) pair. The
// bool reports whether the row was newly inserted.
type CardStore interface {
	Upsert(ctx context.Context, marketplace, query string) (*models.Card, bool, error)
}

// ListingStore upserts a listing keyed on (card_id, source_listing_id). A
// conflict returns the existing row untouched.
type ListingStore interface {
	Upsert(ctx context.Context, listing *models.Listing) (*models.Listing, bool, error)
}

// Coordinator runs the ingest pipeline: resolve, normalize, then idempotent
// card and listing upserts. Safe for concurrent use.
type Coordinator struct {
	cards       CardStore
	listings    ListingStore
	normalizer  *normalizer.Normalizer
	resolver    *resolver.Resolver
	emitter     events.Emitter
	logger      ectologger.Logger
	concurrency int
}

// NewCoordinator creates a new ingest coordinator. concurrency bounds how
// many listing upserts run at once per batch.
func NewCoordinator(
	cards CardStore,
	listings ListingStore,
	norm *normalizer.Normalizer,
	res *resolver.Resolver,
	emitter events.Emitter,
	logger ectologger.Logger,
	concurrency int,
) *Coordinator {
	if concurrency < 1 {
		concurrency = 4
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &Coordinator{
		cards:       cards,
		listings:    listings,
		normalizer:  norm,
		resolver:    res,
		emitter:     emitter,
		logger:      logger,
		concurrency: concurrency,
	}
}

// preparedItem is a resolved item plus its normalization output, ready to
// persist.
type preparedItem struct {
	resolved models.ResolvedItem
	parsed   models.ParsedAttributes
	key      string
	score    models.ConfidenceScore
}

// Ingest processes one batch. Rejected items are tallied by reason, never
// fatal. With dryRun set everything runs except persistence and the result
// carries the dry-run card id sentinel.
func (c *Coordinator) Ingest(ctx context.Context, req models.IngestRequest, dryRun bool) (*models.IngestResult, error) {
	ctx, span := tracing.StartSpan(ctx, "ingest.Coordinator.Ingest")
	defer span.End()

	marketplace := strings.TrimSpace(req.Marketplace)
	query := strings.TrimSpace(req.Query)
	if marketplace == "" || query == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "marketplace and query are required")
	}

	start := time.Now()
	defer func() {
		metrics.IngestDuration.WithLabelValues(marketplace).Observe(time.Since(start).Seconds())
	}()

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"marketplace": marketplace,
		"query":       query,
		"items":       len(req.Items),
		"dry_run":     dryRun,
	})

	result := &models.IngestResult{
		Summary: models.IngestSummary{
			Total:          len(req.Items),
			SkippedReasons: map[string]int{},
		},
	}

	prepared := make([]preparedItem, 0, len(req.Items))
	for _, item := range req.Items {
		resolved, reason := c.resolver.Resolve(marketplace, item)
		if reason != "" {
			result.Summary.SkippedReasons[reason]++
			result.Summary.Skipped++
			continue
		}

		norm := c.normalizer.Normalize(ctx, models.NormalizeRequest{
			Title:  resolved.Title,
			Price:  resolved.Price,
			ItemID: resolved.SourceListingID,
		})
		metrics.TitleParseConfidence.Observe(norm.Confidence.TitleParse)

		prepared = append(prepared, preparedItem{
			resolved: resolved,
			parsed:   norm.Attributes,
			key:      norm.CanonicalKey,
			score:    norm.Confidence,
		})
	}

	result.Trace = append(result.Trace, fmt.Sprintf("resolved %d of %d items", len(prepared), len(req.Items)))

	if dryRun {
		result.CardID = models.DryRunCardID
		result.Summary.Accepted = len(prepared)
		result.Trace = append(result.Trace, "dry run: no rows written")
		log.WithField("accepted", result.Summary.Accepted).Info("Completed dry-run ingest")
		return result, nil
	}

	card, cardInserted, err := c.cards.Upsert(ctx, marketplace, query)
	if err != nil {
		// a failed card upsert aborts the whole batch; listing identity is
		// scoped by card id
		log.WithError(err).Error("Failed to upsert card, aborting batch")
		metrics.IngestBatchesTotal.WithLabelValues(marketplace, "error").Inc()
		return nil, err
	}
	result.CardID = card.ID
	result.Trace = append(result.Trace, fmt.Sprintf("card %s ready (new=%t)", card.ID, cardInserted))

	if cardInserted {
		if err := c.emitter.EmitCardCreated(ctx, card); err != nil {
			log.WithError(err).Warn("Failed to emit card.created event")
		}
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, c.concurrency)
	)

	for _, item := range prepared {
		wg.Add(1)
		sem <- struct{}{}
		go func(item preparedItem) {
			defer wg.Done()
			defer func() { <-sem }()

			listing := &models.Listing{
				CardID:          card.ID,
				SourceListingID: item.resolved.SourceListingID,
				Title:           item.resolved.Title,
				URL:             item.resolved.URL,
				Price:           item.resolved.Price,
				Currency:        item.resolved.Currency,
				Sold:            item.resolved.Sold,
				EndedAt:         item.resolved.EndedAt,
				CanonicalKey:    item.key,
				Parsed:          item.parsed,
				TitleConfidence: item.score.TitleParse,
				Confidence:      item.score.Overall,
			}

			stored, inserted, err := c.listings.Upsert(ctx, listing)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				// per-item persistence failures don't abort the batch
				log.WithError(err).WithField("source_listing_id", item.resolved.SourceListingID).Error("Failed to upsert listing")
				result.Summary.SkippedReasons[models.SkipReasonPersistError]++
				result.Summary.Skipped++
				return
			}

			result.Summary.Accepted++
			if inserted {
				if err := c.emitter.EmitListingCreated(ctx, marketplace, stored); err != nil {
					log.WithError(err).WithField("listing_id", stored.ID).Warn("Failed to emit listing.created event")
				}
			}
		}(item)
	}
	wg.Wait()

	result.Trace = append(result.Trace, fmt.Sprintf("accepted %d, skipped %d", result.Summary.Accepted, result.Summary.Skipped))

	if err := c.emitter.EmitIngestCompleted(ctx, marketplace, card.ID, result.Summary); err != nil {
		log.WithError(err).Warn("Failed to emit ingest.completed event")
	}

	metrics.IngestBatchesTotal.WithLabelValues(marketplace, "success").Inc()
	metrics.IngestItemsTotal.WithLabelValues(marketplace, "accepted").Add(float64(result.Summary.Accepted))
	metrics.IngestItemsTotal.WithLabelValues(marketplace, "skipped").Add(float64(result.Summary.Skipped))

	log.WithFields(map[string]any{
		"accepted": result.Summary.Accepted,
		"skipped":  result.Summary.Skipped,
	}).Info("Completed ingest")

	return result, nil
}
