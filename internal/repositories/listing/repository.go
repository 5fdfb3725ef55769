package listing

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/tradepost/cardrail/pkg/database"
	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/tracing"
)

// Repository handles listing persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new listing repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const listingColumns = "id, card_id, source_listing_id, title, url, price, currency, sold, ended_at, canonical_key, parsed, title_confidence, confidence, created_at"

// Upsert inserts the listing keyed on (card_id, source_listing_id). A repeat
// ingest of the same pair leaves the stored row untouched and returns it; the
// bool reports whether the row was newly inserted.
func (r *Repository) Upsert(ctx context.Context, listing *models.Listing) (*models.Listing, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":            "Upsert",
		"card_id":           listing.CardID,
		"source_listing_id": listing.SourceListingID,
	})

	now := time.Now().UTC()
	id := uuid.New().String()

	// No-op DO UPDATE so RETURNING works on conflict without refreshing any
	// stored field. Field-refresh-on-conflict would be a deliberate change,
	// not something to slip in here.
	upsert := `
		WITH upsert AS (
			INSERT INTO listings (` + listingColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (card_id, source_listing_id)
			DO UPDATE SET source_listing_id = EXCLUDED.source_listing_id
			RETURNING ` + listingColumns + `, (xmax = 0) AS inserted
		)
		SELECT * FROM upsert
	`

	var result struct {
		dao
		Inserted bool `db:"inserted"`
	}

	err := r.db.GetContext(ctx, &result, upsert,
		id, listing.CardID, listing.SourceListingID, listing.Title, listing.URL,
		listing.Price, listing.Currency, listing.Sold, listing.EndedAt,
		listing.CanonicalKey, database.JSONB[models.ParsedAttributes]{Data: listing.Parsed},
		listing.TitleConfidence, listing.Confidence, now,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert listing")
		return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert listing")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Info("Created listing")
	} else {
		log.WithFields(map[string]any{"id": result.ID}).Debug("Listing already present")
	}

	stored := result.dao.toModel()
	return &stored, result.Inserted, nil
}

// Get retrieves a listing by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "card_id", "source_listing_id", "title", "url", "price", "currency", "sold", "ended_at", "canonical_key", "parsed", "title_confidence", "confidence", "created_at")
	sb.From("listings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var row dao
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "listing %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get listing")
	}

	listing := row.toModel()
	return &listing, nil
}

// ListByCard returns a card's listings, newest first
func (r *Repository) ListByCard(ctx context.Context, cardID string, page, pageSize int) (*models.ListingListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.ListByCard")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "card_id", "source_listing_id", "title", "url", "price", "currency", "sold", "ended_at", "canonical_key", "parsed", "title_confidence", "confidence", "created_at")
	sb.From("listings")
	sb.Where(sb.Equal("card_id", cardID))
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var rows []dao
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"card_id": cardID}).Error("Failed to list listings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list listings")
	}

	listings := make([]models.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, row.toModel())
	}

	total, err := r.CountByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	return &models.ListingListResponse{
		Items:      listings,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// CountByCard returns the stored listing count for a card
func (r *Repository) CountByCard(ctx context.Context, cardID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.CountByCard")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("listings")
	sb.Where(sb.Equal("card_id", cardID))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"card_id": cardID}).Error("Failed to count listings")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count listings")
	}

	return count, nil
}
