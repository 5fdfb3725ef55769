package card

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

// Repository handles card (grouping record) persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new card repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert creates the card row for (marketplace, query) or returns the
// existing one. A single atomic INSERT...ON CONFLICT so concurrent ingests
// for the same pair cannot create two rows. The bool reports whether the row
// was newly inserted.
func (r *Repository) Upsert(ctx context.Context, marketplace, query string) (*models.Card, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "Upsert",
		"marketplace": marketplace,
		"query":       query,
	})

	now := time.Now().UTC()
	id := uuid.New().String()

	// The no-op DO UPDATE keeps RETURNING populated on conflict without
	// touching any stored field.
	upsert := `
		WITH upsert AS (
			INSERT INTO cards (id, marketplace, query, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (marketplace, query)
			DO UPDATE SET marketplace = EXCLUDED.marketplace
			RETURNING id, marketplace, query, created_at, (xmax = 0) AS inserted
		)
		SELECT * FROM upsert
	`

	var result struct {
		models.Card
		Inserted bool `db:"inserted"`
	}

	if err := r.db.GetContext(ctx, &result, upsert, id, marketplace, query, now); err != nil {
		log.WithError(err).Error("Failed to upsert card")
		return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert card")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Info("Created card")
	}

	return &result.Card, result.Inserted, nil
}

// Get retrieves a card by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Card, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "marketplace", "query", "created_at")
	sb.From("cards")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var card models.Card
	if err := r.db.GetContext(ctx, &card, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "card %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get card")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get card")
	}

	return &card, nil
}

// GetByKey retrieves a card by its (marketplace, query) identity
func (r *Repository) GetByKey(ctx context.Context, marketplace, query string) (*models.Card, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.GetByKey")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "marketplace", "query", "created_at")
	sb.From("cards")
	sb.Where(
		sb.Equal("marketplace", marketplace),
		sb.Equal("query", query),
	)
	sb.Limit(1)

	q, args := sb.Build()
	var card models.Card
	if err := r.db.GetContext(ctx, &card, q, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"marketplace": marketplace, "query": query}).Error("Failed to get card by key")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get card")
	}

	return &card, nil
}

// List returns cards ordered by creation time, newest first
func (r *Repository) List(ctx context.Context, page, pageSize int) (*models.CardListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "marketplace", "query", "created_at")
	sb.From("cards")
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var cards []models.Card
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list cards")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list cards")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM cards"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count cards")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count cards")
	}

	return &models.CardListResponse{
		Items:      cards,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Delete removes a card and its listings in one transaction
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "card.Repository.Delete")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	lb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	lb.DeleteFrom("listings")
	lb.Where(lb.Equal("card_id", id))
	query, args := lb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to delete card listings")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete card")
	}

	cb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	cb.DeleteFrom("cards")
	cb.Where(cb.Equal("id", id))
	query, args = cb.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to delete card")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete card")
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "card %s not found", id)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to commit card delete")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete card")
	}

	return nil
}
