package trackedquery

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

// Repository handles tracked query persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new tracked query repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const columns = "id, marketplace, query, interval_minutes, enabled, last_run_at, created_at, updated_at"

// Create registers a (marketplace, query) pair for scheduled scraping.
// Re-registering an existing pair re-enables it and refreshes the interval.
func (r *Repository) Create(ctx context.Context, req models.CreateTrackedQueryRequest) (*models.TrackedQuery, error) {
	ctx, span := tracing.StartSpan(ctx, "trackedquery.Repository.Create")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"method":      "Create",
		"marketplace": req.Marketplace,
		"query":       req.Query,
	})

	now := time.Now().UTC()
	id := uuid.New().String()

	interval := req.IntervalMinutes
	if interval <= 0 {
		interval = 60
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	upsert := `
		WITH upsert AS (
			INSERT INTO tracked_queries (` + columns + `)
			VALUES ($1, $2, $3, $4, $5, NULL, $6, $6)
			ON CONFLICT (marketplace, query)
			DO UPDATE SET
				interval_minutes = EXCLUDED.interval_minutes,
				enabled = EXCLUDED.enabled,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + columns + `
		)
		SELECT * FROM upsert
	`

	var tq models.TrackedQuery
	if err := r.db.GetContext(ctx, &tq, upsert, id, req.Marketplace, req.Query, interval, enabled, now); err != nil {
		log.WithError(err).Error("Failed to create tracked query")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create tracked query")
	}

	log.WithFields(map[string]any{"id": tq.ID}).Info("Created tracked query")
	return &tq, nil
}

// Get retrieves a tracked query by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.TrackedQuery, error) {
	ctx, span := tracing.StartSpan(ctx, "trackedquery.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "marketplace", "query", "interval_minutes", "enabled", "last_run_at", "created_at", "updated_at")
	sb.From("tracked_queries")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var tq models.TrackedQuery
	if err := r.db.GetContext(ctx, &tq, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "tracked query %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get tracked query")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get tracked query")
	}

	return &tq, nil
}

// List returns tracked queries ordered by creation time
func (r *Repository) List(ctx context.Context, page, pageSize int) (*models.TrackedQueryListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "trackedquery.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "marketplace", "query", "interval_minutes", "enabled", "last_run_at", "created_at", "updated_at")
	sb.From("tracked_queries")
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var items []models.TrackedQuery
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list tracked queries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list tracked queries")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM tracked_queries"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count tracked queries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count tracked queries")
	}

	return &models.TrackedQueryListResponse{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Update changes a tracked query's interval or enabled flag
func (r *Repository) Update(ctx context.Context, id string, req models.UpdateTrackedQueryRequest) (*models.TrackedQuery, error) {
	ctx, span := tracing.StartSpan(ctx, "trackedquery.Repository.Update")
	defer span.End()

	now := time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("tracked_queries")
	assignments := []string{sb.Assign("updated_at", now)}
	if req.IntervalMinutes != nil {
		assignments = append(assignments, sb.Assign("interval_minutes", *req.IntervalMinutes))
	}
	if req.Enabled != nil {
		assignments = append(assignments, sb.Assign("enabled", *req.Enabled))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update tracked query")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update tracked query")
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "tracked query %s not found", id)
	}

	return r.Get(ctx, id)
}

// Delete removes a tracked query
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "trackedquery.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("tracked_queries")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to delete tracked query")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete tracked query")
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "tracked query %s not found", id)
	}

	return nil
}

// Due returns enabled queries whose interval has elapsed since their last run
func (r *Repository) Due(ctx context.Context, now time.Time) ([]models.TrackedQuery, error) {
	ctx, span := tracing.StartSpan(ctx, "trackedquery.Repository.Due")
	defer span.End()

	query := `
		SELECT ` + columns + `
		FROM tracked_queries
		WHERE enabled = TRUE
		  AND (last_run_at IS NULL OR last_run_at + (interval_minutes * INTERVAL '1 minute') <= $1)
		ORDER BY last_run_at NULLS FIRST
		LIMIT 50
	`

	var due []models.TrackedQuery
	if err := r.db.SelectContext(ctx, &due, query, now.UTC()); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find due tracked queries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find due tracked queries")
	}

	return due, nil
}

// MarkRan stamps a tracked query's last run time
func (r *Repository) MarkRan(ctx context.Context, id string, ranAt time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "trackedquery.Repository.MarkRan")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("tracked_queries")
	sb.Set(
		sb.Assign("last_run_at", ranAt.UTC()),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to mark tracked query as ran")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark tracked query as ran")
	}

	return nil
}
