package trackedquery

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/tradepost/cardrail/internal/repositories/trackedquery"
	"github.com/tradepost/cardrail/pkg/models"
)

var validate = validator.New()

// Register registers tracked query admin routes
func Register(g *echo.Group) {
	g.GET("", ListTrackedQueries)
	g.GET("/:id", GetTrackedQuery)
	g.POST("", CreateTrackedQuery)
	g.PUT("/:id", UpdateTrackedQuery)
	g.DELETE("/:id", DeleteTrackedQuery)
}

// ListTrackedQueries lists tracked queries with pagination
func ListTrackedQueries(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 25
	}

	ctx, repo, err := ectoinject.GetContext[*trackedquery.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	queries, err := repo.List(ctx, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, queries)
}

// GetTrackedQuery gets a tracked query by ID
func GetTrackedQuery(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*trackedquery.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	query, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, query)
}

// CreateTrackedQuery creates a new tracked query. Creating an existing
// (marketplace, query) pair returns the stored row.
func CreateTrackedQuery(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CreateTrackedQueryRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req.Marketplace = strings.TrimSpace(req.Marketplace)
	req.Query = strings.TrimSpace(req.Query)
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "marketplace and query are required and interval_minutes must not be negative")
	}

	ctx, repo, err := ectoinject.GetContext[*trackedquery.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	created, err := repo.Create(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// UpdateTrackedQuery updates a tracked query's interval or enabled flag
func UpdateTrackedQuery(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	var req models.UpdateTrackedQueryRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.IntervalMinutes == nil && req.Enabled == nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "interval_minutes must not be negative")
	}

	ctx, repo, err := ectoinject.GetContext[*trackedquery.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	updated, err := repo.Update(ctx, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteTrackedQuery deletes a tracked query
func DeleteTrackedQuery(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*trackedquery.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
