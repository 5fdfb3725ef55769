package ingest

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/tradepost/cardrail/pkg/ingest"
	"github.com/tradepost/cardrail/pkg/models"
)

var validate = validator.New()

// IngestRequest is the request body for an ingest batch
type IngestRequest struct {
	Marketplace string           `json:"marketplace" validate:"required"`
	Query       string           `json:"query" validate:"required"`
	Items       []models.RawItem `json:"items"`
	DryRun      bool             `json:"dry_run"`
}

// Register registers ingest routes
func Register(g *echo.Group) {
	g.POST("", Ingest)
}

// Ingest accepts a batch of raw marketplace items and runs them through the
// pipeline. With dry_run set nothing is persisted.
func Ingest(c echo.Context) error {
	ctx := c.Request().Context()

	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "marketplace and query are required")
	}

	// dry_run may also arrive as a query parameter
	if c.QueryParam("dry_run") == "true" {
		req.DryRun = true
	}

	ctx, coordinator, err := ectoinject.GetContext[*ingest.Coordinator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "ingest service unavailable")
	}

	result, err := coordinator.Ingest(ctx, models.IngestRequest{
		Marketplace: req.Marketplace,
		Query:       req.Query,
		Items:       req.Items,
	}, req.DryRun)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.IngestResponse{
		OK:      true,
		CardID:  result.CardID,
		Summary: result.Summary,
		Trace:   result.Trace,
	})
}
