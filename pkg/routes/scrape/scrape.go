package scrape

import (
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/tradepost/cardrail/pkg/ingest"
	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/scraper"
)

// ScrapeNowRequest is the request body for an on-demand scrape
type ScrapeNowRequest struct {
	Marketplace string `json:"marketplace" validate:"required"`
	Query       string `json:"query" validate:"required"`
	MaxResults  int    `json:"max_results"`
	DryRun      bool   `json:"dry_run"`
}

// Register registers scrape routes
func Register(g *echo.Group) {
	g.POST("/now", ScrapeNow)
}

// ScrapeNow scrapes a marketplace query immediately and ingests the results,
// bypassing the scheduler.
func ScrapeNow(c echo.Context) error {
	ctx := c.Request().Context()

	var req ScrapeNowRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Marketplace) == "" || strings.TrimSpace(req.Query) == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "marketplace and query are required")
	}

	ctx, client, err := ectoinject.GetContext[*scraper.Client](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "scraper unavailable")
	}

	items, err := client.Scrape(ctx, req.Marketplace, req.Query, req.MaxResults)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadGateway, "scrape failed: "+err.Error())
	}

	ctx, coordinator, err := ectoinject.GetContext[*ingest.Coordinator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "ingest service unavailable")
	}

	result, err := coordinator.Ingest(ctx, models.IngestRequest{
		Marketplace: req.Marketplace,
		Query:       req.Query,
		Items:       items,
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
