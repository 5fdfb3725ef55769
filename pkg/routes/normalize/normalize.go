package normalize

import (
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/normalizer"
)

// Register registers normalization routes
func Register(g *echo.Group) {
	g.POST("", Normalize)
}

// Normalize parses a single listing title without touching storage. Useful
// for debugging vocabulary coverage and confidence scoring.
func Normalize(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.NormalizeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Title) == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	ctx, norm, err := ectoinject.GetContext[*normalizer.Normalizer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "normalizer unavailable")
	}

	resp := norm.Normalize(ctx, req)

	return c.JSON(http.StatusOK, resp)
}
