package card

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/tradepost/cardrail/internal/repositories/card"
	"github.com/tradepost/cardrail/internal/repositories/listing"
)

// Register registers card routes
func Register(g *echo.Group) {
	g.GET("", ListCards)
	g.GET("/:id", GetCard)
	g.GET("/:id/listings", GetCardListings)
	g.DELETE("/:id", DeleteCard)
}

// ListCards lists tracked cards with pagination. When both marketplace and
// query parameters are present it looks up the single matching card instead.
func ListCards(c echo.Context) error {
	ctx := c.Request().Context()

	page, pageSize := pagination(c)

	ctx, repo, err := ectoinject.GetContext[*card.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	marketplace := c.QueryParam("marketplace")
	query := c.QueryParam("query")
	if marketplace != "" && query != "" {
		found, err := repo.GetByKey(ctx, marketplace, query)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, found)
	}

	cards, err := repo.List(ctx, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cards)
}

// GetCard gets a card by ID
func GetCard(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*card.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	found, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, found)
}

// GetCardListings lists the stored listings for a card
func GetCardListings(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	page, pageSize := pagination(c)

	// 404 on an unknown card rather than an empty list
	ctx, cards, err := ectoinject.GetContext[*card.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	if _, err := cards.Get(ctx, id); err != nil {
		return err
	}

	ctx, listings, err := ectoinject.GetContext[*listing.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := listings.ListByCard(ctx, id, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// DeleteCard deletes a card and its listings
func DeleteCard(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*card.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// pagination extracts page and page_size query parameters with defaults
func pagination(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 25
	}
	return page, pageSize
}
