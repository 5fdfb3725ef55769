package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/cardrail/pkg/logging"
	"github.com/tradepost/cardrail/pkg/models"
)

func TestResolver_Resolve(t *testing.T) {
	r := New(logging.NewNop())

	t.Run("should reject items with neither url nor id", func(t *testing.T) {
		_, reason := r.Resolve("ebay", models.RawItem{"title": "Bad"})
		assert.Equal(t, models.SkipReasonNoURLAndNoID, reason)
	})

	t.Run("should synthesize a url from a bare identifier", func(t *testing.T) {
		resolved, reason := r.Resolve("ebay", models.RawItem{"title": "Test", "itemId": "306444665735"})
		require.Empty(t, reason)
		assert.Equal(t, "306444665735", resolved.SourceListingID)
		assert.Equal(t, "https://www.ebay.com/itm/306444665735", resolved.URL)
	})

	t.Run("should round-trip a synthesized url back to the same identifier", func(t *testing.T) {
		resolved, reason := r.Resolve("ebay", models.RawItem{"itemId": "306444665735"})
		require.Empty(t, reason)

		again, reason := r.Resolve("ebay", models.RawItem{"url": resolved.URL})
		require.Empty(t, reason)
		assert.Equal(t, "306444665735", again.SourceListingID)
	})

	t.Run("should derive the identifier from the trailing path segment", func(t *testing.T) {
		resolved, reason := r.Resolve("ebay", models.RawItem{"url": "https://www.ebay.com/itm/charizard-psa9"})
		require.Empty(t, reason)
		assert.Equal(t, "charizard-psa9", resolved.SourceListingID)
	})

	t.Run("should honor the alias priority order", func(t *testing.T) {
		resolved, reason := r.Resolve("ebay", models.RawItem{
			"source_listing_id": "primary",
			"id":                "secondary",
			"permalink":         "https://www.ebay.com/itm/999",
			"url":               "https://www.ebay.com/itm/111",
		})
		require.Empty(t, reason)
		assert.Equal(t, "primary", resolved.SourceListingID)
		assert.Equal(t, "https://www.ebay.com/itm/111", resolved.URL)
	})

	t.Run("should format numeric identifiers without an exponent", func(t *testing.T) {
		resolved, reason := r.Resolve("ebay", models.RawItem{"id": float64(306444665735)})
		require.Empty(t, reason)
		assert.Equal(t, "306444665735", resolved.SourceListingID)
	})

	t.Run("should accept id-only items for unknown marketplaces without a url", func(t *testing.T) {
		resolved, reason := r.Resolve("cardmarket", models.RawItem{"id": "abc-123"})
		require.Empty(t, reason)
		assert.Equal(t, "abc-123", resolved.SourceListingID)
		assert.Empty(t, resolved.URL)
	})

	t.Run("should carry price, currency and sold through", func(t *testing.T) {
		resolved, reason := r.Resolve("ebay", models.RawItem{
			"id":    "1",
			"price": 129.99,
			"sold":  true,
		})
		require.Empty(t, reason)
		require.NotNil(t, resolved.Price)
		assert.Equal(t, 129.99, *resolved.Price)
		require.NotNil(t, resolved.Currency)
		assert.Equal(t, "USD", *resolved.Currency)
		assert.True(t, resolved.Sold)
	})

	t.Run("should parse string prices", func(t *testing.T) {
		resolved, reason := r.Resolve("ebay", models.RawItem{"id": "1", "price": "$1,234.56"})
		require.Empty(t, reason)
		require.NotNil(t, resolved.Price)
		assert.Equal(t, 1234.56, *resolved.Price)
	})
}

func TestCanonicalizeURL(t *testing.T) {
	t.Run("should strip tracking parameters and fragments", func(t *testing.T) {
		canonical := CanonicalizeURL("https://www.ebay.com/itm/123?mkcid=1&utm_source=feed&foo=bar#top")
		assert.Equal(t, "https://www.ebay.com/itm/123?foo=bar", canonical)
	})

	t.Run("should normalize scheme and host", func(t *testing.T) {
		canonical := CanonicalizeURL("http://EBAY.com/itm/123")
		assert.Equal(t, "https://www.ebay.com/itm/123", canonical)
	})

	t.Run("should resolve decorated and clean urls to the same identifier", func(t *testing.T) {
		clean := CanonicalizeURL("https://www.ebay.com/itm/306444665735")
		decorated := CanonicalizeURL("https://www.ebay.com/itm/306444665735?mkevt=1&campid=5338")
		assert.Equal(t, idFromURL(clean), idFromURL(decorated))
	})

	t.Run("should pass through unparseable input", func(t *testing.T) {
		assert.Equal(t, "not a url", CanonicalizeURL("not a url"))
	})
}
