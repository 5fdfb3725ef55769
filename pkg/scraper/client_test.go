package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/cardrail/pkg/logging"
)

func TestClient_Scrape(t *testing.T) {
	t.Run("should decode an items envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "ebay", r.URL.Query().Get("marketplace"))
			assert.Equal(t, "charizard", r.URL.Query().Get("query"))
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			w.Write([]byte(`{"items": [{"title": "Charizard", "itemId": "111"}]}`))
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"}, logging.NewNop())
		items, err := client.Scrape(context.Background(), "ebay", "charizard", 50)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Charizard", items[0]["title"])
	})

	t.Run("should surface non-2xx responses as errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(Config{BaseURL: server.URL}, logging.NewNop())
		_, err := client.Scrape(context.Background(), "ebay", "charizard", 0)
		assert.Error(t, err)
	})
}

func TestDecodeItems(t *testing.T) {
	t.Run("should decode a bare array", func(t *testing.T) {
		items, err := DecodeItems([]byte(`[{"title": "A"}, {"title": "B"}]`))
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("should decode a price_entries envelope", func(t *testing.T) {
		items, err := DecodeItems([]byte(`{"price_entries": [{"price": 10.5, "sold": true}]}`))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, true, items[0]["sold"])
	})

	t.Run("should skip bare numbers in a prices envelope", func(t *testing.T) {
		items, err := DecodeItems([]byte(`{"prices": [10.5, {"price": 12.0}], "average": 11.25}`))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 12.0, items[0]["price"])
	})

	t.Run("should reject a payload without an item list", func(t *testing.T) {
		_, err := DecodeItems([]byte(`{"ok": true}`))
		assert.Error(t, err)
	})

	t.Run("should reject non-json payloads", func(t *testing.T) {
		_, err := DecodeItems([]byte(`<html>`))
		assert.Error(t, err)
	})
}
