package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/cardrail/pkg/events"
	"github.com/tradepost/cardrail/pkg/logging"
	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/normalizer"
	"github.com/tradepost/cardrail/pkg/resolver"
)

type fakeCardStore struct {
	mu    sync.Mutex
	cards map[string]*models.Card
	fail  error
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: map[string]*models.Card{}}
}

func (s *fakeCardStore) Upsert(ctx context.Context, marketplace, query string) (*models.Card, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return nil, false, s.fail
	}

	key := marketplace + "|" + query
	if existing, ok := s.cards[key]; ok {
		return existing, false, nil
	}
	card := &models.Card{
		ID:          fmt.Sprintf("card-%d", len(s.cards)+1),
		Marketplace: marketplace,
		Query:       query,
	}
	s.cards[key] = card
	return card, true, nil
}

func (s *fakeCardStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

type fakeListingStore struct {
	mu       sync.Mutex
	listings map[string]*models.Listing
	failFor  map[string]error
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{
		listings: map[string]*models.Listing{},
		failFor:  map[string]error{},
	}
}

func (s *fakeListingStore) Upsert(ctx context.Context, listing *models.Listing) (*models.Listing, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failFor[listing.SourceListingID]; ok {
		return nil, false, err
	}

	key := listing.CardID + "|" + listing.SourceListingID
	if existing, ok := s.listings[key]; ok {
		return existing, false, nil
	}
	stored := *listing
	stored.ID = fmt.Sprintf("listing-%d", len(s.listings)+1)
	s.listings[key] = &stored
	return &stored, true, nil
}

func (s *fakeListingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listings)
}

func newCoordinator(cards CardStore, listings ListingStore) *Coordinator {
	logger := logging.NewNop()
	return NewCoordinator(cards, listings, normalizer.New(logger), resolver.New(logger), events.NopEmitter{}, logger, 4)
}

func TestCoordinator_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject a batch without marketplace or query", func(t *testing.T) {
		c := newCoordinator(newFakeCardStore(), newFakeListingStore())

		_, err := c.Ingest(ctx, models.IngestRequest{Marketplace: "", Query: "Test"}, false)
		assert.Error(t, err)

		_, err = c.Ingest(ctx, models.IngestRequest{Marketplace: "ebay", Query: "  "}, false)
		assert.Error(t, err)
	})

	t.Run("should ingest a single item end to end", func(t *testing.T) {
		cards := newFakeCardStore()
		listings := newFakeListingStore()
		c := newCoordinator(cards, listings)

		result, err := c.Ingest(ctx, models.IngestRequest{
			Marketplace: "ebay",
			Query:       "Test",
			Items:       []models.RawItem{{"title": "Test", "itemId": "306444665735"}},
		}, false)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Summary.Total)
		assert.Equal(t, 1, result.Summary.Accepted)
		assert.Equal(t, 0, result.Summary.Skipped)
		assert.Empty(t, result.Summary.SkippedReasons)
		assert.NotEmpty(t, result.CardID)

		assert.Equal(t, 1, cards.count())
		require.Equal(t, 1, listings.count())

		stored := listings.listings[result.CardID+"|306444665735"]
		require.NotNil(t, stored)
		assert.Equal(t, "https://www.ebay.com/itm/306444665735", stored.URL)
		assert.NotEmpty(t, stored.CanonicalKey)
	})

	t.Run("should be idempotent across repeated batches", func(t *testing.T) {
		cards := newFakeCardStore()
		listings := newFakeListingStore()
		c := newCoordinator(cards, listings)

		req := models.IngestRequest{
			Marketplace: "ebay",
			Query:       "Charizard",
			Items: []models.RawItem{
				{"title": "Charizard Base Set Holo PSA 9", "itemId": "111"},
				{"title": "Charizard Jungle", "itemId": "222"},
			},
		}

		first, err := c.Ingest(ctx, req, false)
		require.NoError(t, err)
		second, err := c.Ingest(ctx, req, false)
		require.NoError(t, err)

		assert.Equal(t, first.Summary.Accepted, second.Summary.Accepted)
		assert.Empty(t, second.Summary.SkippedReasons)
		assert.Equal(t, 2, listings.count())
		assert.Equal(t, 1, cards.count())
		assert.Equal(t, first.CardID, second.CardID)
	})

	t.Run("should treat duplicates within one batch as already satisfied", func(t *testing.T) {
		listings := newFakeListingStore()
		c := newCoordinator(newFakeCardStore(), listings)

		result, err := c.Ingest(ctx, models.IngestRequest{
			Marketplace: "ebay",
			Query:       "Dupes",
			Items: []models.RawItem{
				{"title": "Pikachu", "itemId": "999"},
				{"title": "Pikachu", "itemId": "999"},
			},
		}, false)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Summary.Accepted)
		assert.Equal(t, 1, listings.count())
	})

	t.Run("should skip items with neither url nor id", func(t *testing.T) {
		listings := newFakeListingStore()
		c := newCoordinator(newFakeCardStore(), listings)

		result, err := c.Ingest(ctx, models.IngestRequest{
			Marketplace: "ebay",
			Query:       "Bad",
			Items:       []models.RawItem{{"title": "Bad"}},
		}, false)
		require.NoError(t, err)

		assert.Equal(t, 0, result.Summary.Accepted)
		assert.Equal(t, 1, result.Summary.Skipped)
		assert.Equal(t, 1, result.Summary.SkippedReasons[models.SkipReasonNoURLAndNoID])
		assert.Equal(t, 0, listings.count())
	})

	t.Run("should not mutate anything in dry-run mode", func(t *testing.T) {
		cards := newFakeCardStore()
		listings := newFakeListingStore()
		c := newCoordinator(cards, listings)

		req := models.IngestRequest{
			Marketplace: "ebay",
			Query:       "Test",
			Items: []models.RawItem{
				{"title": "Test", "itemId": "306444665735"},
				{"title": "Bad"},
			},
		}

		for i := 0; i < 3; i++ {
			result, err := c.Ingest(ctx, req, true)
			require.NoError(t, err)
			assert.Equal(t, models.DryRunCardID, result.CardID)
			assert.Equal(t, 1, result.Summary.Accepted)
			assert.Equal(t, 1, result.Summary.Skipped)
			assert.Equal(t, 1, result.Summary.SkippedReasons[models.SkipReasonNoURLAndNoID])
		}

		assert.Equal(t, 0, cards.count())
		assert.Equal(t, 0, listings.count())

		// a real run on the same input reports the same counts
		real, err := c.Ingest(ctx, req, false)
		require.NoError(t, err)
		assert.Equal(t, 1, real.Summary.Accepted)
		assert.Equal(t, 1, real.Summary.Skipped)
	})

	t.Run("should abort the batch when the card upsert fails", func(t *testing.T) {
		cards := newFakeCardStore()
		cards.fail = errors.New("connection refused")
		listings := newFakeListingStore()
		c := newCoordinator(cards, listings)

		_, err := c.Ingest(ctx, models.IngestRequest{
			Marketplace: "ebay",
			Query:       "Test",
			Items:       []models.RawItem{{"itemId": "1"}},
		}, false)
		assert.Error(t, err)
		assert.Equal(t, 0, listings.count())
	})

	t.Run("should continue past individual listing failures", func(t *testing.T) {
		listings := newFakeListingStore()
		listings.failFor["bad-id"] = errors.New("deadlock detected")
		c := newCoordinator(newFakeCardStore(), listings)

		result, err := c.Ingest(ctx, models.IngestRequest{
			Marketplace: "ebay",
			Query:       "Partial",
			Items: []models.RawItem{
				{"title": "Good", "itemId": "good-id"},
				{"title": "Bad", "itemId": "bad-id"},
			},
		}, false)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Summary.Accepted)
		assert.Equal(t, 1, result.Summary.Skipped)
		assert.Equal(t, 1, result.Summary.SkippedReasons[models.SkipReasonPersistError])
		assert.Equal(t, 1, listings.count())
	})
}
