package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/cardrail/pkg/logging"
	"github.com/tradepost/cardrail/pkg/models"
)

type fakeRepo struct {
	mu     sync.Mutex
	due    []models.TrackedQuery
	dueErr error
	ran    map[string]time.Time
}

func (f *fakeRepo) Due(_ context.Context, _ time.Time) ([]models.TrackedQuery, error) {
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	return f.due, nil
}

func (f *fakeRepo) MarkRan(_ context.Context, id string, ranAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ran == nil {
		f.ran = make(map[string]time.Time)
	}
	f.ran[id] = ranAt
	return nil
}

type fakeScraper struct {
	mu    sync.Mutex
	items []models.RawItem
	err   error
	calls []string
}

func (f *fakeScraper) Scrape(_ context.Context, marketplace, query string, _ int) ([]models.RawItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, marketplace+"/"+query)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeIngester struct {
	mu       sync.Mutex
	requests []models.IngestRequest
	err      error
}

func (f *fakeIngester) Ingest(_ context.Context, req models.IngestRequest, _ bool) (*models.IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.IngestResult{
		CardID: "card-1",
		Summary: models.IngestSummary{
			Total:    len(req.Items),
			Accepted: len(req.Items),
		},
	}, nil
}

func newScheduler(repo *fakeRepo, scraper *fakeScraper, ingester *fakeIngester) *Scheduler {
	return NewScheduler(repo, scraper, ingester, nil, Config{
		PollInterval: time.Hour, // only the immediate run fires in tests
	}, logging.NewNop())
}

func TestScheduler_RunCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("should scrape, ingest and mark due queries as ran", func(t *testing.T) {
		repo := &fakeRepo{due: []models.TrackedQuery{
			{ID: "q1", Marketplace: "ebay", Query: "charizard psa 10"},
			{ID: "q2", Marketplace: "ebay", Query: "pikachu illustrator"},
		}}
		scraper := &fakeScraper{items: []models.RawItem{
			{"title": "Charizard", "url": "https://www.ebay.com/itm/306444665735"},
		}}
		ingester := &fakeIngester{}

		s := newScheduler(repo, scraper, ingester)
		s.RunCycle(ctx)

		assert.Equal(t, []string{"ebay/charizard psa 10", "ebay/pikachu illustrator"}, scraper.calls)
		require.Len(t, ingester.requests, 2)
		assert.Equal(t, "charizard psa 10", ingester.requests[0].Query)
		assert.Len(t, ingester.requests[0].Items, 1)
		assert.Contains(t, repo.ran, "q1")
		assert.Contains(t, repo.ran, "q2")
	})

	t.Run("should do nothing when no queries are due", func(t *testing.T) {
		repo := &fakeRepo{}
		scraper := &fakeScraper{}
		ingester := &fakeIngester{}

		s := newScheduler(repo, scraper, ingester)
		s.RunCycle(ctx)

		assert.Empty(t, scraper.calls)
		assert.Empty(t, ingester.requests)
	})

	t.Run("should not mark a query as ran when the scrape fails", func(t *testing.T) {
		repo := &fakeRepo{due: []models.TrackedQuery{
			{ID: "q1", Marketplace: "ebay", Query: "charizard"},
		}}
		scraper := &fakeScraper{err: errors.New("upstream down")}
		ingester := &fakeIngester{}

		s := newScheduler(repo, scraper, ingester)
		s.RunCycle(ctx)

		assert.Empty(t, ingester.requests)
		assert.NotContains(t, repo.ran, "q1")
	})

	t.Run("should keep going when one query fails", func(t *testing.T) {
		repo := &fakeRepo{due: []models.TrackedQuery{
			{ID: "q1", Marketplace: "ebay", Query: "charizard"},
			{ID: "q2", Marketplace: "ebay", Query: "blastoise"},
		}}
		scraper := &fakeScraper{}
		ingester := &fakeIngester{err: errors.New("db unavailable")}

		s := newScheduler(repo, scraper, ingester)
		s.RunCycle(ctx)

		// Both queries were attempted even though ingest failed for each.
		assert.Len(t, scraper.calls, 2)
		assert.NotContains(t, repo.ran, "q1")
		assert.NotContains(t, repo.ran, "q2")
	})
}

func TestScheduler_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("should start and stop cleanly", func(t *testing.T) {
		repo := &fakeRepo{}
		s := newScheduler(repo, &fakeScraper{}, &fakeIngester{})

		require.NoError(t, s.Start(ctx))
		assert.True(t, s.IsRunning())

		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		require.NoError(t, s.Stop(stopCtx))
		assert.False(t, s.IsRunning())
	})

	t.Run("should refuse to start twice", func(t *testing.T) {
		s := newScheduler(&fakeRepo{}, &fakeScraper{}, &fakeIngester{})

		require.NoError(t, s.Start(ctx))
		assert.ErrorIs(t, s.Start(ctx), ErrSchedulerAlreadyRunning)

		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		require.NoError(t, s.Stop(stopCtx))
	})

	t.Run("should be a no-op to stop a scheduler that never started", func(t *testing.T) {
		s := newScheduler(&fakeRepo{}, &fakeScraper{}, &fakeIngester{})
		require.NoError(t, s.Stop(ctx))
	})
}
