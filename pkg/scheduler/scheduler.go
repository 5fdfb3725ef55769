// Package scheduler polls tracked queries and runs scrape/ingest cycles for
// the ones that are due.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/tradepost/cardrail/pkg/metrics"
	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/redis"
	"github.com/tradepost/cardrail/pkg/tracing"
)

var (
	// ErrSchedulerStopped is returned when the scheduler is stopped
	ErrSchedulerStopped = errors.New("scheduler stopped")

	// ErrSchedulerAlreadyRunning is returned when trying to start an already running scheduler
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
)

const (
	// DefaultPollInterval is the default interval between scheduling runs
	DefaultPollInterval = 30 * time.Second

	// DefaultLockTTL is the default TTL for distributed locks
	DefaultLockTTL = 60 * time.Second

	// DefaultMaxResults is the default number of items requested per scrape
	DefaultMaxResults = 50

	// LockKeyPrefix is the prefix for scheduler locks
	LockKeyPrefix = "scheduler:query:"
)

// TrackedQueryRepository defines the data access the scheduler needs
type TrackedQueryRepository interface {
	// Due returns all enabled tracked queries whose interval has elapsed
	Due(ctx context.Context, now time.Time) ([]models.TrackedQuery, error)

	// MarkRan records that a tracked query was executed
	MarkRan(ctx context.Context, id string, ranAt time.Time) error
}

// Scraper fetches raw marketplace listings for a query
type Scraper interface {
	Scrape(ctx context.Context, marketplace, query string, maxResults int) ([]models.RawItem, error)
}

// Ingester runs a batch of raw items through the ingest pipeline
type Ingester interface {
	Ingest(ctx context.Context, req models.IngestRequest, dryRun bool) (*models.IngestResult, error)
}

// Config holds configuration for the scheduler
type Config struct {
	// PollInterval is how often to check for due tracked queries
	PollInterval time.Duration

	// LockTTL is how long to hold a lock for a tracked query
	LockTTL time.Duration

	// MaxResults is the number of items requested per scrape
	MaxResults int
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		LockTTL:      DefaultLockTTL,
		MaxResults:   DefaultMaxResults,
	}
}

// Scheduler polls for due tracked queries and runs scrape cycles for them
type Scheduler struct {
	repo     TrackedQueryRepository
	scraper  Scraper
	ingester Ingester
	locker   *redis.Locker
	config   Config
	logger   ectologger.Logger

	// Coordination
	stopCh   chan struct{}
	stoppedC chan struct{}
	running  bool
	mu       sync.RWMutex
}

// NewScheduler creates a new scheduler. A nil locker disables distributed
// locking, which is fine for single-instance deployments and tests.
func NewScheduler(
	repo TrackedQueryRepository,
	scraper Scraper,
	ingester Ingester,
	locker *redis.Locker,
	config Config,
	logger ectologger.Logger,
) *Scheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultLockTTL
	}
	if config.MaxResults <= 0 {
		config.MaxResults = DefaultMaxResults
	}

	return &Scheduler{
		repo:     repo,
		scraper:  scraper,
		ingester: ingester,
		locker:   locker,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
		stoppedC: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "Scheduler.Start")
	defer span.End()

	s.logger.WithContext(ctx).Infof("Starting scheduler: poll_interval=%s max_results=%d",
		s.config.PollInterval, s.config.MaxResults)

	go s.pollLoop(ctx)

	s.logger.WithContext(ctx).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("Stopping scheduler...")

	close(s.stopCh)

	// Wait for graceful shutdown with timeout
	select {
	case <-s.stoppedC:
		s.logger.WithContext(ctx).Info("Scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WithContext(ctx).Warn("Scheduler shutdown timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// pollLoop continuously polls for due tracked queries
func (s *Scheduler) pollLoop(ctx context.Context) {
	defer close(s.stoppedC)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Run immediately on start
	s.RunCycle(ctx)

	for {
		select {
		case <-s.stopCh:
			s.logger.WithContext(ctx).Debug("Scheduler poll loop stopping")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle runs a single scheduling cycle over the currently due tracked
// queries.
func (s *Scheduler) RunCycle(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "Scheduler.RunCycle")
	defer span.End()

	start := time.Now()
	s.logger.WithContext(ctx).Debug("Running scheduling cycle")

	queries, err := s.repo.Due(ctx, time.Now().UTC())
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to list due tracked queries")
		return
	}

	if len(queries) == 0 {
		s.logger.WithContext(ctx).Debug("No tracked queries due")
		return
	}

	s.logger.WithContext(ctx).Infof("Found %d tracked queries due", len(queries))

	executed := 0
	skipped := 0
	for _, q := range queries {
		if err := s.runQuery(ctx, q); err != nil {
			if errors.Is(err, redis.ErrLockNotAcquired) {
				skipped++
				continue
			}
			s.logger.WithContext(ctx).WithError(err).Warnf("Failed to run tracked query %s (%s/%s)",
				q.ID, q.Marketplace, q.Query)
			metrics.ScheduledRunsTotal.WithLabelValues(q.Marketplace, "error").Inc()
			continue
		}
		executed++
		metrics.ScheduledRunsTotal.WithLabelValues(q.Marketplace, "success").Inc()
	}

	duration := time.Since(start)
	s.logger.WithContext(ctx).Infof("Scheduling cycle completed: executed=%d skipped=%d duration=%s",
		executed, skipped, duration)
}

// runQuery runs a single tracked query under its distributed lock
func (s *Scheduler) runQuery(ctx context.Context, q models.TrackedQuery) error {
	ctx, span := tracing.StartSpan(ctx, "Scheduler.runQuery")
	defer span.End()

	if s.locker == nil {
		return s.execute(ctx, q)
	}
	return s.locker.WithLock(ctx, s.lockKey(q), s.config.LockTTL, func() error {
		return s.execute(ctx, q)
	})
}

// execute scrapes, ingests, and marks the tracked query as ran
func (s *Scheduler) execute(ctx context.Context, q models.TrackedQuery) error {
	s.logger.WithContext(ctx).Debugf("Running tracked query %s (%s/%s)", q.ID, q.Marketplace, q.Query)

	items, err := s.scraper.Scrape(ctx, q.Marketplace, q.Query, s.config.MaxResults)
	if err != nil {
		return err
	}

	result, err := s.ingester.Ingest(ctx, models.IngestRequest{
		Marketplace: q.Marketplace,
		Query:       q.Query,
		Items:       items,
	}, false)
	if err != nil {
		return err
	}

	// A failed MarkRan means the query comes due again next cycle; the
	// idempotent ingest makes the re-run harmless.
	if err := s.repo.MarkRan(ctx, q.ID, time.Now().UTC()); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warnf("Failed to mark tracked query %s as ran", q.ID)
	}

	s.logger.WithContext(ctx).Infof("Tracked query %s ingested %d of %d items (skipped=%d)",
		q.ID, result.Summary.Accepted, result.Summary.Total, result.Summary.Skipped)

	return nil
}

// lockKey generates a lock key for a tracked query
func (s *Scheduler) lockKey(q models.TrackedQuery) string {
	return LockKeyPrefix + q.Marketplace + ":" + q.ID
}
