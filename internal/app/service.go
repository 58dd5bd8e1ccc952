// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/collegepath/internal/adapters/mq/queue"
	"github.com/okian/collegepath/internal/adapters/mq/worker"
	"github.com/okian/collegepath/internal/adapters/repository"
	"github.com/okian/collegepath/internal/domain/catalog"
	"github.com/okian/collegepath/internal/domain/dedupe"
	"github.com/okian/collegepath/internal/domain/model"
	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/internal/domain/scoring"
	"github.com/okian/collegepath/internal/domain/types"
	"github.com/okian/collegepath/pkg/logger"
	"github.com/okian/collegepath/pkg/metrics"
)

const (
	defaultQueueSize       = 1_024
	defaultDedupeSize      = 10_000
	defaultResultRetention = 15 * time.Minute
	defaultMaxBatchSize    = 500
	drainTimeout           = 30 * time.Second
)

// Service implements the API dependencies for the recommender.
type Service struct {
	mu sync.RWMutex

	// Synchronous path, usable without Start.
	catalog *catalog.Catalog
	scorer  *scoring.Scorer
	parser  *profile.Parser

	// Batch pipeline, built by Start.
	store   *repository.MemoryStore
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool

	// Configuration
	maxRecommendations int
	workerCount        int
	queueSize          int
	dedupeSize         int
	resultRetention    time.Duration
	maxBatchSize       int

	// Counters
	served           atomic.Int64
	invalid          atomic.Int64
	batchesSubmitted atomic.Int64

	started bool
	logger  logger.Logger
}

// New constructs a Service. Recommend, Colleges and College work right
// away; the batch API needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		maxRecommendations: scoring.DefaultTopN,
		workerCount:        runtime.NumCPU(),
		queueSize:          defaultQueueSize,
		dedupeSize:         defaultDedupeSize,
		resultRetention:    defaultResultRetention,
		maxBatchSize:       defaultMaxBatchSize,
		parser:             profile.NewParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	s.scorer = scoring.NewScorer(scoring.WithTopN(s.maxRecommendations))
	metrics.UpdateCatalogSize(s.catalog.Len())
	return s
}

// Start builds and starts the batch pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.store = repository.NewMemoryStore(ctx,
		repository.WithRetention(s.resultRetention),
		repository.WithMaxEntries(s.queueSize+s.dedupeSize),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.store,
		worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "recommendation service started",
		logger.Int("colleges", s.catalog.Len()),
		logger.Int("max_recommendations", s.maxRecommendations),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Duration("result_retention", s.resultRetention),
	)
	return nil
}

// Stop drains queued batches and shuts the pipeline down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping recommendation service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "recommendation service stopped")
}

// Recommend parses a student form and ranks the catalog for it.
func (s *Service) Recommend(ctx context.Context, form types.StudentForm) (types.Recommendation, error) {
	start := time.Now()

	p, err := s.parser.Parse(form)
	if err != nil {
		s.invalid.Add(1)
		var invalid *profile.InvalidInputError
		if errors.As(err, &invalid) {
			for field := range invalid.Fields {
				metrics.RecordInvalidInput(field)
			}
		}
		return types.Recommendation{}, err
	}

	scored, err := s.scorer.Recommend(p, s.catalog.All())
	if err != nil {
		return types.Recommendation{}, err
	}

	s.served.Add(1)
	metrics.RecordRecommendation(string(p.Stream), len(scored), float64(time.Since(start).Microseconds())/1000)
	for _, sc := range scored {
		metrics.RecordMatchScore(sc.Match)
	}
	return toRecommendation(p, scored), nil
}

// Colleges lists the catalog in order, optionally only those accepting stream.
func (s *Service) Colleges(_ context.Context, stream string) ([]types.College, error) {
	stream = strings.ToLower(strings.TrimSpace(stream))
	if stream == "" {
		return toColleges(s.catalog.All()), nil
	}
	st := model.Stream(stream)
	if !st.Valid() {
		return nil, &profile.InvalidInputError{Fields: map[string]string{
			"stream": "Must be one of: science, commerce, arts",
		}}
	}
	return toColleges(s.catalog.ForStream(st)), nil
}

// College returns one catalog entry.
func (s *Service) College(_ context.Context, id string) (types.College, error) {
	c, err := s.catalog.ByID(id)
	if err != nil {
		return types.College{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return toCollege(c), nil
}

// SubmitBatch queues forms for asynchronous scoring. A repeated requestID
// returns the original ticket together with ErrDuplicate. An empty
// requestID disables idempotency for the call.
func (s *Service) SubmitBatch(ctx context.Context, requestID string, forms []types.StudentForm) (types.BatchTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.BatchTicket{}, ErrNotStarted
	}
	switch {
	case len(forms) == 0:
		metrics.RecordBatchRejected("empty")
		return types.BatchTicket{}, ErrEmptyBatch
	case len(forms) > s.maxBatchSize:
		metrics.RecordBatchRejected("too_large")
		return types.BatchTicket{}, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(forms), s.maxBatchSize)
	}

	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	batchID := uuid.NewString()

	if existing, dup := s.deduper.Claim(ctx, requestID, batchID); dup {
		b, err := s.store.Get(ctx, existing)
		if err == nil {
			metrics.RecordBatchDuplicate()
			return b.BatchTicket, fmt.Errorf("%w: %s", ErrDuplicate, requestID)
		}
		// The earlier batch was evicted; treat this as a fresh submission.
		s.deduper.Release(ctx, requestID)
		s.deduper.Claim(ctx, requestID, batchID)
	}

	ticket := types.BatchTicket{
		BatchID:     batchID,
		RequestID:   requestID,
		Status:      types.BatchQueued,
		Items:       len(forms),
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, ticket); err != nil {
		s.deduper.Release(ctx, requestID)
		metrics.RecordBatchRejected("store_full")
		return types.BatchTicket{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
	}

	job := queue.Job{
		BatchID:     batchID,
		RequestID:   requestID,
		Forms:       append([]types.StudentForm(nil), forms...),
		SubmittedAt: ticket.SubmittedAt,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		_ = s.store.Delete(ctx, batchID)
		s.deduper.Release(ctx, requestID)
		metrics.RecordBatchRejected("backpressure")
		if errors.Is(err, queue.ErrFull) {
			return types.BatchTicket{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return types.BatchTicket{}, err
	}

	s.batchesSubmitted.Add(1)
	metrics.RecordBatchSubmitted()
	s.logger.Debug(ctx, "batch queued",
		logger.String("batch_id", batchID),
		logger.String("request_id", requestID),
		logger.Int("items", len(forms)))
	return ticket, nil
}

// Batch returns a batch and, once done, its results.
func (s *Service) Batch(ctx context.Context, id string) (types.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Batch{}, ErrNotStarted
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return types.Batch{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return b, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := types.Stats{
		CatalogSize:      s.catalog.Len(),
		Recommendations:  s.served.Load(),
		InvalidInputs:    s.invalid.Load(),
		BatchesSubmitted: s.batchesSubmitted.Load(),
		QueueCapacity:    s.queueSize,
		Workers:          s.workerCount,
	}
	if s.started {
		ctx := context.Background()
		st.BatchesCompleted = s.pool.Processed()
		st.QueueLen = s.queue.Len()
		st.StoredResults = s.store.Count(ctx)
		st.DedupeSize = s.deduper.Size()
		metrics.UpdateStoredResults(st.StoredResults)
	}
	return st
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
