package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/collegepath/internal/domain/types"
	"github.com/okian/collegepath/pkg/metrics"
)

const (
	defaultRetention     = 15 * time.Minute
	defaultSweepInterval = 30 * time.Second
	defaultMaxEntries    = 10_000
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is the in-memory Store. Finished batches are evicted once
// their retention expires or when the store is full, oldest first.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]*types.Batch

	retention     time.Duration
	sweepInterval time.Duration
	maxEntries    int
	now           func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store and starts its background sweeper, which
// runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		batches:       make(map[string]*types.Batch),
		retention:     defaultRetention,
		sweepInterval: defaultSweepInterval,
		maxEntries:    defaultMaxEntries,
		now:           time.Now,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.startSweeper(ctx)
	return s
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) Create(_ context.Context, ticket types.BatchTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[ticket.BatchID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, ticket.BatchID)
	}
	if len(s.batches) >= s.maxEntries && !s.evictOldestDoneLocked() {
		return ErrFull
	}
	s.batches[ticket.BatchID] = &types.Batch{BatchTicket: ticket}
	metrics.UpdateStoredResults(len(s.batches))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.batches, batchID)
	metrics.UpdateStoredResults(len(s.batches))
	return nil
}

func (s *MemoryStore) MarkProcessing(_ context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, batchID)
	}
	if b.Status == types.BatchQueued {
		b.Status = types.BatchProcessing
	}
	return nil
}

func (s *MemoryStore) Complete(_ context.Context, batchID string, items []types.BatchItem, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, batchID)
	}
	b.Status = types.BatchDone
	b.CompletedAt = &at
	b.Results = append([]types.BatchItem(nil), items...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, batchID string) (types.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[batchID]
	if !ok {
		return types.Batch{}, fmt.Errorf("%w: %s", ErrNotFound, batchID)
	}
	out := *b
	out.Results = append([]types.BatchItem(nil), b.Results...)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep evicts every finished batch older than the retention and returns
// how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)
	n := 0
	for id, b := range s.batches {
		if b.CompletedAt != nil && b.CompletedAt.Before(cutoff) {
			delete(s.batches, id)
			metrics.RecordEvictedResult()
			n++
		}
	}
	metrics.UpdateStoredResults(len(s.batches))
	return n
}

// evictOldestDoneLocked drops the finished batch completed earliest.
// Batches still queued or processing are never evicted.
func (s *MemoryStore) evictOldestDoneLocked() bool {
	done := make([]*types.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		if b.CompletedAt != nil {
			done = append(done, b)
		}
	}
	if len(done) == 0 {
		return false
	}
	sort.Slice(done, func(i, j int) bool { return done[i].CompletedAt.Before(*done[j].CompletedAt) })
	delete(s.batches, done[0].BatchID)
	metrics.RecordEvictedResult()
	return true
}
