// Package worker scores queued batches in the background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/collegepath/internal/adapters/mq/queue"
	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/internal/domain/types"
	"github.com/okian/collegepath/pkg/logger"
	"github.com/okian/collegepath/pkg/metrics"
)

const (
	defaultWorkerCount    = 4
	metricsUpdateInterval = 5 * time.Second
)

// Recommender scores one student form.
type Recommender interface {
	Recommend(ctx context.Context, form types.StudentForm) (types.Recommendation, error)
}

// Results receives batch progress.
type Results interface {
	MarkProcessing(ctx context.Context, batchID string) error
	Complete(ctx context.Context, batchID string, items []types.BatchItem, at time.Time) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue() <-chan queue.Job
	Len() int
	Close() error
}

// Worker processes jobs until its queue is drained or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown waits for Run to return.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	recommender Recommender
	results     Results
	name        string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	processed *atomic.Int64
	logger    logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, r Recommender, res Results, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		recommender: r,
		results:     res,
		name:        "worker",
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		processed:   &atomic.Int64{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "batch processing failed",
					logger.String("batch_id", job.BatchID), logger.Error(err))
			}
		}
	}
}

// Stop asks Run to return after the current job.
func (w *InMemoryWorker) Stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// Shutdown waits for Run to return or ctx to expire.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	metrics.AddWorkerBusy(1)
	defer metrics.AddWorkerBusy(-1)

	if err := w.results.MarkProcessing(ctx, job.BatchID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	items := make([]types.BatchItem, len(job.Forms))
	for i, form := range job.Forms {
		if err := ctx.Err(); err != nil {
			return err
		}
		items[i] = w.scoreItem(ctx, i, form)
	}

	if err := w.results.Complete(ctx, job.BatchID, items, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete: %w", err)
	}

	w.processed.Add(1)
	elapsed := time.Since(start)
	metrics.RecordBatchCompleted(float64(elapsed.Microseconds()) / 1000)
	w.logger.Debug(ctx, "batch scored",
		logger.String("batch_id", job.BatchID),
		logger.Int("items", len(items)),
		logger.Duration("took", elapsed))
	return nil
}

func (w *InMemoryWorker) scoreItem(ctx context.Context, i int, form types.StudentForm) types.BatchItem {
	item := types.BatchItem{Index: i}
	rec, err := w.recommender.Recommend(ctx, form)
	if err != nil {
		metrics.RecordBatchItem("invalid")
		item.Error = err.Error()
		var invalid *profile.InvalidInputError
		if errors.As(err, &invalid) {
			item.Error = profile.ErrInvalidInput.Error()
			item.Fields = invalid.Fields
		}
		return item
	}
	metrics.RecordBatchItem("scored")
	item.Recommendation = &rec
	return item
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processed *atomic.Int64

	stopUpdater chan struct{}
	stopOnce    sync.Once
	logger      logger.Logger
}

// NewPool creates workerCount workers. Options apply to every worker.
func NewPool(workerCount int, q Queue, r Recommender, res Results, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers:     make([]*InMemoryWorker, workerCount),
		queue:       q,
		processed:   &atomic.Int64{},
		stopUpdater: make(chan struct{}),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, r, res, wopts...)
		w.processed = p.processed
		p.workers[i] = w
	}
	cfg := &InMemoryWorker{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("worker")
	}
	p.logger = cfg.logger.Named("pool")

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many batches the pool has completed.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopUpdater:
			return
		case <-ticker.C:
			_ = p.queue.Len()
		}
	}
}

// Stop stops every worker after its current job without draining the queue.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopUpdater) })
	for _, w := range p.workers {
		w.Stop()
	}
}

// Shutdown closes the queue, lets the workers drain it, and waits for them
// until ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	p.stopOnce.Do(func() { close(p.stopUpdater) })

	var errs []error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
