package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/collegepath/internal/adapters/mq/queue"
	"github.com/okian/collegepath/internal/adapters/mq/worker"
	"github.com/okian/collegepath/internal/domain/profile"
	"github.com/okian/collegepath/internal/domain/types"
	logging "github.com/okian/collegepath/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type stubRecommender struct{}

func (stubRecommender) Recommend(_ context.Context, f types.StudentForm) (types.Recommendation, error) {
	switch f.Stream {
	case "bad":
		return types.Recommendation{}, &profile.InvalidInputError{Fields: map[string]string{"stream": "Must be one of: science, commerce, arts"}}
	case "boom":
		return types.Recommendation{}, errors.New("boom")
	}
	return types.Recommendation{Stream: f.Stream, Count: 1}, nil
}

type memResults struct {
	mu         sync.Mutex
	processing map[string]bool
	done       map[string][]types.BatchItem
	completed  chan string
}

func newMemResults() *memResults {
	return &memResults{
		processing: map[string]bool{},
		done:       map[string][]types.BatchItem{},
		completed:  make(chan string, 100),
	}
}

func (m *memResults) MarkProcessing(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processing[id] = true
	return nil
}

func (m *memResults) Complete(_ context.Context, id string, items []types.BatchItem, _ time.Time) error {
	m.mu.Lock()
	m.done[id] = items
	m.mu.Unlock()
	m.completed <- id
	return nil
}

func (m *memResults) items(id string) []types.BatchItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done[id]
}

func waitFor(ch <-chan string, n int) []string {
	var ids []string
	timeout := time.After(2 * time.Second)
	for len(ids) < n {
		select {
		case id := <-ch:
			ids = append(ids, id)
		case <-timeout:
			return ids
		}
	}
	return ids
}

func TestWorker(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a single worker on a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		res := newMemResults()
		w := worker.NewInMemoryWorker(q, stubRecommender{}, res, worker.WithName("w-test"))
		go w.Run(ctx)

		convey.Convey("When a batch with mixed forms is processed", func() {
			err := q.Enqueue(ctx, queue.Job{BatchID: "b-1", Forms: []types.StudentForm{
				{Stream: "science"}, {Stream: "bad"}, {Stream: "boom"},
			}})
			ids := waitFor(res.completed, 1)

			convey.Convey("Then every item carries its own outcome", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ids, convey.ShouldResemble, []string{"b-1"})
				items := res.items("b-1")
				convey.So(len(items), convey.ShouldEqual, 3)

				convey.So(items[0].Index, convey.ShouldEqual, 0)
				convey.So(items[0].Recommendation, convey.ShouldNotBeNil)
				convey.So(items[0].Recommendation.Stream, convey.ShouldEqual, "science")

				convey.So(items[1].Recommendation, convey.ShouldBeNil)
				convey.So(items[1].Error, convey.ShouldEqual, "invalid input")
				convey.So(items[1].Fields, convey.ShouldContainKey, "stream")

				convey.So(items[2].Error, convey.ShouldEqual, "boom")
				convey.So(items[2].Fields, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the queue is closed", func() {
			_ = q.Close()
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then the worker returns", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When stopped explicitly", func() {
			w.Stop()
			w.Stop()
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then the worker returns", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	_ = logging.Init()

	convey.Convey("Given a pool of three workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		res := newMemResults()
		p := worker.NewPool(3, q, stubRecommender{}, res)
		p.Start(ctx)

		convey.Convey("When many batches are queued and the pool shuts down", func() {
			for i := 0; i < 20; i++ {
				_ = q.Enqueue(ctx, queue.Job{BatchID: string(rune('a' + i)), Forms: []types.StudentForm{{Stream: "arts"}}})
			}
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			err := p.Shutdown(sctx)

			convey.Convey("Then every queued batch is drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Size(), convey.ShouldEqual, 3)
				convey.So(p.Processed(), convey.ShouldEqual, int64(20))
				convey.So(len(waitFor(res.completed, 20)), convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When the worker count is not positive", func() {
			p2 := worker.NewPool(0, queue.NewInMemoryQueue(), stubRecommender{}, res)

			convey.Convey("Then a default size is used", func() {
				convey.So(p2.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}
