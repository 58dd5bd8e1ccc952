// Package dedupe tracks batch request ids so a replayed submission maps back
// to the batch it created.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 10_000

// Deduper remembers which batch a request id produced.
type Deduper interface {
	// Claim atomically records key -> value unless key is already known.
	// When it is, the stored value is returned with dup set.
	Claim(ctx context.Context, key, value string) (existing string, dup bool)

	// Release forgets key so it can be claimed again. It is used when the
	// batch a key was claimed for never made it into the queue.
	Release(ctx context.Context, key string)

	// Lookup returns the value stored for key.
	Lookup(ctx context.Context, key string) (string, bool)

	Size() int
}

type record struct {
	key   string
	value string
}

// inMemoryDeduper keeps at most maxSize keys and evicts the oldest claim
// first. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = newest
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Claim(_ context.Context, key, value string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		return el.Value.(*record).value, true //nolint:forcetypeassert // list holds *record only
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushFront(&record{key: key, value: value})
	return value, false
}

func (d *inMemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
	}
}

func (d *inMemoryDeduper) Lookup(_ context.Context, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.seen[key]
	if !ok {
		return "", false
	}
	return el.Value.(*record).value, true //nolint:forcetypeassert // list holds *record only
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(*record).key) //nolint:forcetypeassert // list holds *record only
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
