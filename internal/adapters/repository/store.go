// Package repository keeps batch results in memory for a bounded time.
package repository

import (
	"context"
	"time"

	"github.com/okian/collegepath/internal/domain/types"
)

// Store provides read/write access to batch state.
type Store interface {
	// Create registers a queued batch. Returns ErrExists for a known id.
	Create(ctx context.Context, ticket types.BatchTicket) error

	// Delete forgets a batch. Unknown ids are ignored.
	Delete(ctx context.Context, batchID string) error

	// MarkProcessing moves a queued batch to processing.
	MarkProcessing(ctx context.Context, batchID string) error

	// Complete stores the results of a batch and starts its retention clock.
	Complete(ctx context.Context, batchID string, items []types.BatchItem, at time.Time) error

	// Get returns a batch. Returns ErrNotFound if unknown or evicted.
	Get(ctx context.Context, batchID string) (types.Batch, error)

	// Count returns the number of batches held.
	Count(ctx context.Context) int
}
