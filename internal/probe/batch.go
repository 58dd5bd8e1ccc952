package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okian/collegepath/internal/domain/types"
	"github.com/okian/collegepath/pkg/logger"
)

// runBatch submits forms as one batch, replays the submission to check
// idempotency, polls until the batch is done and verifies every item.
func runBatch(ctx context.Context, config *Config, client *HTTPClient, v *Verifier, forms []types.StudentForm, stats *Stats) error {
	req := types.BatchRequest{RequestID: uuid.NewString(), Profiles: forms}

	var ticket types.BatchTicket
	status, err := client.Post(ctx, "/batches", req, &ticket)
	if err != nil {
		return fmt.Errorf("batch submission failed: %w", err)
	}
	if status != http.StatusAccepted {
		return fmt.Errorf("batch submission returned status %d", status)
	}
	logger.Get().Info(ctx, "batch queued",
		logger.String("batch_id", ticket.BatchID),
		logger.String("request_id", ticket.RequestID),
		logger.Int("items", ticket.Items))

	var replay types.BatchTicket
	status, err = client.Post(ctx, "/batches", req, &replay)
	if err != nil {
		return fmt.Errorf("batch replay failed: %w", err)
	}
	if status != http.StatusOK || replay.BatchID != ticket.BatchID {
		return fmt.Errorf("%w: replayed request id got status %d and batch %q", ErrMismatch, status, replay.BatchID)
	}
	stats.BatchReplayed = true

	batch, err := pollBatch(ctx, config, client, ticket.BatchID)
	if err != nil {
		return err
	}
	if len(batch.Results) != len(forms) {
		return fmt.Errorf("%w: batch has %d results for %d profiles", ErrMismatch, len(batch.Results), len(forms))
	}
	for _, item := range batch.Results {
		if item.Recommendation == nil {
			stats.Mismatches++
			return fmt.Errorf("%w: batch item %d failed: %s", ErrMismatch, item.Index, item.Error)
		}
		if err := v.Verify(forms[item.Index], *item.Recommendation); err != nil {
			stats.Mismatches++
			return fmt.Errorf("batch item %d: %w", item.Index, err)
		}
		stats.BatchItems++
	}
	logger.Get().Info(ctx, "batch verified", logger.Int("items", stats.BatchItems))
	return nil
}

func pollBatch(ctx context.Context, config *Config, client *HTTPClient, id string) (types.Batch, error) {
	ctx, cancel := context.WithTimeout(ctx, config.BatchTimeout)
	defer cancel()

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for {
		var b types.Batch
		status, err := client.Get(ctx, "/batches/"+id, &b)
		if err == nil && status == http.StatusOK && b.Status == types.BatchDone {
			return b, nil
		}
		select {
		case <-ctx.Done():
			return types.Batch{}, fmt.Errorf("%w: %s", ErrBatchTimeout, id)
		case <-ticker.C:
		}
	}
}
