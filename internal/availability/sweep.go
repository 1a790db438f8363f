package availability

import (
	"context"
	"fmt"
)

type SweepResult struct {
	Completed int64 `json:"completed"`
	Expired   int64 `json:"expired"`
}

// Sweep completes CONFIRMED bookings whose end has passed and, when a
// pending hold is configured, cancels PENDING bookings older than it.
// Running it again with the same clock changes nothing.
func (e *Engine) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	today, nowMinute := e.now()

	n, err := e.repos.Bookings.MarkCompleted(ctx, today, nowMinute)
	if err != nil {
		return res, fmt.Errorf("mark completed: %w", err)
	}
	res.Completed = n

	if e.pendingHold > 0 {
		cutoff := e.clock.Now().Add(-e.pendingHold)
		n, err := e.repos.Bookings.ExpirePending(ctx, cutoff)
		if err != nil {
			return res, fmt.Errorf("expire pending: %w", err)
		}
		res.Expired = n
	}

	if res.Completed > 0 || res.Expired > 0 {
		// Any venue may have changed; drop everything cached.
		if err := e.cache.InvalidateAll(ctx); err != nil {
			e.logger.Warnw("calendar cache flush failed", "error", err)
		}
	}
	e.logger.Infow("booking sweep finished", "completed", res.Completed, "expired", res.Expired)
	return res, nil
}
