package main

import (
	"context"
	"time"
)

// sweepBookingsEvery completes finished bookings (and expires stale holds
// when configured) once immediately and then on every tick until ctx ends.
func (app *application) sweepBookingsEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		app.logger.Info("booking sweep disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if _, err := app.engine.Sweep(ctx); err != nil {
				app.logger.Errorf("Error sweeping bookings: %v", err)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
