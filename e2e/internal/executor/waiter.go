package executor

import (
	"context"
	"time"
)

// scaledOffset converts scenario seconds into wall time under a virtual
// clock running timeScale times faster
func scaledOffset(seconds, timeScale int) time.Duration {
	if timeScale < 1 {
		timeScale = 1
	}
	return time.Duration(seconds) * time.Second / time.Duration(timeScale)
}

// waitUntil sleeps until start+offset or the context ends
func waitUntil(ctx context.Context, start time.Time, offset time.Duration) error {
	d := time.Until(start.Add(offset))
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
