package lapcast

import (
	"context"
	"time"
)

type realClock struct{}

// RealClock sleeps in wall clock time.
var RealClock Clock = realClock{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
