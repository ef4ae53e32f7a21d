package lapcast

import (
	"context"
	"time"

	"github.com/jd3nn1s/lapcast/frame"
)

// Transport delivers encoded frames to the bus or network. Send failures
// are recoverable; Close releases the underlying handle.
type Transport interface {
	Layout() frame.Layout
	Send(frame.Frame) error
	Close() error
}

// Source provides the fastest lap of a driver. A source that has no lap
// for the driver returns an error.
type Source interface {
	FastestLap(ctx context.Context, driver string) (*Run, error)
}

// Clock paces the stream. Sleep returns early with the context error
// when ctx is done.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}
