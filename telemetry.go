package lapcast

import (
	"context"

	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
)

// Run is the ordered telemetry of a single lap by one driver.
type Run struct {
	Driver  string
	Samples []frame.Sample
}

// StaticSource serves laps that are already in memory, keyed by driver.
type StaticSource map[string]*Run

func (src StaticSource) FastestLap(_ context.Context, driver string) (*Run, error) {
	run, ok := src[driver]
	if !ok || run == nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "no laps for driver %s", driver)
	}
	return run, nil
}
