package lapcast

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultDriverInterval = 2 * time.Second

type State int32

const (
	StateIdle State = iota
	StateLoading
	StateStreaming
	// StatePausing is the gap between two drivers.
	StatePausing
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateStreaming:
		return "streaming"
	case StatePausing:
		return "pausing"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

type DriverResult struct {
	Driver string
	StreamResult
	// Skipped is set when no lap could be loaded for the driver.
	Skipped bool
	Err     error
}

type Report struct {
	Drivers []DriverResult
}

func (r *Report) Streamed() (n int) {
	for _, d := range r.Drivers {
		if !d.Skipped {
			n++
		}
	}
	return
}

func (r *Report) Skipped() (n int) {
	for _, d := range r.Drivers {
		if d.Skipped {
			n++
		}
	}
	return
}

func (r *Report) Sent() (n int) {
	for _, d := range r.Drivers {
		n += d.Sent
	}
	return
}

func (r *Report) Failed() (n int) {
	for _, d := range r.Drivers {
		n += d.Failed
	}
	return
}

// Session streams the fastest lap of each driver in turn. It owns the
// streamer's transport and closes it when Run returns.
type Session struct {
	Source         Source
	Streamer       *Streamer
	DriverInterval time.Duration
	Clock          Clock
	Metrics        *Metrics

	state int32
	used  int32
}

func (s *Session) State() State {
	return State(atomic.LoadInt32(&s.state))
}

// Run streams drivers in the given order. A driver without data is
// recorded as skipped and the run moves on. The returned error is only
// set when ctx ends the run early or the session was already run.
func (s *Session) Run(ctx context.Context, drivers []string) (report *Report, err error) {
	if !atomic.CompareAndSwapInt32(&s.used, 0, 1) {
		return nil, ErrSessionUsed
	}
	report = &Report{}
	defer func() {
		if closeErr := s.Streamer.Transport.Close(); closeErr != nil {
			log.WithField("err", closeErr).Warn("unable to close transport")
		}
		s.setState(StateFinished)
		log.WithField("streamed", report.Streamed()).
			WithField("skipped", report.Skipped()).
			WithField("sent", report.Sent()).
			WithField("failed", report.Failed()).
			Info("session finished")
	}()

	for _, driver := range drivers {
		result, err := s.runDriver(ctx, driver)
		report.Drivers = append(report.Drivers, result)
		if err != nil {
			return report, err
		}

		s.setState(StatePausing)
		if err := s.clock().Sleep(ctx, s.driverInterval()); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *Session) runDriver(ctx context.Context, driver string) (DriverResult, error) {
	result := DriverResult{Driver: driver}
	logger := log.WithField("driver", driver)

	s.setState(StateLoading)
	run, err := s.load(ctx, driver)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Err = ctxErr
			return result, ctxErr
		}
		result.Skipped = true
		result.Err = err
		s.Metrics.driverSkipped()
		logger.WithField("err", err).Error("could not load data for driver")
		return result, nil
	}

	s.setState(StateStreaming)
	logger.WithField("samples", len(run.Samples)).Info("streaming driver")
	result.StreamResult, err = s.Streamer.Stream(ctx, run)
	if err != nil {
		result.Err = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		logger.WithField("err", err).Error("stream ended early")
		return result, nil
	}
	s.Metrics.driverStreamed()
	logger.WithField("sent", result.Sent).
		WithField("failed", result.Failed).
		Info("finished streaming driver")
	return result, nil
}

func (s *Session) load(ctx context.Context, driver string) (*Run, error) {
	run, err := s.Source.FastestLap(ctx, driver)
	if err != nil {
		if errors.Cause(err) == ErrDataUnavailable {
			return nil, err
		}
		return nil, errors.Wrapf(ErrDataUnavailable, "driver %s: %v", driver, err)
	}
	if run == nil {
		return nil, errors.Wrapf(ErrDataUnavailable, "driver %s: no fastest lap", driver)
	}
	if len(run.Samples) == 0 {
		return nil, errors.Wrapf(ErrDataUnavailable, "driver %s: fastest lap has no telemetry", driver)
	}
	if run.Driver == "" {
		run.Driver = driver
	}
	return run, nil
}

func (s *Session) setState(state State) {
	atomic.StoreInt32(&s.state, int32(state))
}

func (s *Session) driverInterval() time.Duration {
	if s.DriverInterval == 0 {
		return DefaultDriverInterval
	}
	return s.DriverInterval
}

func (s *Session) clock() Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return s.Streamer.clock()
}
