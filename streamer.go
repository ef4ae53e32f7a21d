package lapcast

import (
	"context"
	"time"

	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultDecimation     = 10
	DefaultSampleInterval = 100 * time.Millisecond
)

// FrameFunc is called after each frame that was sent successfully.
type FrameFunc func(driver string, index int, f frame.Frame)

// Streamer sends every Decimation-th sample of a run through Transport,
// waiting SampleInterval after each one. Zero values select the defaults.
type Streamer struct {
	Transport      Transport
	Decimation     int
	SampleInterval time.Duration
	Clock          Clock
	Metrics        *Metrics
	OnFrame        FrameFunc
}

type StreamResult struct {
	Selected  int // samples picked by decimation
	Sent      int
	Failed    int // send failures
	NonFinite int // samples sent with zeroed fields
}

// Stream sends the run. A failed sample is reported and skipped; the
// returned error is only set when ctx ends the stream early.
func (s *Streamer) Stream(ctx context.Context, run *Run) (StreamResult, error) {
	res := StreamResult{}
	if run == nil {
		return res, errors.Wrap(ErrDataUnavailable, "nothing to stream")
	}

	logger := log.WithField("driver", run.Driver)
	layout := s.Transport.Layout()
	number, ok := frame.DriverNumber(run.Driver)
	if !ok && layout.EmbedDriver {
		logger.Warn("driver is not a number, frames carry driver 0")
	}

	decimation := s.decimation()
	for i := 0; i < len(run.Samples); i += decimation {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Selected++
		sample := run.Samples[i]
		if !sample.Finite() {
			res.NonFinite++
			s.Metrics.frameFailed(run.Driver, failNonFinite)
			logger.WithField("index", i).
				WithField("sample", sample).
				Warn(ErrNonFinite)
		}

		f := frame.Encode(sample, number, layout)
		if err := s.Transport.Send(f); err != nil {
			res.Failed++
			s.Metrics.frameFailed(run.Driver, failSend)
			logger.WithField("index", i).
				WithField("err", err).
				Error("unable to send telemetry frame")
		} else {
			res.Sent++
			s.Metrics.frameSent(run.Driver)
			logger.WithField("index", i).
				WithField("frame", f).
				Debug("sent telemetry frame")
			if s.OnFrame != nil {
				s.OnFrame(run.Driver, i, f)
			}
		}

		if err := s.clock().Sleep(ctx, s.sampleInterval()); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Streamer) decimation() int {
	if s.Decimation <= 0 {
		return DefaultDecimation
	}
	return s.Decimation
}

func (s *Streamer) sampleInterval() time.Duration {
	if s.SampleInterval == 0 {
		return DefaultSampleInterval
	}
	return s.SampleInterval
}

func (s *Streamer) clock() Clock {
	if s.Clock == nil {
		return RealClock
	}
	return s.Clock
}
