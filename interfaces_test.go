package lapcast

import (
	"context"
	"time"

	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
)

type transportStub struct {
	layout frame.Layout
	frames []frame.Frame
	// send calls that fail, by call number
	failAt map[int]bool
	calls  int
	closes int
}

func createTransportStub(layout frame.Layout) *transportStub {
	return &transportStub{
		layout: layout,
		failAt: map[int]bool{},
	}
}

func (ts *transportStub) Layout() frame.Layout {
	return ts.layout
}

func (ts *transportStub) Send(f frame.Frame) error {
	call := ts.calls
	ts.calls++
	if ts.failAt[call] {
		return errors.New("fake bus error")
	}
	ts.frames = append(ts.frames, f)
	return nil
}

func (ts *transportStub) Close() error {
	ts.closes++
	return nil
}

// speeds returns the speed byte of every frame, which the test runs set
// to the source index.
func (ts *transportStub) speeds() []int {
	ret := make([]int, 0, len(ts.frames))
	for _, f := range ts.frames {
		ret = append(ret, int(f[0]))
	}
	return ret
}

type clockStub struct {
	sleeps []time.Duration
	// cancel is called on the cancelAfter-th sleep
	cancelAfter int
	cancel      context.CancelFunc
	onSleep     func()
}

func (c *clockStub) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep()
	}
	if c.cancel != nil && len(c.sleeps) == c.cancelAfter {
		c.cancel()
	}
	return ctx.Err()
}

func (c *clockStub) count(d time.Duration) (n int) {
	for _, s := range c.sleeps {
		if s == d {
			n++
		}
	}
	return
}

type sourceStub struct {
	runs  map[string]*Run
	errs  map[string]error
	loads []string
}

func (s *sourceStub) FastestLap(_ context.Context, driver string) (*Run, error) {
	s.loads = append(s.loads, driver)
	if err, ok := s.errs[driver]; ok {
		return nil, err
	}
	return s.runs[driver], nil
}

// indexedRun builds a run whose sample speeds equal their index.
func indexedRun(driver string, n int) *Run {
	run := &Run{
		Driver: driver,
	}
	for i := 0; i < n; i++ {
		run.Samples = append(run.Samples, frame.Sample{
			Speed:    float64(i),
			Throttle: 50,
			Brake:    0.1,
			Gear:     3,
			RPM:      9000,
		})
	}
	return run
}
