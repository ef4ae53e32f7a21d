package lapcast

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
)

const defaultTestSamples = 600

const (
	testMinSpeed = 80
	testMaxSpeed = 320
	testMinRPM   = 5000
	testMaxRPM   = 13000
)

// TestSource generates a lap for any driver. Laps ramp between full
// throttle and braking so the receiving side sees plausible traces, and
// are reproducible for a given Seed and driver.
type TestSource struct {
	Samples int
	Seed    int64
}

func (ts *TestSource) FastestLap(ctx context.Context, driver string) (*Run, error) {
	if driver == "" {
		return nil, errors.Wrap(ErrDataUnavailable, "empty driver")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := ts.Samples
	if n <= 0 {
		n = defaultTestSamples
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(driver))
	rng := rand.New(rand.NewSource(ts.Seed ^ int64(h.Sum64())))

	run := &Run{
		Driver:  driver,
		Samples: make([]frame.Sample, 0, n),
	}
	speed := float64(testMinSpeed) + rng.Float64()*40
	down := false
	for i := 0; i < n; i++ {
		s := frame.Sample{}
		if down {
			speed -= 2 + rng.Float64()*3
			s.Brake = 0.4 + rng.Float64()*0.6
		} else {
			speed += 0.5 + rng.Float64()*1.5
			s.Throttle = 70 + rng.Float64()*30
		}
		if speed >= testMaxSpeed {
			speed = testMaxSpeed
			down = true
		} else if speed <= testMinSpeed {
			speed = testMinSpeed
			down = false
		}
		s.Speed = speed
		s.Gear = testGear(speed)
		s.RPM = testRPM(speed, s.Gear)
		run.Samples = append(run.Samples, s)
	}
	return run, nil
}

func testGear(speed float64) int {
	gear := 1 + int((speed-testMinSpeed)/30)
	if gear > 8 {
		gear = 8
	}
	return gear
}

// rpm climbs through each gear's speed band
func testRPM(speed float64, gear int) int {
	bandStart := float64(testMinSpeed + (gear-1)*30)
	pos := (speed - bandStart) / 30
	if pos > 1 {
		pos = 1
	}
	return testMinRPM + int(pos*(testMaxRPM-testMinRPM))
}
