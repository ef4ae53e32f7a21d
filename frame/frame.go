package frame

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Size of every telemetry frame, whatever the transport.
const Size = 8

const (
	offSpeed    = 0
	offThrottle = 1
	offBrake    = 2
	offGear     = 3
	offRPM      = 4
	offDriver   = 6
)

const (
	maxSpeed    = 255
	maxThrottle = 100
	maxBrake    = 100
	maxRPM      = math.MaxUint16
)

// Sample is one point of a lap as delivered by a telemetry source.
type Sample struct {
	Speed    float64 // km/h
	Throttle float64 // percent, 0-100
	Brake    float64 // fraction, 0.0-1.0
	Gear     int
	RPM      int
}

// Finite reports whether all floating point fields hold real numbers.
func (s Sample) Finite() bool {
	return finite(s.Speed) && finite(s.Throttle) && finite(s.Brake)
}

// Frame is the fixed size wire representation of a Sample.
type Frame [Size]byte

// Layout describes how a frame is laid out for a transport.
type Layout struct {
	Name string
	// EmbedDriver places the driver number in byte 6. Transports that
	// address drivers out of band leave it zero.
	EmbedDriver bool
}

var (
	LayoutCAN = Layout{Name: "can"}
	LayoutUDP = Layout{Name: "udp", EmbedDriver: true}
)

// Fields is the decoded view of a frame.
type Fields struct {
	Speed    uint8
	Throttle uint8
	Brake    uint8
	Gear     uint8
	RPM      uint16
	Driver   uint8
}

// Encode packs s into a frame. Values saturate at the limits of their
// field rather than wrapping; non-finite values encode as 0.
func Encode(s Sample, driver int, layout Layout) Frame {
	var f Frame
	f[offSpeed] = uint8(clamp(round(s.Speed), 0, maxSpeed))
	f[offThrottle] = uint8(clamp(round(s.Throttle), 0, maxThrottle))
	f[offBrake] = uint8(clamp(round(s.Brake*100), 0, maxBrake))
	// gear is masked, not clamped. Receivers already depend on this so it
	// stays even though every other field saturates.
	f[offGear] = uint8(s.Gear & 0xFF)
	binary.BigEndian.PutUint16(f[offRPM:], uint16(clamp(int64(s.RPM), 0, maxRPM)))
	if layout.EmbedDriver {
		f[offDriver] = uint8(driver & 0xFF)
	}
	return f
}

// Decode unpacks a frame produced by Encode with the same layout.
func Decode(f Frame, layout Layout) Fields {
	fields := Fields{
		Speed:    f[offSpeed],
		Throttle: f[offThrottle],
		Brake:    f[offBrake],
		Gear:     f[offGear],
		RPM:      binary.BigEndian.Uint16(f[offRPM:]),
	}
	if layout.EmbedDriver {
		fields.Driver = f[offDriver]
	}
	return fields
}

// DriverNumber returns the numeric value of a driver identifier such as
// "44". ok is false when the identifier is not a number, in which case
// the number is 0.
func DriverNumber(id string) (n int, ok bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, false
	}
	return n, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round(v float64) int64 {
	if !finite(v) {
		return 0
	}
	// avoid overflow when converting huge values
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int64(math.Round(v))
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
