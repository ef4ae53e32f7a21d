package canbus

import (
	"sync"

	"github.com/brutella/can"
	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// FrameTelemetry is the standard (11 bit) arbitration ID all telemetry
// frames are published under. The driver is not part of the payload.
const FrameTelemetry uint32 = 0x123

const (
	DefaultInterface = "can0"
	DefaultBitrate   = 500000
)

type Config struct {
	Interface string
	// Channel, Bitrate and AppName select the channel on vendor adapters.
	// On SocketCAN the bitrate belongs to the link and is set outside the
	// process, so they are only reported.
	Channel string
	Bitrate int
	AppName string
}

type CANBus interface {
	Disconnect() error
	Publish(can.Frame) error
}

// to allow testing
var newBus = func(name string) (CANBus, error) {
	return can.NewBusForInterfaceWithName(name)
}

type Connection struct {
	bus       CANBus
	closeOnce sync.Once
	closeErr  error
}

func Connect(cfg Config) (*Connection, error) {
	if cfg.Interface == "" {
		cfg.Interface = DefaultInterface
	}
	bus, err := newBus(cfg.Interface)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open can interface %s", cfg.Interface)
	}
	log.WithField("interface", cfg.Interface).
		WithField("channel", cfg.Channel).
		WithField("bitrate", cfg.Bitrate).
		WithField("app", cfg.AppName).
		Info("CAN bus opened")
	return &Connection{
		bus: bus,
	}, nil
}

func (c *Connection) Layout() frame.Layout {
	return frame.LayoutCAN
}

func (c *Connection) Send(f frame.Frame) error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	if err := c.bus.Publish(can.Frame{
		ID:     FrameTelemetry,
		Length: frame.Size,
		Data:   [8]uint8(f),
	}); err != nil {
		return errors.Wrap(err, "unable to publish telemetry frame")
	}
	return nil
}

// Close disconnects from the bus. Only the first call disconnects, later
// calls return the first result.
func (c *Connection) Close() error {
	if c.bus == nil {
		return errors.New("can bus not connected")
	}
	c.closeOnce.Do(func() {
		c.closeErr = c.bus.Disconnect()
		log.Info("CAN bus closed")
	})
	return c.closeErr
}
