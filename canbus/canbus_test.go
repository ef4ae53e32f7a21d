package canbus

import (
	"testing"

	"github.com/brutella/can"
	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type busStub struct {
	disconnects int
	publishErr  error
	publishChan chan *can.Frame
}

func (bus *busStub) Disconnect() error {
	bus.disconnects++
	return nil
}

func (bus *busStub) Publish(f can.Frame) error {
	if bus.publishErr != nil {
		return bus.publishErr
	}
	bus.publishChan <- &f
	return nil
}

func stubBus(t *testing.T, bus CANBus, err error) {
	origNewBus := newBus
	newBus = func(string) (CANBus, error) {
		return bus, err
	}
	t.Cleanup(func() {
		newBus = origNewBus
	})
}

func TestConnect(t *testing.T) {
	bus := &busStub{}
	var opened string
	origNewBus := newBus
	newBus = func(name string) (CANBus, error) {
		opened = name
		return bus, nil
	}
	defer func() {
		newBus = origNewBus
	}()

	c, err := Connect(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultInterface, opened)
	assert.IsType(t, &busStub{}, c.bus)
	assert.Equal(t, frame.LayoutCAN, c.Layout())

	assert.NoError(t, c.Close())
	assert.Equal(t, 1, bus.disconnects)
}

func TestConnectError(t *testing.T) {
	stubBus(t, nil, errors.New("no such device"))

	c, err := Connect(Config{Interface: "vcan9"})
	assert.Nil(t, c)
	assert.EqualError(t, err, "unable to open can interface vcan9: no such device")
}

func TestSend(t *testing.T) {
	bus := &busStub{
		publishChan: make(chan *can.Frame, 1),
	}
	c := &Connection{
		bus: bus,
	}

	payload := frame.Frame{200, 80, 50, 4, 39, 16, 0, 0}
	assert.NoError(t, c.Send(payload))
	f := <-bus.publishChan
	assert.Equal(t, FrameTelemetry, f.ID)
	assert.Equal(t, uint8(8), f.Length)
	assert.Zero(t, f.Flags, "telemetry frames use standard IDs")
	assert.Equal(t, [8]uint8{200, 80, 50, 4, 39, 16, 0, 0}, f.Data)
}

func TestSendError(t *testing.T) {
	c := &Connection{
		bus: &busStub{publishErr: errors.New("bus off")},
	}
	err := c.Send(frame.Frame{})
	assert.EqualError(t, err, "unable to publish telemetry frame: bus off")
}

func TestNotConnected(t *testing.T) {
	c := &Connection{}
	assert.Error(t, c.Send(frame.Frame{}))
	assert.Error(t, c.Close())
}

func TestCloseOnce(t *testing.T) {
	bus := &busStub{}
	c := &Connection{
		bus: bus,
	}
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.Equal(t, 1, bus.disconnects)
}
