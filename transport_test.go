package lapcast

import (
	"testing"

	"github.com/jd3nn1s/lapcast/canbus"
	"github.com/jd3nn1s/lapcast/forwarder"
	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubConnects(t *testing.T, canErr, udpErr error) (*canbus.Config, *forwarder.UDPConfig) {
	origCAN, origUDP := canConnect, udpConnect
	t.Cleanup(func() {
		canConnect, udpConnect = origCAN, origUDP
	})
	var canCfg canbus.Config
	var udpCfg forwarder.UDPConfig
	canConnect = func(cfg canbus.Config) (Transport, error) {
		canCfg = cfg
		if canErr != nil {
			return nil, canErr
		}
		return createTransportStub(frame.LayoutCAN), nil
	}
	udpConnect = func(cfg forwarder.UDPConfig) (Transport, error) {
		udpCfg = cfg
		if udpErr != nil {
			return nil, udpErr
		}
		return createTransportStub(frame.LayoutUDP), nil
	}
	return &canCfg, &udpCfg
}

func TestNewTransport(t *testing.T) {
	canCfg, udpCfg := stubConnects(t, nil, nil)

	cfg := DefaultConfig()
	tr, err := NewTransport(cfg)
	require.NoError(t, err)
	assert.Equal(t, frame.LayoutUDP, tr.Layout())
	assert.Equal(t, 20001, udpCfg.Port)

	cfg.Transport = TransportCAN
	cfg.CAN.Interface = "vcan0"
	tr, err = NewTransport(cfg)
	require.NoError(t, err)
	assert.Equal(t, frame.LayoutCAN, tr.Layout())
	assert.Equal(t, "vcan0", canCfg.Interface)
}

func TestNewTransportSetupError(t *testing.T) {
	stubConnects(t, errors.New("no such device"), nil)

	cfg := DefaultConfig()
	cfg.Transport = TransportCAN
	tr, err := NewTransport(cfg)
	assert.Nil(t, tr)
	assert.Equal(t, ErrTransportSetup, errors.Cause(err))
	assert.Contains(t, err.Error(), "no such device")
}

func TestNewTransportUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transport = "serial"
	_, err := NewTransport(cfg)
	assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
}

func TestNewTransportUDP(t *testing.T) {
	cfg := DefaultConfig()
	tr, err := NewTransport(cfg)
	require.NoError(t, err)
	assert.IsType(t, &forwarder.UDPForwarder{}, tr)
	assert.NoError(t, tr.Close())
}
