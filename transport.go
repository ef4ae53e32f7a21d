package lapcast

import (
	"github.com/jd3nn1s/lapcast/canbus"
	"github.com/jd3nn1s/lapcast/forwarder"
	"github.com/pkg/errors"
)

// to allow testing
var canConnect = func(cfg canbus.Config) (Transport, error) {
	c, err := canbus.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var udpConnect = func(cfg forwarder.UDPConfig) (Transport, error) {
	udp, err := forwarder.NewUDPForwarder(cfg)
	if err != nil {
		return nil, err
	}
	return udp, nil
}

// NewTransport opens the transport selected by the configuration.
func NewTransport(cfg Config) (Transport, error) {
	var t Transport
	var err error
	switch cfg.Transport {
	case TransportCAN:
		t, err = canConnect(cfg.CAN)
	case TransportUDP:
		t, err = udpConnect(cfg.UDP)
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown transport %q", cfg.Transport)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrTransportSetup, "%s: %v", cfg.Transport, err)
	}
	return t, nil
}
