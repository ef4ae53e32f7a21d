package forwarder

import (
	"io"
	"io/ioutil"
	"net"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultServer = "127.0.0.1"
	DefaultPort   = 20001

	writeBufSize = frame.Size * 64
)

type UDPConfig struct {
	Server string
	Port   int
}

// UDPForwarder writes telemetry frames as single datagrams to a fixed
// destination. Nothing is acknowledged or retried.
type UDPForwarder struct {
	Config *UDPConfig

	conn      *net.UDPConn
	dest      *net.UDPAddr
	closeOnce sync.Once
	closeErr  error
}

func NewUDPForwarder(config UDPConfig) (*UDPForwarder, error) {
	if config.Server == "" {
		config.Server = DefaultServer
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	udp := &UDPForwarder{
		Config: &config,
	}
	if err := udp.connect(); err != nil {
		return nil, err
	}
	return udp, nil
}

func NewUDPForwarderFromReader(configReader io.Reader) (*UDPForwarder, error) {
	configData, err := ioutil.ReadAll(configReader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	config := UDPConfig{}
	if _, err := toml.Decode(string(configData), &config); err != nil {
		return nil, errors.Wrapf(err, "unable to load udp forwarder configuration")
	}
	return NewUDPForwarder(config)
}

func (udp *UDPForwarder) Layout() frame.Layout {
	return frame.LayoutUDP
}

func (udp *UDPForwarder) Send(f frame.Frame) error {
	if _, err := udp.conn.WriteToUDP(f[:], udp.dest); err != nil {
		return errors.Wrapf(err, "unable to send telemetry to %s", udp.dest)
	}
	return nil
}

// Close closes the socket. Only the first call has an effect.
func (udp *UDPForwarder) Close() error {
	udp.closeOnce.Do(func() {
		udp.closeErr = udp.conn.Close()
	})
	return udp.closeErr
}

func (udp *UDPForwarder) connect() error {
	addr := net.JoinHostPort(udp.Config.Server, strconv.Itoa(udp.Config.Port))
	dest, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return errors.Wrapf(err, "unable to resolve %s", addr)
	}

	// not bound to any particular local address, the OS picks one
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return errors.Wrap(err, "unable to open udp socket")
	}
	if err = conn.SetWriteBuffer(writeBufSize); err != nil {
		_ = conn.Close()
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufSize)
	}

	log.WithField("dest", dest.String()).Info("UDP forwarder ready")
	udp.conn = conn
	udp.dest = dest
	return nil
}
