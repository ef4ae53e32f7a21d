package lapcast

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/lapcast/canbus"
	"github.com/jd3nn1s/lapcast/forwarder"
	"github.com/pkg/errors"
)

const (
	TransportCAN = "can"
	TransportUDP = "udp"
)

// DefaultDrivers is the running order used when no drivers are configured.
var DefaultDrivers = []string{
	"55", "1", "16", "63", "11", "23", "81", "44", "4", "14",
	"22", "40", "27", "77", "2", "24", "10", "31", "20", "18",
}

// Duration reads durations such as "100ms" from TOML strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Transport      string
	Drivers        []string
	Decimation     int
	SampleInterval Duration
	DriverInterval Duration

	CAN canbus.Config
	UDP forwarder.UDPConfig
}

func DefaultConfig() Config {
	return Config{
		Transport:      TransportUDP,
		Drivers:        append([]string(nil), DefaultDrivers...),
		Decimation:     DefaultDecimation,
		SampleInterval: Duration{DefaultSampleInterval},
		DriverInterval: Duration{DefaultDriverInterval},
		CAN: canbus.Config{
			Interface: canbus.DefaultInterface,
			Channel:   "0",
			Bitrate:   canbus.DefaultBitrate,
			AppName:   "CANalyzer",
		},
		UDP: forwarder.UDPConfig{
			Server: forwarder.DefaultServer,
			Port:   forwarder.DefaultPort,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(fileName string) (Config, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

func LoadConfigFromReader(r io.Reader) (Config, error) {
	config := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(&config); err != nil {
		return Config{}, errors.Wrap(err, "unable to load configuration")
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	switch c.Transport {
	case TransportCAN, TransportUDP:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown transport %q", c.Transport)
	}
	if len(c.Drivers) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no drivers")
	}
	if c.Decimation <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "decimation must be positive, got %d", c.Decimation)
	}
	if c.SampleInterval.Duration < 0 || c.DriverInterval.Duration < 0 {
		return errors.Wrap(ErrInvalidConfig, "intervals must not be negative")
	}
	if c.Transport == TransportUDP && (c.UDP.Port <= 0 || c.UDP.Port > 65535) {
		return errors.Wrapf(ErrInvalidConfig, "udp port %d out of range", c.UDP.Port)
	}
	if c.Transport == TransportCAN && c.CAN.Interface == "" {
		return errors.Wrap(ErrInvalidConfig, "no can interface")
	}
	return nil
}
