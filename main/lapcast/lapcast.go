package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jd3nn1s/lapcast"
	"github.com/jd3nn1s/lapcast/frame"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	configFile  string
	printFrames bool
	metricsAddr string
	logLevel    string
	logFormat   string
	seed        int64
	samples     int

	transport      string
	drivers        []string
	decimation     int
	sampleInterval time.Duration
	driverInterval time.Duration
	udpServer      string
	udpPort        int
	canInterface   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newCommand(&options{})
}

func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lapcast",
		Short: "Stream lap telemetry frames over CAN or UDP",
		Long: `lapcast sends one 8 byte frame per telemetry sample at a fixed rate,
driver after driver, to a CAN bus or a UDP receiver.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "TOML configuration file")
	f.BoolVar(&opts.printFrames, "print-frames", false, "print every sent frame to stdout")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	f.Int64Var(&opts.seed, "seed", 1, "seed for generated laps")
	f.IntVar(&opts.samples, "samples", 0, "samples per generated lap")

	f.StringVar(&opts.transport, "transport", lapcast.TransportUDP, "transport to use (can, udp)")
	f.StringSliceVar(&opts.drivers, "drivers", nil, "drivers to stream, in order")
	f.IntVar(&opts.decimation, "decimation", lapcast.DefaultDecimation, "send every nth sample")
	f.DurationVar(&opts.sampleInterval, "sample-interval", lapcast.DefaultSampleInterval, "delay between frames")
	f.DurationVar(&opts.driverInterval, "driver-interval", lapcast.DefaultDriverInterval, "delay between drivers")
	f.StringVar(&opts.udpServer, "udp-server", "", "UDP destination host")
	f.IntVar(&opts.udpPort, "udp-port", 0, "UDP destination port")
	f.StringVar(&opts.canInterface, "can-interface", "", "CAN interface name")
	return cmd
}

func setupLogging(opts *options) error {
	level, err := log.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	switch opts.logFormat {
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return errors.Errorf("unknown log format %q", opts.logFormat)
	}
	return nil
}

// loadConfig starts from the file, or the defaults, and applies the flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (lapcast.Config, error) {
	cfg := lapcast.DefaultConfig()
	if opts.configFile != "" {
		var err error
		if cfg, err = lapcast.LoadConfig(opts.configFile); err != nil {
			return cfg, err
		}
	}

	f := cmd.Flags()
	if f.Changed("transport") {
		cfg.Transport = opts.transport
	}
	if f.Changed("drivers") {
		cfg.Drivers = opts.drivers
	}
	if f.Changed("decimation") {
		cfg.Decimation = opts.decimation
	}
	if f.Changed("sample-interval") {
		cfg.SampleInterval.Duration = opts.sampleInterval
	}
	if f.Changed("driver-interval") {
		cfg.DriverInterval.Duration = opts.driverInterval
	}
	if f.Changed("udp-server") {
		cfg.UDP.Server = opts.udpServer
	}
	if f.Changed("udp-port") {
		cfg.UDP.Port = opts.udpPort
	}
	if f.Changed("can-interface") {
		cfg.CAN.Interface = opts.canInterface
	}
	return cfg, cfg.Validate()
}

func newSession(cfg lapcast.Config, transport lapcast.Transport, src lapcast.Source,
	metrics *lapcast.Metrics, out io.Writer) *lapcast.Session {
	streamer := &lapcast.Streamer{
		Transport:      transport,
		Decimation:     cfg.Decimation,
		SampleInterval: cfg.SampleInterval.Duration,
		Metrics:        metrics,
	}
	if out != nil {
		layout := transport.Layout()
		streamer.OnFrame = func(driver string, index int, f frame.Frame) {
			fmt.Fprintf(out, "%s %d %+v\n", driver, index, frame.Decode(f, layout))
		}
	}
	return &lapcast.Session{
		Source:         src,
		Streamer:       streamer,
		DriverInterval: cfg.DriverInterval.Duration,
		Metrics:        metrics,
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithField("err", err).Error("metrics listener stopped")
		}
	}()
	log.WithField("addr", addr).Info("serving metrics")
	return srv
}

func run(ctx context.Context, cmd *cobra.Command, opts *options) error {
	if err := setupLogging(opts); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := lapcast.NewMetrics(reg)
	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	transport, err := lapcast.NewTransport(cfg)
	if err != nil {
		log.WithField("err", err).Error("unable to open transport")
		return err
	}

	var out io.Writer
	if opts.printFrames {
		out = cmd.OutOrStdout()
	}
	src := &lapcast.TestSource{
		Samples: opts.samples,
		Seed:    opts.seed,
	}
	session := newSession(cfg, transport, src, metrics, out)

	log.WithField("transport", cfg.Transport).
		WithField("drivers", len(cfg.Drivers)).
		Info("starting to stream telemetry")
	if _, err := session.Run(ctx, cfg.Drivers); err != nil {
		log.WithField("err", err).Warn("streaming stopped early")
		return err
	}
	return nil
}
