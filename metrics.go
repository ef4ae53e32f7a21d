package lapcast

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	failSend      = "send"
	failNonFinite = "nonfinite"
)

// Metrics counts what a session streamed. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	FramesSent      *prometheus.CounterVec
	FramesFailed    *prometheus.CounterVec
	DriversStreamed prometheus.Counter
	DriversSkipped  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lapcast",
				Subsystem: "frames",
				Name:      "sent_total",
				Help:      "Total number of telemetry frames sent",
			},
			[]string{"driver"},
		),
		FramesFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lapcast",
				Subsystem: "frames",
				Name:      "failed_total",
				Help:      "Total number of telemetry samples that failed, by reason",
			},
			[]string{"driver", "reason"},
		),
		DriversStreamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lapcast",
			Subsystem: "drivers",
			Name:      "streamed_total",
			Help:      "Total number of drivers whose lap was streamed",
		}),
		DriversSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lapcast",
			Subsystem: "drivers",
			Name:      "skipped_total",
			Help:      "Total number of drivers skipped because no lap was available",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.FramesSent, m.FramesFailed, m.DriversStreamed, m.DriversSkipped)
	}
	return m
}

func (m *Metrics) frameSent(driver string) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(driver).Inc()
}

func (m *Metrics) frameFailed(driver, reason string) {
	if m == nil {
		return
	}
	m.FramesFailed.WithLabelValues(driver, reason).Inc()
}

func (m *Metrics) driverStreamed() {
	if m == nil {
		return
	}
	m.DriversStreamed.Inc()
}

func (m *Metrics) driverSkipped() {
	if m == nil {
		return
	}
	m.DriversSkipped.Inc()
}
