package risetime

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts batch analysis outcomes. Each instance owns its registry so
// a run can be exported as a node-exporter textfile.
type Metrics struct {
	Registry        *prometheus.Registry
	tracesAnalyzed  *prometheus.CounterVec   // by board, waveform type, role
	traceFailures   *prometheus.CounterVec   // by board, waveform type, role, reason
	missingChannels *prometheus.CounterVec   // channels without the requested waveform type
	riseTimes       *prometheus.HistogramVec // rise times in analysis time units
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		Registry: registry,
		tracesAnalyzed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risetime_traces_analyzed_total",
				Help: "Traces analyzed successfully",
			},
			[]string{"board", "waveform_type", "role"},
		),
		traceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risetime_trace_failures_total",
				Help: "Traces whose analysis failed",
			},
			[]string{"board", "waveform_type", "role", "reason"},
		),
		missingChannels: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risetime_missing_channels_total",
				Help: "Channels without traces of the requested waveform type",
			},
			[]string{"board", "waveform_type"},
		),
		riseTimes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risetime_rise_time",
				Help:    "Measured rise times",
				Buckets: prometheus.LinearBuckets(0, 0.25, 40),
			},
			[]string{"board", "role"},
		),
	}
}

func (m *Metrics) TraceAnalyzed(board string, wt WaveformType, role SignalRole, riseTime float64) {
	if m == nil {
		return
	}
	m.tracesAnalyzed.WithLabelValues(board, wt.String(), role.String()).Inc()
	m.riseTimes.WithLabelValues(board, role.String()).Observe(riseTime)
}

func (m *Metrics) TraceFailed(board string, wt WaveformType, role SignalRole, err error) {
	if m == nil {
		return
	}
	m.traceFailures.WithLabelValues(board, wt.String(), role.String(), FailureReason(err)).Inc()
}

func (m *Metrics) ChannelMissing(board string, wt WaveformType) {
	if m == nil {
		return
	}
	m.missingChannels.WithLabelValues(board, wt.String()).Inc()
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.Registry)
}

// FailureReason maps an analysis error to a short label value.
func FailureReason(err error) string {
	var crossing *ErrCrossingNotFound
	var param *ErrInvalidParameter
	var samples *ErrInvalidSamples
	var notFound *ErrNotFound
	var role *ErrAmbiguousRole
	switch {
	case errors.As(err, &crossing):
		return "crossing_not_found"
	case errors.As(err, &param):
		return "invalid_parameter"
	case errors.As(err, &samples):
		return "invalid_samples"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &role):
		return "ambiguous_role"
	}
	return "other"
}

var metrics *Metrics

func SetMetrics(m *Metrics) {
	metrics = m
}
