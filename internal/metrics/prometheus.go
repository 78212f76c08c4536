package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/linuxmatters/emberwave/internal/audio"
	"github.com/linuxmatters/emberwave/internal/config"
	"github.com/linuxmatters/emberwave/internal/encoder"
	"github.com/linuxmatters/emberwave/internal/transcode"
)

// Failure reasons used as the "reason" label
const (
	ReasonDecode    = "decode_failed"
	ReasonEncode    = "encoding_failed"
	ReasonConfig    = "invalid_configuration"
	ReasonCancelled = "cancelled"
	ReasonOther     = "other"
)

// Metrics contains the Prometheus metrics for one emberwave process. Each
// instance owns its registry so runs and tests never share state.
type Metrics struct {
	registry *prometheus.Registry

	ProgressEvents *prometheus.CounterVec
	FramesEncoded  prometheus.Counter
	ChunksEmitted  prometheus.Counter
	OutputBytes    prometheus.Counter
	Duration       prometheus.Histogram
	Failures       *prometheus.CounterVec
	LastSuccess    prometheus.Gauge
}

// New creates and registers all metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProgressEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "emberwave_progress_events_total",
			Help: "Total number of progress events emitted, by phase",
		}, []string{"phase"}),
		FramesEncoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "emberwave_frames_encoded_total",
			Help: "Total number of frames submitted to the encoder in successful runs",
		}),
		ChunksEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "emberwave_chunks_emitted_total",
			Help: "Total number of non-empty encoder chunks kept",
		}),
		OutputBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "emberwave_output_bytes_total",
			Help: "Total number of encoded bytes produced",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "emberwave_transcode_duration_seconds",
			Help:    "Wall time of successful transcodes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "emberwave_failures_total",
			Help: "Total number of failed runs, by reason",
		}, []string{"reason"}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "emberwave_last_success_timestamp_seconds",
			Help: "Unix time of the last successful transcode",
		}),
	}
}

// ObserveEvent counts a progress event
func (m *Metrics) ObserveEvent(ev transcode.Event) {
	m.ProgressEvents.WithLabelValues(ev.Phase.String()).Inc()
}

// RecordResult records a successful transcode
func (m *Metrics) RecordResult(res *transcode.Result) {
	m.FramesEncoded.Add(float64(res.Frames))
	m.ChunksEmitted.Add(float64(res.Chunks))
	m.OutputBytes.Add(float64(len(res.Data)))
	m.Duration.Observe(res.Duration.Seconds())
	m.LastSuccess.Set(float64(time.Now().Unix()))
}

// RecordFailure increments the failure counter for err's reason
func (m *Metrics) RecordFailure(err error) {
	m.Failures.WithLabelValues(Reason(err)).Inc()
}

// Reason classifies an error into a failure label
func Reason(err error) string {
	switch {
	case errors.Is(err, audio.ErrDecodeFailed):
		return ReasonDecode
	case errors.Is(err, encoder.ErrEncodingFailed):
		return ReasonEncode
	case errors.Is(err, config.ErrInvalidConfiguration):
		return ReasonConfig
	case errors.Is(err, context.Canceled):
		return ReasonCancelled
	default:
		return ReasonOther
	}
}

// Gatherer exposes the registry
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
