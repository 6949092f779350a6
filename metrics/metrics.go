// ABOUTME: Prometheus instrumentation for stream sessions.
// ABOUTME: Recorder implements console.Recorder over counters and a live-stream gauge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/2389-research/streamconsole/console"
)

const namespace = "streamconsole"

// Recorder counts session activity. Register it once per registry.
type Recorder struct {
	StreamsStarted    prometheus.Counter
	StreamsEnded      *prometheus.CounterVec
	EventsReceived    *prometheus.CounterVec
	MessagesDiscarded *prometheus.CounterVec
	LiveStreams       prometheus.Gauge
}

var _ console.Recorder = (*Recorder)(nil)

// New registers the session metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		StreamsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_started_total",
			Help:      "Streams opened by a start action",
		}),
		StreamsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_ended_total",
			Help:      "Streams closed, by final status",
		}, []string{"status"}),
		EventsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Progress events appended to the log, by event type",
		}, []string{"type"}),
		MessagesDiscarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_discarded_total",
			Help:      "Frames dropped without changing state, by reason",
		}, []string{"reason"}),
		LiveStreams: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_streams",
			Help:      "Streams with an open transport handle",
		}),
	}
}

// StreamStarted implements console.Recorder.
func (r *Recorder) StreamStarted() {
	r.StreamsStarted.Inc()
	r.LiveStreams.Inc()
}

// EventAppended implements console.Recorder. Unknown event types share one
// label value to keep cardinality bounded.
func (r *Recorder) EventAppended(evt console.Event) {
	r.EventsReceived.WithLabelValues(eventTypeLabel(evt.Type)).Inc()
}

// MessageDiscarded implements console.Recorder.
func (r *Recorder) MessageDiscarded(reason string) {
	r.MessagesDiscarded.WithLabelValues(reason).Inc()
}

// StreamEnded implements console.Recorder.
func (r *Recorder) StreamEnded(status console.Status) {
	label := string(status)
	if !status.Known() {
		label = "other"
	}
	r.StreamsEnded.WithLabelValues(label).Inc()
	r.LiveStreams.Dec()
}

func eventTypeLabel(t string) string {
	switch t {
	case "message", "status", "tool", "tool_call", "tool_result", "thought":
		return t
	default:
		return "other"
	}
}
