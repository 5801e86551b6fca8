// Package metrics exports execution measurements to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/reglet-dev/cwvm/domain/entities"
	"github.com/reglet-dev/cwvm/domain/ports"
)

const namespace = "cwvm"

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus implements ports.Metrics.
type Prometheus struct {
	calls       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	subMessages *prometheus.CounterVec
	gas         *prometheus.HistogramVec
	depth       *prometheus.GaugeVec
}

// New registers the engine's collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func New(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "calls_total",
			Help:      "Top-level entry point calls by outcome.",
		}, []string{"entry_point", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "call_duration_seconds",
			Help:      "Wall time of top-level calls, sub-messages included.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"entry_point"}),
		subMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "submessages_total",
			Help:      "Dispatched sub-messages by kind, reply policy and continuation.",
		}, []string{"kind", "reply_on", "continuation"}),
		gas: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gas",
			Name:      "used",
			Help:      "Gas used per top-level call.",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
		}, []string{"entry_point"}),
		depth: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "max_depth",
			Help:      "Deepest nesting reached by the most recent execution.",
		}, []string{"scope"}),
	}
}

func (p *Prometheus) ObserveCall(entryPoint string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.calls.WithLabelValues(entryPoint, result).Inc()
	p.duration.WithLabelValues(entryPoint).Observe(d.Seconds())
}

func (p *Prometheus) ObserveSubMessage(kind string, replyOn entities.ReplyOn, continuation string) {
	p.subMessages.WithLabelValues(kind, string(replyOn), continuation).Inc()
}

func (p *Prometheus) ObserveGas(entryPoint string, used uint64) {
	p.gas.WithLabelValues(entryPoint).Observe(float64(used))
}

func (p *Prometheus) ObserveDepth(scope string, depth uint32) {
	p.depth.WithLabelValues(scope).Set(float64(depth))
}
