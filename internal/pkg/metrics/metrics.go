package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tokenlist"

// Fetch outcomes recorded on FetchTotal.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collectors groups the token store metrics. A nil *Collectors records nothing.
type Collectors struct {
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Tokens        prometheus.Gauge
	InFlight      prometheus.Gauge
}

// NewCollectors creates the collectors and registers them with reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Token list retrievals by list and outcome.",
		}, []string{"list", "outcome"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of token list retrievals.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"list"}),
		Tokens: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tokens",
			Help:      "Number of tokens currently held by the store.",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight",
			Help:      "Retrievals currently in flight.",
		}),
	}
}

// MustRegisterMetrics registers the collectors with the default registry.
func MustRegisterMetrics() *Collectors {
	return NewCollectors(prometheus.DefaultRegisterer)
}

// ObserveFetch records the outcome and duration of one retrieval.
func (c *Collectors) ObserveFetch(list string, started time.Time, err error) {
	if c == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.FetchTotal.WithLabelValues(list, outcome).Inc()
	c.FetchDuration.WithLabelValues(list).Observe(time.Since(started).Seconds())
}

// SetTokens records the size of the current snapshot.
func (c *Collectors) SetTokens(n int) {
	if c == nil {
		return
	}
	c.Tokens.Set(float64(n))
}

// SetInFlight records the number of in-flight retrievals.
func (c *Collectors) SetInFlight(n int) {
	if c == nil {
		return
	}
	c.InFlight.Set(float64(n))
}
