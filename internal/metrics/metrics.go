// Package metrics exposes Prometheus collectors for the chat backend.
package metrics

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pelusa-v/speakset/internal/chat"
	"github.com/pelusa-v/speakset/internal/oracle"
)

type Metrics struct {
	registry *prometheus.Registry

	MessagesPosted *prometheus.CounterVec
	Logins         prometheus.Counter
	OracleCalls    *prometheus.CounterVec
	NativeBuilds   *prometheus.CounterVec
	Subscribers    prometheus.Gauge
}

// New registers every collector on a fresh registry, so independent
// instances (tests, multiple apps) never clash.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MessagesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speakset_messages_posted_total",
			Help: "Messages appended, split into the default channel and all others.",
		}, []string{"channel"}),
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "speakset_logins_total",
			Help: "Tokens issued by the login endpoint.",
		}),
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speakset_oracle_calls_total",
			Help: "Identifier generator calls by kind and result.",
		}, []string{"kind", "result"}),
		NativeBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speakset_native_builds_total",
			Help: "Native helper compilations by result.",
		}, []string{"result"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "speakset_ws_subscribers",
			Help: "Connected channel feed subscribers.",
		}),
	}
	m.registry.MustRegister(
		m.MessagesPosted,
		m.Logins,
		m.OracleCalls,
		m.NativeBuilds,
		m.Subscribers,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// ObservePost counts an appended message. Channel names come from clients,
// so they are bucketed to keep the series bounded.
func (m *Metrics) ObservePost(channel string) {
	bucket := "other"
	if channel == chat.DefaultChannel {
		bucket = "default"
	}
	m.MessagesPosted.WithLabelValues(bucket).Inc()
}

// ObserveBuild is meant for oracle.Native.OnBuild.
func (m *Metrics) ObserveBuild(err error) {
	m.NativeBuilds.WithLabelValues(result(err)).Inc()
}

// InstrumentOracle counts every call made through o.
func (m *Metrics) InstrumentOracle(o oracle.Oracle) oracle.Oracle {
	return oracle.Func(func(ctx context.Context, kind oracle.Kind, args ...string) (string, error) {
		id, err := o.Generate(ctx, kind, args...)
		m.OracleCalls.WithLabelValues(string(kind), result(err)).Inc()
		return id, err
	})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
