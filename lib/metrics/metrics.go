// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus instruments of one shardfs
// process and serves them over HTTP.
//
// Each [Metrics] owns its registry rather than using the global default,
// so several routers and nodes can run in one test binary.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics is the instrument set of one router or storage node.
type Metrics struct {
	registry *prometheus.Registry

	// Requests counts handled commands by verb and result.
	Requests *prometheus.CounterVec

	// Duration observes command handling time by verb.
	Duration *prometheus.HistogramVec

	// Bytes counts payload bytes by direction ("in" or "out").
	Bytes *prometheus.CounterVec

	// ForwardFailures counts uploads whose staged copy was retained
	// because forwarding to a storage node failed, by node and reason.
	ForwardFailures *prometheus.CounterVec

	// Connections is the number of connections being served.
	Connections prometheus.Gauge
}

// New creates the instruments on a fresh registry. Every series carries
// a constant role label ("router" or the node's type name).
func New(role string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"role": role}, registry))

	return &Metrics{
		registry: registry,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardfs",
			Name:      "requests_total",
			Help:      "Commands handled, by verb and result.",
		}, []string{"verb", "result"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shardfs",
			Name:      "request_duration_seconds",
			Help:      "Command handling time in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"verb"}),
		Bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardfs",
			Name:      "transfer_bytes_total",
			Help:      "Payload bytes moved, by direction.",
		}, []string{"direction"}),
		ForwardFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardfs",
			Name:      "forward_failures_total",
			Help:      "Uploads retained on the router after a failed forward, by node and reason.",
		}, []string{"node", "reason"}),
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "shardfs",
			Name:      "active_connections",
			Help:      "Connections currently being served.",
		}),
	}
}

// Registry returns the registry holding the instruments.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one handled command.
func (m *Metrics) ObserveRequest(verb string, err error, started time.Time) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.Requests.WithLabelValues(verb, result).Inc()
	m.Duration.WithLabelValues(verb).Observe(time.Since(started).Seconds())
}

// AddBytes records payload bytes moved in direction "in" or "out".
func (m *Metrics) AddBytes(direction string, n int64) {
	if n > 0 {
		m.Bytes.WithLabelValues(direction).Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on address until ctx is cancelled. An empty
// address disables the endpoint and Serve returns nil immediately.
func (m *Metrics) Serve(ctx context.Context, address string, logger *slog.Logger) error {
	if address == "" {
		return nil
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownContext)
	}()

	logger.Info("metrics endpoint listening", "address", listener.Addr().String())
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
