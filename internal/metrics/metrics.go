package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	workerSpawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskvisor",
			Subsystem: "worker",
			Name:      "spawns_total",
			Help:      "Worker spawn attempts by result (ok, error).",
		}, []string{"result"},
	)
	workerStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deskvisor",
			Subsystem: "worker",
			Name:      "stops_total",
			Help:      "Termination signals sent to the worker.",
		},
	)
	workerExits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deskvisor",
			Subsystem: "worker",
			Name:      "exits_total",
			Help:      "Observed worker exits, expected or not.",
		},
	)
	healthChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskvisor",
			Subsystem: "worker",
			Name:      "health_checks_total",
			Help:      "Health probes by outcome (ok, status, timeout, unreachable, canceled).",
		}, []string{"result"},
	)
	healthCheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "deskvisor",
			Subsystem: "worker",
			Name:      "health_check_duration_seconds",
			Help:      "Wall time of a single health probe.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 2.5},
		},
	)
	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "deskvisor",
			Subsystem: "worker",
			Name:      "state",
			Help:      "Supervisor state (1 = current state, 0 = not).",
		}, []string{"state"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{workerSpawns, workerStops, workerExits, healthChecks, healthCheckDuration, currentState}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncSpawn(ok bool) {
	if regOK.Load() {
		result := "ok"
		if !ok {
			result = "error"
		}
		workerSpawns.WithLabelValues(result).Inc()
	}
}

func IncStop() {
	if regOK.Load() {
		workerStops.Inc()
	}
}

func IncExit() {
	if regOK.Load() {
		workerExits.Inc()
	}
}

func ObserveHealthCheck(result string, seconds float64) {
	if regOK.Load() {
		healthChecks.WithLabelValues(result).Inc()
		healthCheckDuration.Observe(seconds)
	}
}

// SetState marks state as current and every other known state as inactive.
func SetState(state string, all []string) {
	if regOK.Load() {
		for _, s := range all {
			v := 0.0
			if s == state {
				v = 1
			}
			currentState.WithLabelValues(s).Set(v)
		}
	}
}
