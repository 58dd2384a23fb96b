// Package metrics exposes Prometheus counters and gauges for the
// application manager: the signals this subsystem actually produces,
// nothing more.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application manager's Prometheus instruments.
type Metrics struct {
	StartsTotal       prometheus.Counter
	QuitsTotal        prometheus.Counter
	ForceDeletesTotal prometheus.Counter
	LoadFailures      *prometheus.CounterVec
	TicksDropped      prometheus.Counter
	ButtonsDropped    prometheus.Counter
	GuestRunning      prometheus.Gauge
	ManifestApps      prometheus.Gauge
}

// New creates and registers a fresh set of instruments against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// default registry across test runs.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		StartsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "appmanager_starts_total",
			Help: "Total number of app start requests accepted by the controller.",
		}),
		QuitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "appmanager_quits_total",
			Help: "Total number of APP_QUIT messages delivered to a guest.",
		}),
		ForceDeletesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "appmanager_force_deletes_total",
			Help: "Total number of guest tasks removed by unconditional force-delete.",
		}),
		LoadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "appmanager_load_failures_total",
			Help: "Total number of failed loads, by error kind.",
		}, []string{"kind"}),
		TicksDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "appmanager_ticks_dropped_total",
			Help: "Total number of ISR tick posts dropped because msg_q was full.",
		}),
		ButtonsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "appmanager_buttons_dropped_total",
			Help: "Total number of button posts that timed out against msg_q.",
		}),
		GuestRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "appmanager_guest_running",
			Help: "1 if a guest task is currently alive, 0 otherwise.",
		}),
		ManifestApps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "appmanager_manifest_apps",
			Help: "Number of applications currently in the manifest.",
		}),
	}
}
