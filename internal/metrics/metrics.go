package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playcore",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "playcore",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	LoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playcore",
		Name:      "loads_total",
		Help:      "Total video loads by detected format.",
	}, []string{"format"})

	LoadFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playcore",
		Name:      "load_failures_total",
		Help:      "Total failed video loads by detected format.",
	}, []string{"format"})

	PlayerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "playcore",
		Name:      "player_state",
		Help:      "Current player state as a one-hot gauge per state label.",
	}, []string{"state"})

	EngineRecoveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playcore",
		Name:      "engine_recoveries_total",
		Help:      "Total engine error recoveries by class.",
	}, []string{"class"})

	BackendModuleLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playcore",
		Name:      "backend_module_loads_total",
		Help:      "Total backend module loads by format and outcome.",
	}, []string{"format", "outcome"})

	DownloadSpeedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playcore",
		Name:      "swarm_download_speed_bytes",
		Help:      "Current swarm download speed in bytes per second.",
	})

	UploadSpeedBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playcore",
		Name:      "swarm_upload_speed_bytes",
		Help:      "Current swarm upload speed in bytes per second.",
	})

	SwarmProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playcore",
		Name:      "swarm_progress_ratio",
		Help:      "Download progress of the selected file, 0 to 1.",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playcore",
		Name:      "swarm_peers_connected",
		Help:      "Number of peers connected to the active swarm session.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		LoadsTotal,
		LoadFailuresTotal,
		PlayerState,
		EngineRecoveriesTotal,
		BackendModuleLoadsTotal,
		DownloadSpeedBytes,
		UploadSpeedBytes,
		SwarmProgress,
		PeersConnected,
	)
}

// SetPlayerState flips the one-hot state gauge to the given state.
func SetPlayerState(states []string, current string) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1.0
		}
		PlayerState.WithLabelValues(s).Set(v)
	}
}
