package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations counts store mutations by operation and outcome
	// ("ok" or the rejection kind).
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auraloom_store_operations_total",
		Help: "Total number of state store operations by result",
	}, []string{"operation", "result"})

	// StorePersistErrors counts failed snapshot writes per backend.
	StorePersistErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auraloom_store_persist_errors_total",
		Help: "Total number of failed state snapshot writes",
	}, []string{"backend"})

	// HTTPRequests counts handled API requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auraloom_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// RealtimeClients is the number of connected state stream clients.
	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auraloom_realtime_clients",
		Help: "Number of connected WebSocket state subscribers",
	})

	// RealtimeDrops counts clients disconnected because their send queue
	// was full.
	RealtimeDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auraloom_realtime_backpressure_drops_total",
		Help: "Total WebSocket clients dropped due to backpressure",
	})
)
