package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"starclash/internal/physics"
	"starclash/internal/sim"
)

// Metrics with bounded cardinality (no per-ship labels to prevent DoS)
var (
	// Simulation metrics
	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_step_duration_seconds",
		Help:    "Time spent in one simulation step",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	bodyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_body_count",
		Help: "Bodies currently registered in the physics world",
	})

	gridCellCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_grid_cells",
		Help: "Occupied broad-phase grid cells",
	})

	entityCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_entities",
		Help: "Live entities by kind",
	}, []string{"kind"}) // Bounded: "ship", "drone", "asteroid", "projectile", "powerup"

	narrowTestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_narrow_tests_total",
		Help: "Sphere-sphere tests performed by the narrow phase",
	})

	contactsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_contacts_total",
		Help: "Collision pairs resolved",
	})

	raycastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_raycasts_total",
		Help: "Raycast queries executed",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is path pattern, not full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be "127.0.0.1:6060" in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// StartDebugServer starts the internal observability server.
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	// SECURITY: Validate address is localhost
	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Last-seen world counter values so the monotonic Prometheus counters
// only receive deltas. Touched only from the tick goroutine.
var (
	narrowTestsSeen uint64
	contactsSeen    uint64
	raycastsSeen    uint64
)

// RecordStep publishes per-tick simulation metrics. Installed on the
// engine via SetStepObserver.
func RecordStep(d time.Duration, stats physics.WorldStats) {
	stepDuration.Observe(d.Seconds())
	bodyCount.Set(float64(stats.Bodies))
	gridCellCount.Set(float64(stats.Grid.TotalCells))

	if stats.NarrowTests >= narrowTestsSeen {
		narrowTestsTotal.Add(float64(stats.NarrowTests - narrowTestsSeen))
	}
	narrowTestsSeen = stats.NarrowTests

	if stats.Contacts >= contactsSeen {
		contactsTotal.Add(float64(stats.Contacts - contactsSeen))
	}
	contactsSeen = stats.Contacts

	if stats.Raycasts >= raycastsSeen {
		raycastsTotal.Add(float64(stats.Raycasts - raycastsSeen))
	}
	raycastsSeen = stats.Raycasts
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateEntityGauges publishes per-kind entity counts from a snapshot
func UpdateEntityGauges(snap *sim.SceneSnapshot) {
	entityCount.WithLabelValues("ship").Set(float64(len(snap.Ships)))
	entityCount.WithLabelValues("drone").Set(float64(len(snap.Drones)))
	entityCount.WithLabelValues("asteroid").Set(float64(len(snap.Asteroids)))
	entityCount.WithLabelValues("projectile").Set(float64(len(snap.Projectiles)))
	entityCount.WithLabelValues("powerup").Set(float64(len(snap.Powerups)))
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
