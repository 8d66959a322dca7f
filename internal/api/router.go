package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/config"
	"starclash/internal/sim"
)

// EngineInterface defines the simulation engine methods used by the API.
// This interface enables mocking for tests without spinning up the full
// tick loop. Keep this minimal - only include methods the API layer
// actually calls.
type EngineInterface interface {
	// GetSnapshot returns the latest lock-free immutable snapshot
	GetSnapshot() *sim.SceneSnapshot
	// Stats returns aggregate engine counters
	Stats() sim.EngineStats
	// AddShip spawns or respawns a ship
	AddShip(name string) (*sim.Ship, error)
	// RemoveShip removes a ship from the scene
	RemoveShip(name string)
	// GetShip returns a ship by name (may be nil)
	GetShip(name string) *sim.Ship
	// SetThrust updates a ship's steering input
	SetThrust(name string, thrust mgl64.Vec3) error
	// SetWeapon switches a ship's equipped weapon
	SetWeapon(name, weaponID string) error
	// Fire shoots the equipped weapon along a direction
	Fire(name string, dir mgl64.Vec3) error
	// AddDrone spawns an escort drone for a ship
	AddDrone(ownerName string) (*sim.Drone, error)
	// SpawnAsteroid adds a rock to the scene
	SpawnAsteroid(radius float64) (*sim.Asteroid, error)
	// GetEventLogStats returns event log counters
	GetEventLogStats() map[string]interface{}
	// GetLimits returns the resource limits in effect
	GetLimits() config.ResourceLimits
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. This struct is designed for dependency injection and
// testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the simulation engine (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses
	// DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default local origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks)
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router
type routerHandlers struct {
	engine EngineInterface
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{engine: cfg.Engine}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Scene state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/radar.png", h.handleRadar)

		// Ship management
		r.Post("/ships/join", h.handleShipJoin)
		r.Post("/ships/leave", h.handleShipLeave)
		r.Post("/ships/thrust", h.handleShipThrust)
		r.Post("/ships/weapon", h.handleShipWeapon)
		r.Post("/ships/fire", h.handleFire)
		r.Post("/ships/drone", h.handleAddDrone)

		// Scene management
		r.Post("/asteroids", h.handleSpawnAsteroid)

		// Reference data
		r.Get("/weapons", h.handleGetWeapons)
	})

	// Health check for load balancers
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
