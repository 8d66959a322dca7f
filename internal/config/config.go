// Package config provides centralized configuration management.
// This is the single source of truth for simulation and server settings;
// other packages reference these values instead of reading the
// environment themselves.
package config

import (
	"os"
	"strconv"
)

// SimConfig holds the simulation loop settings.
type SimConfig struct {
	TickRate    int     // Simulation steps per second
	CellSize    float64 // Broad-phase grid cell edge length, world units
	WorldExtent float64 // Radius of the playable sphere; bodies beyond it despawn
	Seed        int64   // RNG seed; 0 means derive from wall clock
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:    60,
		CellSize:    500,
		WorldExtent: 10000,
	}
}

// SimFromEnv returns simulation configuration with environment overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if tr := getEnvInt("SIM_TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if cs := getEnvFloat("SIM_CELL_SIZE", 0); cs > 0 {
		cfg.CellSize = cs
	}
	if we := getEnvFloat("SIM_WORLD_EXTENT", 0); we > 0 {
		cfg.WorldExtent = we
	}
	if seed := getEnvInt("SIM_SEED", 0); seed != 0 {
		cfg.Seed = int64(seed)
	}

	return cfg
}

// ResourceLimits caps entity populations so a flood of spawn requests
// cannot blow up step cost or snapshot size.
type ResourceLimits struct {
	MaxShips       int
	MaxDrones      int
	MaxAsteroids   int
	MaxProjectiles int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxShips:       64,
		MaxDrones:      128,
		MaxAsteroids:   256,
		MaxProjectiles: 512,
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{Port: 3000}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	return cfg
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim    SimConfig
	Server ServerConfig
	Limits ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:    SimFromEnv(),
		Server: ServerFromEnv(),
		Limits: DefaultLimits(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
