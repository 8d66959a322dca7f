package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"starclash/internal/api"
	"starclash/internal/config"
	"starclash/internal/sim"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🚀 ================================")
	log.Println("🚀  STARCLASH - SIMULATION CORE")
	log.Println("🚀 ================================")

	// Centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	simCfg := appConfig.Sim
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: %d TPS, cell size %.0f, world extent %.0f",
		simCfg.TickRate, simCfg.CellSize, simCfg.WorldExtent)
	if simCfg.Seed != 0 {
		log.Printf("🎲 Deterministic seed: %d", simCfg.Seed)
	}

	engine := sim.NewEngine(simCfg, appConfig.Limits)
	limits := engine.GetLimits()
	log.Printf("🛡️ Resource limits: %d ships, %d drones, %d asteroids, %d projectiles",
		limits.MaxShips, limits.MaxDrones, limits.MaxAsteroids, limits.MaxProjectiles)

	// Populate the arena before anyone connects
	asteroids := getEnvInt("SEED_ASTEROIDS", 24)
	powerups := getEnvInt("SEED_POWERUPS", 6)
	engine.SeedField(asteroids, powerups)

	// Start event log
	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	if err := engine.StartEventLog(eventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else {
		log.Printf("📝 Event log: %s", eventLogPath)
	}

	// Start debug server (pprof + metrics)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Metrics observer must be wired before the tick loop starts
	engine.SetStepObserver(api.RecordStep)

	server := api.NewServer(engine)

	engine.Start()
	log.Println("✅ Simulation engine started")

	go func() {
		addr := fmt.Sprintf(":%d", serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("📡 WebSocket: ws://localhost%s/ws", addr)
		log.Printf("🗺️ Radar: http://localhost%s/api/radar.png", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	engine.StopEventLog()
	engine.Stop()
	log.Println("👋 Goodbye!")
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
