package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/sim"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the
// full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	// Lock-free snapshot: no engine mutex contention on polling clients
	writeJSON(w, h.engine.GetSnapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	writeJSON(w, map[string]interface{}{
		"engine":   stats,
		"eventLog": h.engine.GetEventLogStats(),
		"limits":   h.engine.GetLimits(),
	})
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	snapshot := h.engine.GetSnapshot()

	ships := make([]sim.ShipSnapshot, len(snapshot.Ships))
	copy(ships, snapshot.Ships)

	// STABLE SORT by kills (descending), then by name for consistency
	sort.SliceStable(ships, func(i, j int) bool {
		if ships[i].Kills != ships[j].Kills {
			return ships[i].Kills > ships[j].Kills
		}
		return ships[i].Name < ships[j].Name
	})

	limit := 10
	if len(ships) < limit {
		limit = len(ships)
	}
	writeJSON(w, ships[:limit])
}

func (h *routerHandlers) handleShipJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "Name is required", http.StatusBadRequest)
		return
	}

	ship, err := h.engine.AddShip(req.Name)
	if err != nil {
		// Ship flooding gets 503, not 500
		if errors.Is(err, sim.ErrShipLimit) {
			writeError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"id":     ship.ID,
		"name":   ship.Name,
		"hp":     ship.HP,
		"weapon": ship.Weapon,
	})
}

func (h *routerHandlers) handleShipLeave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	h.engine.RemoveShip(req.Name)
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleShipThrust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string  `json:"name"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Z    float64 `json:"z"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.engine.SetThrust(req.Name, mgl64.Vec3{req.X, req.Y, req.Z}); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleShipWeapon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		WeaponID string `json:"weaponId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.engine.SetWeapon(req.Name, req.WeaponID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleFire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string  `json:"name"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Z    float64 `json:"z"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.engine.Fire(req.Name, mgl64.Vec3{req.X, req.Y, req.Z}); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleAddDrone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner string `json:"owner"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	drone, err := h.engine.AddDrone(req.Owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]string{"id": drone.ID, "ownerId": drone.OwnerID})
}

func (h *routerHandlers) handleSpawnAsteroid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Radius float64 `json:"radius"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	asteroid, err := h.engine.SpawnAsteroid(req.Radius)
	if err != nil {
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]interface{}{
		"id":     asteroid.ID,
		"radius": asteroid.Body.Radius,
	})
}

func (h *routerHandlers) handleGetWeapons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, sim.Weapons)
}

func (h *routerHandlers) handleRadar(w http.ResponseWriter, r *http.Request) {
	renderRadar(w, h.engine.GetSnapshot())
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeEngineError maps engine errors onto HTTP status codes
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sim.ErrShipNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, sim.ErrShipDead), errors.Is(err, sim.ErrCoolingDown):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, err.Error(), http.StatusBadRequest)
	}
}
