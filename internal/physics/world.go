// Package physics implements the rigid-body simulation core for the arcade
// space scene: body bookkeeping, semi-implicit Euler integration, a uniform
// hash-grid broad phase, sphere-sphere narrow-phase detection with
// impulse-based resolution, and ray casting for hit-scan queries.
//
// The package is single-threaded by design. One Step call runs the whole
// pipeline to completion before returning: integration for every body, then
// a full grid rebuild, then the collision scan. Later pairs in a scan see
// the already-corrected state of earlier pairs; that ordering dependency is
// accepted for an arcade simulation.
package physics

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/physics/spatial"
)

// Config holds the world-level simulation constants.
type Config struct {
	// CellSize is the broad-phase cell edge length.
	CellSize float64

	// Gravity is the ambient gravity constant applied along -Y to bodies
	// with mass. Zero for the space scene.
	Gravity float64
}

// DefaultConfig returns the configuration used by the space-combat scene.
func DefaultConfig() Config {
	return Config{CellSize: spatial.DefaultCellSize}
}

// World owns the set of simulated bodies and the broad-phase grid.
// It never owns the game objects behind the bodies; removing a body from
// the world is the only teardown the physics engine requires.
type World struct {
	bodies  []*Body
	grid    *spatial.Grid
	gravity float64

	// events is the contact list for the current step, reused across steps.
	events []CollisionEvent

	// narrowTests counts narrow-phase distance tests since creation.
	// Exposed through Stats for metrics and broad-phase culling tests.
	narrowTests uint64

	// contacts counts resolved collision pairs since creation.
	contacts uint64

	// raycasts counts Raycast queries since creation. Atomic because
	// Raycast promises not to mutate world state under the caller's lock.
	raycasts atomic.Uint64
}

// NewWorld creates an empty world.
func NewWorld(cfg Config) *World {
	return &World{
		bodies: make([]*Body, 0, 64),
		grid:   spatial.NewGrid(cfg.CellSize),
		events: make([]CollisionEvent, 0, 32),

		gravity: cfg.Gravity,
	}
}

// AddBody registers a body for simulation. The body becomes eligible for
// integration and broad-phase placement on the next Step. The caller must
// not add the same body twice; no duplicate detection is performed.
func (w *World) AddBody(b *Body) {
	w.bodies = append(w.bodies, b)
}

// RemoveBody unregisters a body by identity. Removing a body that is not
// present (including a second removal) is a no-op, not an error.
func (w *World) RemoveBody(b *Body) {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// BodyCount returns the number of registered bodies.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Step advances the simulation by dt seconds: integrate every body, rebuild
// the broad-phase grid from the post-integration positions, then detect and
// resolve overlapping pairs.
//
// The returned contact list is valid until the next Step call; per-body
// OnCollision handlers have already been dispatched when Step returns.
func (w *World) Step(dt float64) []CollisionEvent {
	w.integrate(dt)
	w.rebuildGrid()

	w.events = w.events[:0]
	w.detectCollisions()
	w.contacts += uint64(len(w.events))
	w.dispatchHandlers()
	return w.events
}

// rebuildGrid discards last step's grid contents and re-inserts every body
// that has a position and a positive radius. The cell key is cached on the
// body so the candidate-gathering pass does not recompute it.
func (w *World) rebuildGrid() {
	w.grid.Clear()
	for i, b := range w.bodies {
		b.inGrid = false
		if !b.collidable() {
			continue
		}
		b.cellKey = w.grid.Insert(uint32(i), b.Position.X(), b.Position.Y(), b.Position.Z())
		b.inGrid = true
	}
}

// dispatchHandlers fires per-body collision handlers for every contact
// resolved this step. Handlers run after the scan, never inside it, so they
// can safely add or remove bodies.
func (w *World) dispatchHandlers() {
	for _, ev := range w.events {
		if ev.A.OnCollision != nil {
			ev.A.OnCollision(ev.B)
		}
		if ev.B.OnCollision != nil {
			ev.B.OnCollision(ev.A)
		}
	}
}

// WorldStats is a point-in-time view of world internals for metrics.
type WorldStats struct {
	Bodies      int
	NarrowTests uint64
	Contacts    uint64
	Raycasts    uint64
	Grid        spatial.Stats
}

// Stats returns counters and grid occupancy for monitoring.
func (w *World) Stats() WorldStats {
	return WorldStats{
		Bodies:      len(w.bodies),
		NarrowTests: w.narrowTests,
		Contacts:    w.contacts,
		Raycasts:    w.raycasts.Load(),
		Grid:        w.grid.GridStats(),
	}
}

// ApplyForce accumulates a continuous force into the body's acceleration,
// divided by mass when the body has one. Bodies without an acceleration
// vector ignore forces.
func ApplyForce(b *Body, force mgl64.Vec3) {
	if b.Acceleration == nil {
		return
	}
	if m, ok := b.massValue(); ok {
		*b.Acceleration = b.Acceleration.Add(force.Mul(1 / m))
	} else {
		*b.Acceleration = b.Acceleration.Add(force)
	}
}

// ApplyImpulse applies an instantaneous momentum change directly to the
// body's velocity, divided by mass when the body has one.
func ApplyImpulse(b *Body, impulse mgl64.Vec3) {
	if b.Velocity == nil {
		return
	}
	if m, ok := b.massValue(); ok {
		*b.Velocity = b.Velocity.Add(impulse.Mul(1 / m))
	} else {
		*b.Velocity = b.Velocity.Add(impulse)
	}
}
