package sim

import (
	"sync/atomic"
	"time"

	"starclash/internal/config"
)

// ShipSnapshot is an immutable copy of ship state for clients.
// Uses value types (not pointers) to ensure immutability.
type ShipSnapshot struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
	HP       int        `json:"hp"`
	MaxHP    int        `json:"maxHp"`
	Weapon   string     `json:"weapon"`
	Kills    int        `json:"kills"`
	Deaths   int        `json:"deaths"`
}

// DroneSnapshot is an immutable drone state
type DroneSnapshot struct {
	ID       string     `json:"id"`
	OwnerID  string     `json:"ownerId"`
	Position [3]float64 `json:"position"`
	HP       int        `json:"hp"`
}

// AsteroidSnapshot is an immutable asteroid state
type AsteroidSnapshot struct {
	ID       string     `json:"id"`
	Position [3]float64 `json:"position"`
	Radius   float64    `json:"radius"`
	HP       int        `json:"hp"`
}

// ProjectileSnapshot is an immutable projectile state
type ProjectileSnapshot struct {
	ID       string     `json:"id"`
	OwnerID  string     `json:"ownerId"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

// PowerupSnapshot is an immutable powerup state
type PowerupSnapshot struct {
	ID       string     `json:"id"`
	Kind     string     `json:"kind"`
	Position [3]float64 `json:"position"`
}

// SceneSnapshot is a complete immutable scene state for clients.
// All slices are pre-allocated and capped.
type SceneSnapshot struct {
	Sequence   uint64    `json:"sequence"`  // Monotonic sequence for ordering
	Timestamp  time.Time `json:"timestamp"` // When the snapshot was created
	TickNumber uint64    `json:"tickNumber"`
	RNGSeed    int64     `json:"rngSeed"` // Seed for deterministic replay

	Ships       []ShipSnapshot       `json:"ships"`
	Drones      []DroneSnapshot      `json:"drones"`
	Asteroids   []AsteroidSnapshot   `json:"asteroids"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
	Powerups    []PowerupSnapshot    `json:"powerups"`

	// Aggregate stats
	BodyCount   int    `json:"bodyCount"`
	TotalKills  int    `json:"totalKills"`
	NarrowTests uint64 `json:"narrowTests"`
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Uses triple buffering for lock-free producer/consumer.
type SnapshotPool struct {
	snapshots [3]SceneSnapshot
	limits    config.ResourceLimits
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(limits config.ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}

	for i := 0; i < 3; i++ {
		pool.snapshots[i] = SceneSnapshot{
			Ships:       make([]ShipSnapshot, 0, limits.MaxShips),
			Drones:      make([]DroneSnapshot, 0, limits.MaxDrones),
			Asteroids:   make([]AsteroidSnapshot, 0, limits.MaxAsteroids),
			Projectiles: make([]ProjectileSnapshot, 0, limits.MaxProjectiles),
			Powerups:    make([]PowerupSnapshot, 0, limits.MaxAsteroids),
		}
	}

	return pool
}

// AcquireWrite gets the next write slot (producer only, called from the tick).
// Returns a snapshot with reset slices but preserved capacity.
func (p *SnapshotPool) AcquireWrite() *SceneSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Ships = snap.Ships[:0]
	snap.Drones = snap.Drones[:0]
	snap.Asteroids = snap.Asteroids[:0]
	snap.Projectiles = snap.Projectiles[:0]
	snap.Powerups = snap.Powerups[:0]

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite marks write complete and advances the read pointer.
// Called after the snapshot is fully populated.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest complete snapshot (consumer only)
func (p *SnapshotPool) AcquireRead() *SceneSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() config.ResourceLimits {
	return p.limits
}
