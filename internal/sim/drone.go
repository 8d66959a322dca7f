package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/physics"
)

// Drone tuning constants
const (
	DroneRadius      = 15.0
	DroneMass        = 10.0
	DroneMaxHP       = 20
	DroneDamping     = 0.2
	DroneThrustForce = 400.0
	DroneOrbitRange  = 200.0 // Preferred distance from the owner ship
	DroneFireRange   = 800.0
	DroneDamage      = 4
	DroneFireTicks   = 45 // Cooldown between drone shots
)

// Drone is an autonomous escort that follows its owner ship and fires
// at the nearest hostile within range.
type Drone struct {
	ID      string
	OwnerID string

	Body *physics.Body

	HP            int
	CooldownTicks int

	destroyed bool
}

// NewDrone creates a drone near the given spawn position
func NewDrone(id, ownerID string, pos mgl64.Vec3) *Drone {
	d := &Drone{
		ID:      id,
		OwnerID: ownerID,
		HP:      DroneMaxHP,
	}
	d.Body = &physics.Body{
		Position:          physics.Vec(pos.X(), pos.Y(), pos.Z()),
		Velocity:          physics.Vec(0, 0, 0),
		Acceleration:      physics.Vec(0, 0, 0),
		Radius:            DroneRadius,
		Mass:              physics.Scalar(DroneMass),
		Damping:           physics.Scalar(DroneDamping),
		Group:             physics.GroupShip,
		Mask:              physics.GroupShip | physics.GroupProjectile | physics.GroupObstacle,
		ResetAcceleration: true,
	}
	d.Body.UserData = d
	return d
}

// TakeDamage reduces HP and marks the drone destroyed at zero.
// Returns true if this hit destroyed the drone.
func (d *Drone) TakeDamage(amount int) bool {
	if d.destroyed {
		return false
	}
	d.HP -= amount
	if d.HP <= 0 {
		d.HP = 0
		d.destroyed = true
		return true
	}
	return false
}

// steer accelerates the drone toward its orbit point around the owner.
// If the owner is gone the drone drifts until swept.
func (d *Drone) steer(owner *Ship) {
	if owner == nil || owner.Body.Position == nil || d.Body.Position == nil {
		return
	}

	toOwner := owner.Body.Position.Sub(*d.Body.Position)
	dist := toOwner.Len()
	if dist <= DroneOrbitRange || dist == 0 {
		return
	}

	// Thrust harder the further the drone has fallen behind
	strength := DroneThrustForce
	if dist > DroneOrbitRange*4 {
		strength *= 2
	}
	physics.ApplyForce(d.Body, toOwner.Mul(1/dist).Mul(strength))
}

func droneID(tick int64, ownerID string, n int) string {
	return fmt.Sprintf("drone_%d_%s_%d", tick, ownerID, n)
}
