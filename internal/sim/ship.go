package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/physics"
)

// Ship tuning constants
const (
	ShipRadius      = 40.0
	ShipMass        = 100.0
	ShipMaxHP       = 100
	ShipDamping     = 0.4 // Linear drag so ships coast to a stop
	ShipThrustForce = 8000.0
	ShipMaxSpeed    = 600.0 // World units per second
)

// Ship is a player-controlled combat vessel. It owns a physics body;
// the engine reads and writes the body under its own lock.
type Ship struct {
	ID   string
	Name string

	Body *physics.Body

	HP     int
	MaxHP  int
	Weapon string

	Kills  int
	Deaths int

	// Thrust is the current steering input, a direction vector scaled
	// to [0,1]. Applied as a force each tick while non-zero.
	Thrust mgl64.Vec3

	// Weapon cooldown, ticks until the next shot is allowed
	CooldownTicks int

	destroyed   bool
	bodyInWorld bool
}

// NewShip creates a ship with a physics body at the given position.
// The body is not registered with a world; the engine does that.
func NewShip(id, name string, pos mgl64.Vec3) *Ship {
	s := &Ship{
		ID:     id,
		Name:   name,
		HP:     ShipMaxHP,
		MaxHP:  ShipMaxHP,
		Weapon: DefaultWeaponID,
	}
	s.Body = &physics.Body{
		Position:          physics.Vec(pos.X(), pos.Y(), pos.Z()),
		Velocity:          physics.Vec(0, 0, 0),
		Acceleration:      physics.Vec(0, 0, 0),
		Radius:            ShipRadius,
		Mass:              physics.Scalar(ShipMass),
		Damping:           physics.Scalar(ShipDamping),
		Group:             physics.GroupShip,
		Mask:              physics.GroupShip | physics.GroupProjectile | physics.GroupObstacle | physics.GroupPowerup,
		ResetAcceleration: true,
	}
	s.Body.UserData = s
	return s
}

// TakeDamage reduces HP and marks the ship destroyed at zero.
// Returns true if this hit destroyed the ship.
func (s *Ship) TakeDamage(amount int) bool {
	if s.destroyed {
		return false
	}
	s.HP -= amount
	if s.HP <= 0 {
		s.HP = 0
		s.destroyed = true
		return true
	}
	return false
}

// Heal restores HP up to the maximum
func (s *Ship) Heal(amount int) {
	if s.destroyed {
		return
	}
	s.HP += amount
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
}

// Destroyed reports whether the ship has been destroyed
func (s *Ship) Destroyed() bool {
	return s.destroyed
}

// applyThrust converts the steering input into a force on the body and
// clamps speed. Called each tick by the engine.
func (s *Ship) applyThrust() {
	if s.Thrust.Len() > 0 {
		dir := s.Thrust
		if dir.Len() > 1 {
			dir = dir.Normalize()
		}
		physics.ApplyForce(s.Body, dir.Mul(ShipThrustForce))
	}

	if v := s.Body.Velocity; v != nil {
		if speed := v.Len(); speed > ShipMaxSpeed {
			*s.Body.Velocity = v.Normalize().Mul(ShipMaxSpeed)
		}
	}
}

func shipID(tick int64, name string) string {
	return fmt.Sprintf("ship_%d_%s", tick, name)
}
