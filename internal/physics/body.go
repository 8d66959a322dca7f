package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/physics/spatial"
)

// Collision categories. Power-of-two bit flags, combinable into masks.
const (
	GroupShip       uint32 = 1
	GroupProjectile uint32 = 2
	GroupObstacle   uint32 = 4
	GroupPowerup    uint32 = 8
)

// DefaultRestitution applies when a body does not set its own.
const DefaultRestitution = 0.2

// Body is a simulated rigid body approximated by a bounding sphere.
//
// The owning entity (ship, drone, asteroid, projectile) keeps ownership of
// the body and must remove it from the world when the entity is destroyed.
// Optional fields are pointers: nil means "unset" and the stage that needs
// the field skips the body (or falls back) rather than failing.
//
// Position, Velocity and Acceleration are mutated in place by the world and
// may be shared with the owning entity.
type Body struct {
	Position     *mgl64.Vec3
	Velocity     *mgl64.Vec3
	Acceleration *mgl64.Vec3

	// Radius is the collision sphere radius. A body with Radius <= 0 or no
	// Position is valid but invisible to collision detection and raycasts.
	Radius float64

	// Mass in arbitrary units. nil (or a non-finite or non-positive value)
	// means infinite/unspecified mass: mass-weighted formulas fall back to
	// the simplified massless branches instead of dividing.
	Mass *float64

	// Restitution in [0,1]; nil means DefaultRestitution.
	Restitution *float64

	// Damping scales velocity by (1 - Damping*dt) each step when set.
	Damping *float64

	// Group is the category this body belongs to; Mask is the set of
	// categories it is willing to collide with. A zero value means
	// "undeclared": that side of the pair filter is skipped.
	Group uint32
	Mask  uint32

	// ResetAcceleration zeroes Acceleration after each integration step so
	// continuous forces must be re-applied every step. Left false, the
	// acceleration persists, which suits constant-thrust bodies.
	ResetAcceleration bool

	// OnCollision, when set, is invoked once per resolved contact on both
	// members of the pair, after the step's collision scan has finished.
	OnCollision func(other *Body)

	// UserData is an opaque back-reference for the owning entity.
	UserData any

	// Broad-phase cell occupied this step; valid only while inGrid is set.
	cellKey spatial.CellKey
	inGrid  bool
}

// Scalar returns a pointer to v, for the optional scalar fields on Body.
func Scalar(v float64) *float64 { return &v }

// Vec returns a pointer to a new vector, for the vector fields on Body.
func Vec(x, y, z float64) *mgl64.Vec3 {
	v := mgl64.Vec3{x, y, z}
	return &v
}

// collidable reports whether the body participates in collision detection
// and raycasts at all.
func (b *Body) collidable() bool {
	return b.Position != nil && b.Radius > 0
}

// massValue returns the body's mass and whether it is finite and usable as
// a divisor. Zero, negative, NaN and infinite masses are treated the same
// as an absent mass.
func (b *Body) massValue() (float64, bool) {
	if b.Mass == nil {
		return 0, false
	}
	m := *b.Mass
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, false
	}
	return m, true
}

// restitutionValue returns the body's restitution or the default.
func (b *Body) restitutionValue() float64 {
	if b.Restitution == nil {
		return DefaultRestitution
	}
	return *b.Restitution
}
