package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/physics"
)

// Asteroid tuning constants
const (
	AsteroidMinRadius   = 30.0
	AsteroidDensity     = 0.02 // Mass per cubic unit of radius
	AsteroidRestitution = 0.6  // Rocks bounce harder than hulls
	AsteroidHPPerRadius = 0.5
	AsteroidSplitFactor = 0.55 // Fragment radius relative to parent
)

// Asteroid is a drifting obstacle. Large asteroids split into two
// fragments when destroyed; fragments below the minimum radius just
// disappear.
type Asteroid struct {
	ID string

	Body *physics.Body

	HP int

	destroyed bool
}

// NewAsteroid creates an asteroid with mass derived from its radius
func NewAsteroid(id string, pos, vel mgl64.Vec3, radius float64) *Asteroid {
	if radius < AsteroidMinRadius {
		radius = AsteroidMinRadius
	}
	a := &Asteroid{
		ID: id,
		HP: int(radius * AsteroidHPPerRadius),
	}
	a.Body = &physics.Body{
		Position:    physics.Vec(pos.X(), pos.Y(), pos.Z()),
		Velocity:    physics.Vec(vel.X(), vel.Y(), vel.Z()),
		Radius:      radius,
		Mass:        physics.Scalar(AsteroidDensity * radius * radius * radius),
		Restitution: physics.Scalar(AsteroidRestitution),
		Group:       physics.GroupObstacle,
		Mask:        physics.GroupShip | physics.GroupProjectile | physics.GroupObstacle,
	}
	a.Body.UserData = a
	return a
}

// TakeDamage reduces HP and marks the asteroid destroyed at zero.
// Returns true if this hit destroyed the asteroid.
func (a *Asteroid) TakeDamage(amount int) bool {
	if a.destroyed {
		return false
	}
	a.HP -= amount
	if a.HP <= 0 {
		a.HP = 0
		a.destroyed = true
		return true
	}
	return false
}

// CanSplit reports whether destroying this asteroid yields fragments
func (a *Asteroid) CanSplit() bool {
	return a.Body.Radius*AsteroidSplitFactor >= AsteroidMinRadius
}

func asteroidID(tick int64, n int) string {
	return fmt.Sprintf("ast_%d_%d", tick, n)
}
