package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/physics"
)

// Projectile tuning constants
const (
	ProjectileRadius = 5.0
	ProjectileMass   = 0.5
)

// Projectile is a fired round. It lives for a fixed number of ticks
// and is spent on the first thing it hits.
type Projectile struct {
	ID      string
	OwnerID string

	Body *physics.Body

	Damage     int
	TimerTicks int

	spent bool
}

// NewProjectile creates a round travelling along dir from pos.
// dir must already be normalized.
func NewProjectile(id, ownerID string, pos, dir mgl64.Vec3, weapon Weapon, tickRate int) *Projectile {
	p := &Projectile{
		ID:         id,
		OwnerID:    ownerID,
		Damage:     weapon.Damage,
		TimerTicks: int(weapon.Lifetime * float64(tickRate)),
	}
	vel := dir.Mul(weapon.Speed)
	p.Body = &physics.Body{
		Position: physics.Vec(pos.X(), pos.Y(), pos.Z()),
		Velocity: physics.Vec(vel.X(), vel.Y(), vel.Z()),
		Radius:   ProjectileRadius,
		Mass:     physics.Scalar(ProjectileMass),
		Group:    physics.GroupProjectile,
		// No projectile-on-projectile or powerup hits
		Mask: physics.GroupShip | physics.GroupObstacle,
	}
	p.Body.UserData = p
	return p
}

// Update decrements the lifetime. Returns false when the projectile
// should be removed.
func (p *Projectile) Update() bool {
	if p.spent {
		return false
	}
	p.TimerTicks--
	return p.TimerTicks > 0
}

// Spend marks the projectile consumed so the sweep removes it
func (p *Projectile) Spend() {
	p.spent = true
}

// Spent reports whether the projectile already hit something
func (p *Projectile) Spent() bool {
	return p.spent
}

func projectileID(tick int64, ownerID string) string {
	return fmt.Sprintf("proj_%d_%s", tick, ownerID)
}
