package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/physics"
)

// PowerupKind selects the pickup effect
type PowerupKind uint8

const (
	PowerupRepair     PowerupKind = iota // Restores hull HP
	PowerupOvercharge                    // Resets weapon cooldown
)

// Powerup tuning constants
const (
	PowerupRadius       = 25.0
	PowerupRepairAmount = 40
	PowerupLifetimeSec  = 30.0
)

// String returns the wire name of the powerup kind
func (k PowerupKind) String() string {
	switch k {
	case PowerupRepair:
		return "repair"
	case PowerupOvercharge:
		return "overcharge"
	default:
		return "unknown"
	}
}

// Powerup is a floating pickup consumed by the first ship that touches
// it. It has no mass, so contact barely nudges the ship.
type Powerup struct {
	ID   string
	Kind PowerupKind

	Body *physics.Body

	TimerTicks int

	consumed bool
}

// NewPowerup creates a stationary pickup at pos
func NewPowerup(id string, kind PowerupKind, pos mgl64.Vec3, tickRate int) *Powerup {
	pu := &Powerup{
		ID:         id,
		Kind:       kind,
		TimerTicks: int(PowerupLifetimeSec * float64(tickRate)),
	}
	pu.Body = &physics.Body{
		Position: physics.Vec(pos.X(), pos.Y(), pos.Z()),
		Radius:   PowerupRadius,
		Group:    physics.GroupPowerup,
		Mask:     physics.GroupShip, // Only ships can collect
	}
	pu.Body.UserData = pu
	return pu
}

// Update decrements the despawn timer. Returns false when the powerup
// should be removed.
func (pu *Powerup) Update() bool {
	if pu.consumed {
		return false
	}
	pu.TimerTicks--
	return pu.TimerTicks > 0
}

// Apply grants the effect to a ship and marks the powerup consumed.
// Returns false if already consumed.
func (pu *Powerup) Apply(s *Ship) bool {
	if pu.consumed || s.Destroyed() {
		return false
	}
	pu.consumed = true

	switch pu.Kind {
	case PowerupRepair:
		s.Heal(PowerupRepairAmount)
	case PowerupOvercharge:
		s.CooldownTicks = 0
	}
	return true
}

// Consumed reports whether a ship already collected this powerup
func (pu *Powerup) Consumed() bool {
	return pu.consumed
}

func powerupID(tick int64, n int) string {
	return fmt.Sprintf("pow_%d_%d", tick, n)
}
