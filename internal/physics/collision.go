package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// correctionFactor is the fraction of the penetration depth removed per
// resolution. Correcting less than 100% avoids jitter from over-correction.
const correctionFactor = 0.8

// degenerateNormal is the fallback contact normal when two bodies share the
// exact same center and no direction can be derived.
var degenerateNormal = mgl64.Vec3{1, 0, 0}

// CollisionEvent records one resolved contact. The same logical pair can
// appear twice within a step when both bodies' scans re-encounter each
// other while still overlapping after the first partial correction; the
// scan intentionally does not deduplicate.
type CollisionEvent struct {
	A, B *Body
}

// detectCollisions runs the narrow phase: for every body in the grid,
// gather candidates from its cell and the 26 neighbors, filter by
// group/mask, and resolve any sphere overlap immediately. Resolution
// mutates positions and velocities mid-scan, so later pairs observe the
// corrected state of earlier ones.
func (w *World) detectCollisions() {
	for _, a := range w.bodies {
		if !a.inGrid {
			continue
		}
		for _, id := range w.grid.Neighborhood(a.cellKey) {
			b := w.bodies[id]
			if a == b {
				continue
			}
			if !pairAllowed(a, b) {
				continue
			}

			w.narrowTests++
			dist := a.Position.Sub(*b.Position).Len()
			if dist < a.Radius+b.Radius {
				w.resolve(a, b, dist)
			}
		}
	}
}

// pairAllowed applies the group/mask filter in both directions. A side with
// an undeclared mask or an undeclared opposing group is skipped; the pair
// survives only if every applicable directional check passes.
func pairAllowed(a, b *Body) bool {
	if a.Mask != 0 && b.Group != 0 && a.Mask&b.Group == 0 {
		return false
	}
	if b.Mask != 0 && a.Group != 0 && b.Mask&a.Group == 0 {
		return false
	}
	return true
}

// resolve separates an overlapping pair and applies the collision impulse.
//
// Positional correction always happens, split inversely proportional to
// mass when both masses are known and 50/50 otherwise. The velocity impulse
// is skipped entirely for separating contacts: they get pushed apart but
// keep their motion.
func (w *World) resolve(a, b *Body, dist float64) {
	minDist := a.Radius + b.Radius

	normal := degenerateNormal
	if dist > 0 {
		normal = a.Position.Sub(*b.Position).Mul(1 / dist)
	}

	penetration := minDist - dist
	correction := penetration * correctionFactor

	ma, aHasMass := a.massValue()
	mb, bHasMass := b.massValue()

	if aHasMass && bHasMass {
		total := ma + mb
		*a.Position = a.Position.Add(normal.Mul(correction * mb / total))
		*b.Position = b.Position.Sub(normal.Mul(correction * ma / total))
	} else {
		half := normal.Mul(correction * 0.5)
		*a.Position = a.Position.Add(half)
		*b.Position = b.Position.Sub(half)
	}

	if a.Velocity != nil && b.Velocity != nil {
		// normal points from B toward A, so approaching pairs have a
		// positive relative velocity along it. Separating contacts take
		// the positional correction above but never an impulse.
		velAlongNormal := b.Velocity.Sub(*a.Velocity).Dot(normal)
		if velAlongNormal > 0 {
			restitution := math.Min(a.restitutionValue(), b.restitutionValue())

			var j float64
			if aHasMass && bHasMass {
				j = -(1 + restitution) * velAlongNormal / (1/ma + 1/mb)
			} else {
				j = -(1 + restitution) * velAlongNormal * 0.5
			}

			impulse := normal.Mul(j)
			if aHasMass {
				*a.Velocity = a.Velocity.Sub(impulse.Mul(1 / ma))
			} else {
				*a.Velocity = a.Velocity.Sub(impulse)
			}
			if bHasMass {
				*b.Velocity = b.Velocity.Add(impulse.Mul(1 / mb))
			} else {
				*b.Velocity = b.Velocity.Add(impulse)
			}
		}
	}

	w.events = append(w.events, CollisionEvent{A: a, B: b})
}
