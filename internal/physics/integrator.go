package physics

import "github.com/go-gl/mathgl/mgl64"

// integrate advances every body by dt using semi-implicit Euler: velocity
// first, then position from the updated velocity. Bodies without a position
// or velocity are static for this stage (they may still collide if they
// carry a position and radius).
func (w *World) integrate(dt float64) {
	for _, b := range w.bodies {
		if b.Position == nil || b.Velocity == nil {
			continue
		}

		if b.Acceleration != nil {
			*b.Velocity = b.Velocity.Add(b.Acceleration.Mul(dt))
		}

		*b.Position = b.Position.Add(b.Velocity.Mul(dt))

		// Ambient gravity pulls along -Y, massive bodies only. Zero in the
		// default space configuration.
		if w.gravity != 0 {
			if _, ok := b.massValue(); ok {
				b.Velocity[1] -= w.gravity * dt
			}
		}

		if b.Damping != nil {
			*b.Velocity = b.Velocity.Mul(1 - *b.Damping*dt)
		}

		if b.ResetAcceleration && b.Acceleration != nil {
			*b.Acceleration = mgl64.Vec3{}
		}
	}
}
