package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RayHit describes the closest body intersected by a raycast.
type RayHit struct {
	Body     *Body
	Point    mgl64.Vec3 // world-space intersection point
	Distance float64    // along the ray from its origin
	Normal   mgl64.Vec3 // outward surface normal at the hit point
}

// Raycast tests a ray against the bounding sphere of every registered body
// and returns the closest hit within maxDistance, or nil. A non-zero mask
// skips bodies whose declared group does not intersect it.
//
// This is a linear scan, not grid-accelerated: hit-scan queries are rare
// relative to body count. Apart from an atomic query counter the call
// mutates no state and is safe any number of times per step.
func (w *World) Raycast(origin, direction mgl64.Vec3, maxDistance float64, mask uint32) *RayHit {
	w.raycasts.Add(1)

	length := direction.Len()
	if length == 0 {
		return nil
	}
	dir := direction.Mul(1 / length)

	var best *RayHit
	for _, b := range w.bodies {
		if !b.collidable() {
			continue
		}
		if mask != 0 && b.Group != 0 && mask&b.Group == 0 {
			continue
		}

		t, ok := raySphere(origin, dir, *b.Position, b.Radius)
		if !ok || t >= maxDistance {
			continue
		}
		if best != nil && t >= best.Distance {
			continue
		}

		point := origin.Add(dir.Mul(t))
		best = &RayHit{
			Body:     b,
			Point:    point,
			Distance: t,
			Normal:   point.Sub(*b.Position).Normalize(),
		}
	}
	return best
}

// raySphere is the geometric ray-sphere test. dir must be unit length.
// Returns the smallest non-negative distance along the ray, preferring the
// near intersection and falling back to the far one when the origin is
// inside the sphere.
func raySphere(origin, dir, center mgl64.Vec3, radius float64) (float64, bool) {
	oc := center.Sub(origin)
	tca := oc.Dot(dir)
	d2 := oc.Dot(oc) - tca*tca
	r2 := radius * radius
	if d2 > r2 {
		return 0, false
	}

	thc := math.Sqrt(r2 - d2)
	t := tca - thc
	if t < 0 {
		t = tca + thc
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
