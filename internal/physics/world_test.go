package physics

import (
	"math"
	"math/rand"
	"testing"
)

// TestAddRemoveBody covers the registry contract: removal by identity,
// no-op removal of absent bodies, double removal.
func TestAddRemoveBody(t *testing.T) {
	w := NewWorld(DefaultConfig())

	a := &Body{Position: Vec(0, 0, 0), Radius: 1}
	b := &Body{Position: Vec(10, 0, 0), Radius: 1}

	w.AddBody(a)
	w.AddBody(b)
	if w.BodyCount() != 2 {
		t.Fatalf("BodyCount = %d, want 2", w.BodyCount())
	}

	w.RemoveBody(a)
	if w.BodyCount() != 1 {
		t.Fatalf("BodyCount after remove = %d, want 1", w.BodyCount())
	}

	// Double removal and removal of a never-added body are no-ops.
	w.RemoveBody(a)
	w.RemoveBody(&Body{})
	if w.BodyCount() != 1 {
		t.Errorf("no-op removals changed count: %d", w.BodyCount())
	}

	w.AddBody(a)
	if w.BodyCount() != 2 {
		t.Errorf("re-adding a removed body failed: %d", w.BodyCount())
	}
}

// TestBroadPhaseCompleteness: bodies closer than one cell width but in
// different cells must still find each other through the neighbor scan.
func TestBroadPhaseCompleteness(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := &Body{Position: Vec(499, 0, 0), Velocity: Vec(0, 0, 0), Radius: 5}
	b := &Body{Position: Vec(501, 0, 0), Velocity: Vec(0, 0, 0), Radius: 5}
	w.AddBody(a)
	w.AddBody(b)

	if events := w.Step(0); len(events) == 0 {
		t.Error("pair straddling a cell boundary was not detected")
	}
}

// TestBroadPhaseCulling: bodies many cells apart must never reach the
// narrow phase, verified through the distance-test counter.
func TestBroadPhaseCulling(t *testing.T) {
	w := NewWorld(DefaultConfig())
	w.AddBody(&Body{Position: Vec(0, 0, 0), Velocity: Vec(0, 0, 0), Radius: 5})
	w.AddBody(&Body{Position: Vec(5000, 0, 0), Velocity: Vec(0, 0, 0), Radius: 5})

	w.Step(1.0 / 60.0)

	if n := w.Stats().NarrowTests; n != 0 {
		t.Errorf("distant pair reached the narrow phase %d times", n)
	}
}

// TestEndToEndCollisionScenario runs the canonical two-ship ram: equal
// masses closing head-on, one step. The overlap must be detected, the
// bodies pushed apart, and the velocities flipped to an 0.2-restitution
// separating pair.
func TestEndToEndCollisionScenario(t *testing.T) {
	const dt = 1.0 / 60.0

	w := NewWorld(DefaultConfig())
	a := &Body{
		Position: Vec(0, 0, 0),
		Velocity: Vec(1, 0, 0),
		Mass:     Scalar(10),
		Radius:   1,
	}
	b := &Body{
		Position: Vec(1.5, 0, 0),
		Velocity: Vec(-1, 0, 0),
		Mass:     Scalar(10),
		Radius:   1,
	}
	w.AddBody(a)
	w.AddBody(b)

	events := w.Step(dt)
	if len(events) == 0 {
		t.Fatal("overlap was not detected")
	}

	// Equal masses, default restitution 0.2, closing speed 2:
	// each body leaves with speed 0.2 pointing away from the other.
	if !almostEqual(a.Velocity.X(), -0.2) {
		t.Errorf("a velocity = %v, want -0.2", a.Velocity.X())
	}
	if !almostEqual(b.Velocity.X(), 0.2) {
		t.Errorf("b velocity = %v, want 0.2", b.Velocity.X())
	}

	gapBefore := 1.5 - 2*dt // center distance after integration, before correction
	gapAfter := b.Position.X() - a.Position.X()
	if gapAfter <= gapBefore {
		t.Errorf("positions not pushed apart: %v -> %v", gapBefore, gapAfter)
	}
}

// TestStepOrdering: integration must finish for all bodies before any
// collision is resolved, so detection sees post-integration positions.
// Two bodies that only overlap after moving must collide in the same step.
func TestStepOrdering(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a := &Body{Position: Vec(0, 0, 0), Velocity: Vec(30, 0, 0), Mass: Scalar(1), Radius: 1}
	b := &Body{Position: Vec(2.4, 0, 0), Velocity: Vec(-30, 0, 0), Mass: Scalar(1), Radius: 1}
	w.AddBody(a)
	w.AddBody(b)

	// After integrating dt=0.01 the gap is 2.4-0.6=1.8 < 2.
	if events := w.Step(0.01); len(events) == 0 {
		t.Error("post-integration overlap missed in the same step")
	}
}

// TestEventsReusedAcrossSteps documents the contact list lifetime: the
// slice returned by Step is only valid until the next Step call.
func TestEventsReusedAcrossSteps(t *testing.T) {
	w := NewWorld(DefaultConfig())
	a, b := overlappingPair()
	w.AddBody(a)
	w.AddBody(b)

	first := w.Step(0)
	if len(first) == 0 {
		t.Fatal("expected contacts on first step")
	}

	w.RemoveBody(a)
	w.RemoveBody(b)
	second := w.Step(0)
	if len(second) != 0 {
		t.Errorf("empty world produced %d contacts", len(second))
	}
}

// BenchmarkStep measures a full pipeline step over a dense asteroid-field
// sized population.
func BenchmarkStep(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	w := NewWorld(DefaultConfig())

	for i := 0; i < 200; i++ {
		w.AddBody(&Body{
			Position: Vec(rng.Float64()*4000-2000, rng.Float64()*4000-2000, rng.Float64()*4000-2000),
			Velocity: Vec(rng.Float64()*20-10, rng.Float64()*20-10, rng.Float64()*20-10),
			Mass:     Scalar(1 + rng.Float64()*99),
			Radius:   5 + rng.Float64()*45,
			Group:    GroupObstacle,
			Mask:     GroupShip | GroupProjectile | GroupObstacle,
		})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Step(1.0 / 60.0)
	}
}

// BenchmarkRaycast measures the linear-scan hit query against the same
// population size.
func BenchmarkRaycast(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	w := NewWorld(DefaultConfig())
	for i := 0; i < 200; i++ {
		w.AddBody(&Body{
			Position: Vec(rng.Float64()*4000-2000, rng.Float64()*4000-2000, rng.Float64()*4000-2000),
			Radius:   5 + rng.Float64()*45,
			Group:    GroupObstacle,
		})
	}

	origin := [3]float64{0, 0, 0}
	dir := [3]float64{1, 0.1, -0.05}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Raycast(origin, dir, math.MaxFloat64, 0)
	}
}
