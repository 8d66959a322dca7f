package sim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/config"
)

func newTestEngine() *Engine {
	cfg := config.SimConfig{
		TickRate:    30,
		CellSize:    500,
		WorldExtent: 10000,
		Seed:        42,
	}
	return NewEngine(cfg, config.DefaultLimits())
}

// TestNewEngine verifies engine creation with correct defaults
func TestNewEngine(t *testing.T) {
	engine := newTestEngine()
	if engine == nil {
		t.Fatal("NewEngine returned nil")
	}
	stats := engine.Stats()
	if stats.Ships != 0 || stats.Asteroids != 0 {
		t.Error("New engine should start empty")
	}
}

// TestEngineStartStop verifies the engine can start and stop without panics
func TestEngineStartStop(t *testing.T) {
	engine := newTestEngine()

	engine.Start()
	time.Sleep(100 * time.Millisecond)

	engine.Stop()

	// Should not panic on double stop
	engine.Stop()
}

// TestAddShip tests adding ships to the engine
func TestAddShip(t *testing.T) {
	engine := newTestEngine()

	ship1, err := engine.AddShip("Ship1")
	if err != nil {
		t.Fatalf("AddShip failed: %v", err)
	}
	if ship1.Name != "Ship1" {
		t.Errorf("Expected name 'Ship1', got '%s'", ship1.Name)
	}
	if ship1.HP != ShipMaxHP {
		t.Errorf("Expected HP %d, got %d", ShipMaxHP, ship1.HP)
	}
	if ship1.Weapon != DefaultWeaponID {
		t.Errorf("Expected weapon %q, got %q", DefaultWeaponID, ship1.Weapon)
	}

	// Adding the same ship should return the existing one
	ship1Again, err := engine.AddShip("Ship1")
	if err != nil {
		t.Fatalf("re-AddShip failed: %v", err)
	}
	if ship1Again != ship1 {
		t.Error("Adding same ship should return existing ship")
	}

	if engine.Stats().Ships != 1 {
		t.Errorf("Expected 1 ship, got %d", engine.Stats().Ships)
	}
}

// TestShipLimit verifies the hard cap on ship count
func TestShipLimit(t *testing.T) {
	cfg := config.SimConfig{TickRate: 30, CellSize: 500, WorldExtent: 10000, Seed: 1}
	limits := config.DefaultLimits()
	limits.MaxShips = 2
	engine := NewEngine(cfg, limits)

	for i := 0; i < 2; i++ {
		if _, err := engine.AddShip(fmt.Sprintf("Ship%d", i)); err != nil {
			t.Fatalf("AddShip %d failed: %v", i, err)
		}
	}

	if _, err := engine.AddShip("Overflow"); err != ErrShipLimit {
		t.Errorf("Expected ErrShipLimit, got %v", err)
	}
}

// TestRemoveShip tests ship removal
func TestRemoveShip(t *testing.T) {
	engine := newTestEngine()

	engine.AddShip("TestShip")

	if engine.GetShip("TestShip") == nil {
		t.Fatal("Ship should exist after adding")
	}

	engine.RemoveShip("TestShip")

	if engine.GetShip("TestShip") != nil {
		t.Error("Ship should not exist after removal")
	}
	if engine.Stats().World.Bodies != 0 {
		t.Error("Removed ship should leave no bodies behind")
	}

	// Removing a non-existent ship should not panic
	engine.RemoveShip("NonExistent")
}

// TestSetThrustValidation tests error paths of SetThrust
func TestSetThrustValidation(t *testing.T) {
	engine := newTestEngine()

	if err := engine.SetThrust("Nobody", mgl64.Vec3{1, 0, 0}); err != ErrShipNotFound {
		t.Errorf("Expected ErrShipNotFound, got %v", err)
	}

	ship, _ := engine.AddShip("Pilot")
	if err := engine.SetThrust("Pilot", mgl64.Vec3{1, 0, 0}); err != nil {
		t.Errorf("SetThrust on live ship failed: %v", err)
	}

	ship.TakeDamage(ShipMaxHP)
	if err := engine.SetThrust("Pilot", mgl64.Vec3{1, 0, 0}); err != ErrShipDead {
		t.Errorf("Expected ErrShipDead, got %v", err)
	}
}

// TestThrustMovesShip runs ticks manually and checks the ship accelerates
func TestThrustMovesShip(t *testing.T) {
	engine := newTestEngine()

	ship, _ := engine.AddShip("Pilot")
	startX := ship.Body.Position.X()

	engine.SetThrust("Pilot", mgl64.Vec3{1, 0, 0})
	for i := 0; i < 10; i++ {
		engine.tick()
	}

	if ship.Body.Velocity.X() <= 0 {
		t.Errorf("Expected positive X velocity under thrust, got %v", ship.Body.Velocity.X())
	}
	if ship.Body.Position.X() <= startX {
		t.Error("Ship should have moved in thrust direction")
	}
}

// TestFireSpawnsProjectile verifies projectile weapons spawn rounds
func TestFireSpawnsProjectile(t *testing.T) {
	engine := newTestEngine()

	ship, _ := engine.AddShip("Gunner")

	if err := engine.Fire("Gunner", mgl64.Vec3{1, 0, 0}); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}
	if engine.Stats().Projectiles != 1 {
		t.Fatalf("Expected 1 projectile, got %d", engine.Stats().Projectiles)
	}
	if ship.CooldownTicks <= 0 {
		t.Error("Fire should start the weapon cooldown")
	}

	// A second shot during cooldown is rejected
	if err := engine.Fire("Gunner", mgl64.Vec3{1, 0, 0}); err != ErrCoolingDown {
		t.Errorf("Expected ErrCoolingDown, got %v", err)
	}

	// Zero direction is rejected
	ship.CooldownTicks = 0
	if err := engine.Fire("Gunner", mgl64.Vec3{}); err == nil {
		t.Error("Fire with zero direction should fail")
	}
}

// TestFireHitscan verifies beam weapons damage via raycast
func TestFireHitscan(t *testing.T) {
	engine := newTestEngine()

	shooter, _ := engine.AddShip("Shooter")
	target, _ := engine.AddShip("Target")

	*shooter.Body.Position = mgl64.Vec3{0, 0, 0}
	*target.Body.Position = mgl64.Vec3{500, 0, 0}
	engine.SetWeapon("Shooter", "beam")

	if err := engine.Fire("Shooter", mgl64.Vec3{1, 0, 0}); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}

	beam := GetWeapon("beam")
	if target.HP != ShipMaxHP-beam.Damage {
		t.Errorf("Expected target HP %d, got %d", ShipMaxHP-beam.Damage, target.HP)
	}
	if engine.Stats().Projectiles != 0 {
		t.Error("Hitscan weapons should not spawn projectiles")
	}
}

// TestProjectileHit verifies hit routing and owner immunity
func TestProjectileHit(t *testing.T) {
	engine := newTestEngine()

	owner, _ := engine.AddShip("Owner")
	victim, _ := engine.AddShip("Victim")

	weapon := GetWeapon("autocannon")
	p := NewProjectile("p1", owner.ID, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, weapon, 30)

	// Rounds never hurt the ship that fired them
	engine.projectileHit(p, owner.Body)
	if owner.HP != ShipMaxHP || p.Spent() {
		t.Error("Projectile should pass through its owner")
	}

	engine.projectileHit(p, victim.Body)
	if victim.HP != ShipMaxHP-weapon.Damage {
		t.Errorf("Expected victim HP %d, got %d", ShipMaxHP-weapon.Damage, victim.HP)
	}
	if !p.Spent() {
		t.Error("Projectile should be spent after a hit")
	}

	// Spent rounds do nothing
	engine.projectileHit(p, victim.Body)
	if victim.HP != ShipMaxHP-weapon.Damage {
		t.Error("Spent projectile should not deal damage again")
	}
}

// TestRamDamage verifies hull damage on high-speed contact
func TestRamDamage(t *testing.T) {
	engine := newTestEngine()

	a, _ := engine.AddShip("A")
	b, _ := engine.AddShip("B")

	*a.Body.Velocity = mgl64.Vec3{200, 0, 0}
	*b.Body.Velocity = mgl64.Vec3{-200, 0, 0}

	engine.ramDamage(a.Body, b.Body)

	expected := ShipMaxHP - int(400.0/ramDamageDivisor)
	if a.HP != expected || b.HP != expected {
		t.Errorf("Expected both hulls at %d, got %d and %d", expected, a.HP, b.HP)
	}

	// Slow contact is free
	*a.Body.Velocity = mgl64.Vec3{10, 0, 0}
	*b.Body.Velocity = mgl64.Vec3{}
	before := a.HP
	engine.ramDamage(a.Body, b.Body)
	if a.HP != before {
		t.Error("Contact below the ram threshold should not damage hulls")
	}
}

// TestPowerupPickup verifies pickup effects and single consumption
func TestPowerupPickup(t *testing.T) {
	engine := newTestEngine()

	ship, _ := engine.AddShip("Collector")
	ship.HP = 50

	pu := NewPowerup("pow1", PowerupRepair, mgl64.Vec3{}, 30)
	engine.pickupPowerup(pu, ship.Body)

	if ship.HP != 50+PowerupRepairAmount {
		t.Errorf("Expected HP %d after repair, got %d", 50+PowerupRepairAmount, ship.HP)
	}
	if !pu.Consumed() {
		t.Error("Powerup should be consumed after pickup")
	}

	// A second touch does nothing
	ship.HP = 50
	engine.pickupPowerup(pu, ship.Body)
	if ship.HP != 50 {
		t.Error("Consumed powerup should not apply again")
	}

	// Overcharge clears the weapon cooldown
	ship.CooldownTicks = 100
	over := NewPowerup("pow2", PowerupOvercharge, mgl64.Vec3{}, 30)
	engine.pickupPowerup(over, ship.Body)
	if ship.CooldownTicks != 0 {
		t.Error("Overcharge should reset the weapon cooldown")
	}
}

// TestAsteroidSplit verifies large rocks fragment when destroyed
func TestAsteroidSplit(t *testing.T) {
	engine := newTestEngine()

	big := NewAsteroid("big", mgl64.Vec3{}, mgl64.Vec3{}, 200)
	if !big.CanSplit() {
		t.Fatal("A 200-radius asteroid should split")
	}

	engine.applyDamage("", big.Body, 10000, "test")
	if !big.destroyed {
		t.Fatal("Asteroid should be destroyed")
	}
	if len(engine.asteroids) != 2 {
		t.Errorf("Expected 2 fragments, got %d", len(engine.asteroids))
	}
	for _, frag := range engine.asteroids {
		if frag.Body.Radius >= big.Body.Radius {
			t.Error("Fragments should be smaller than the parent")
		}
	}

	// Small rocks just disappear
	small := NewAsteroid("small", mgl64.Vec3{}, mgl64.Vec3{}, AsteroidMinRadius)
	if small.CanSplit() {
		t.Error("A minimum-radius asteroid should not split")
	}
}

// TestHitscanSparesOwnDrone verifies beams pass through the shooter's
// own escorts and strike the target behind them
func TestHitscanSparesOwnDrone(t *testing.T) {
	engine := newTestEngine()

	shooter, _ := engine.AddShip("Shooter")
	target, _ := engine.AddShip("Target")
	drone, err := engine.AddDrone("Shooter")
	if err != nil {
		t.Fatalf("AddDrone failed: %v", err)
	}

	// Escort sits directly in the firing line
	*shooter.Body.Position = mgl64.Vec3{0, 0, 0}
	*drone.Body.Position = mgl64.Vec3{300, 0, 0}
	*target.Body.Position = mgl64.Vec3{600, 0, 0}
	engine.SetWeapon("Shooter", "beam")

	if err := engine.Fire("Shooter", mgl64.Vec3{1, 0, 0}); err != nil {
		t.Fatalf("Fire failed: %v", err)
	}

	if drone.HP != DroneMaxHP {
		t.Errorf("Beam should pass through the shooter's drone, HP %d", drone.HP)
	}
	beam := GetWeapon("beam")
	if target.HP != ShipMaxHP-beam.Damage {
		t.Errorf("Expected target HP %d, got %d", ShipMaxHP-beam.Damage, target.HP)
	}
}

// TestCollisionAndDespawnEvents verifies contacts and killer-less removals
// leave a trace in the event log
func TestCollisionAndDespawnEvents(t *testing.T) {
	engine := newTestEngine()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := engine.StartEventLog(path); err != nil {
		t.Fatalf("StartEventLog failed: %v", err)
	}

	// Overlapping hulls below the ram threshold: no damage, but the
	// contact itself must be logged
	a, _ := engine.AddShip("A")
	b, _ := engine.AddShip("B")
	*a.Body.Position = mgl64.Vec3{0, 0, 0}
	*b.Body.Position = mgl64.Vec3{50, 0, 0}
	*a.Body.Velocity = mgl64.Vec3{}
	*b.Body.Velocity = mgl64.Vec3{}
	engine.tick()

	// A round that times out without hitting anything
	engine.Fire("A", mgl64.Vec3{0, 1, 0})
	if engine.Stats().Projectiles != 1 {
		t.Fatal("Expected a projectile in flight")
	}
	engine.projectiles[0].TimerTicks = 1
	engine.tick()

	engine.StopEventLog()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()

	sawCollision := false
	sawDespawn := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad JSONL line: %v", err)
		}
		switch ev.Type {
		case EventTypeCollision:
			sawCollision = true
			var p CollisionPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				t.Fatalf("bad collision payload: %v", err)
			}
			if p.EntityA == "" || p.EntityB == "" {
				t.Error("Collision payload should name both entities")
			}
		case EventTypeDespawn:
			sawDespawn = true
			var p DespawnPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				t.Fatalf("bad despawn payload: %v", err)
			}
			if p.Kind != "projectile" || p.Reason != "expired" {
				t.Errorf("Unexpected despawn payload: %+v", p)
			}
		}
	}
	if !sawCollision {
		t.Error("Overlapping hulls should emit a collision event")
	}
	if !sawDespawn {
		t.Error("Expired projectile should emit a despawn event")
	}
}

// TestAsteroidFragmentIDsUnique verifies two same-tick splits keep
// distinct fragment IDs
func TestAsteroidFragmentIDsUnique(t *testing.T) {
	engine := newTestEngine()

	first := NewAsteroid("rock_a", mgl64.Vec3{}, mgl64.Vec3{}, 200)
	second := NewAsteroid("rock_b", mgl64.Vec3{5000, 0, 0}, mgl64.Vec3{}, 200)

	engine.applyDamage("", first.Body, 10000, "test")
	engine.applyDamage("", second.Body, 10000, "test")

	if len(engine.asteroids) != 4 {
		t.Fatalf("Expected 4 fragments, got %d", len(engine.asteroids))
	}
	seen := make(map[string]bool)
	for _, frag := range engine.asteroids {
		if seen[frag.ID] {
			t.Errorf("Duplicate fragment ID %q", frag.ID)
		}
		seen[frag.ID] = true
	}
}

// TestShipRespawn verifies destroyed ships come back on re-add
func TestShipRespawn(t *testing.T) {
	engine := newTestEngine()

	ship, _ := engine.AddShip("Phoenix")
	ship.TakeDamage(ShipMaxHP)
	if !ship.Destroyed() {
		t.Fatal("Ship should be destroyed")
	}

	// Sweep detaches the destroyed hull from the world
	engine.tick()
	if engine.Stats().World.Bodies != 0 {
		t.Errorf("Destroyed ship should leave the physics world, %d bodies remain",
			engine.Stats().World.Bodies)
	}

	same, err := engine.AddShip("Phoenix")
	if err != nil {
		t.Fatalf("respawn AddShip failed: %v", err)
	}
	if same != ship {
		t.Error("Respawn should reuse the existing ship")
	}
	if ship.Destroyed() || ship.HP != ShipMaxHP {
		t.Error("Respawned ship should be alive at full HP")
	}
	if engine.Stats().World.Bodies != 1 {
		t.Error("Respawned ship should rejoin the physics world")
	}
}

// TestReflectInward verifies the world boundary bounces bodies back
func TestReflectInward(t *testing.T) {
	engine := newTestEngine()

	ship, _ := engine.AddShip("Drifter")
	*ship.Body.Position = mgl64.Vec3{engine.worldExtent + 500, 0, 0}
	*ship.Body.Velocity = mgl64.Vec3{100, 0, 0}

	engine.despawnOutOfBounds()

	if ship.Body.Position.Len() > engine.worldExtent+1e-9 {
		t.Errorf("Ship should be clamped to the boundary, at %v", ship.Body.Position.Len())
	}
	if ship.Body.Velocity.X() >= 0 {
		t.Error("Outward velocity should be reflected inward")
	}
}

// TestProjectileDespawn verifies rounds expire and are swept
func TestProjectileDespawn(t *testing.T) {
	engine := newTestEngine()

	engine.AddShip("Gunner")
	engine.Fire("Gunner", mgl64.Vec3{0, 1, 0})
	if engine.Stats().Projectiles != 1 {
		t.Fatal("Expected a projectile in flight")
	}

	p := engine.projectiles[0]
	p.TimerTicks = 1
	engine.tick()

	if engine.Stats().Projectiles != 0 {
		t.Error("Expired projectile should be swept")
	}
	// Only the ship's body remains
	if engine.Stats().World.Bodies != 1 {
		t.Errorf("Expected 1 body after sweep, got %d", engine.Stats().World.Bodies)
	}
}

// TestSeedField verifies the initial scene population
func TestSeedField(t *testing.T) {
	engine := newTestEngine()

	engine.SeedField(10, 3)

	stats := engine.Stats()
	if stats.Asteroids != 10 {
		t.Errorf("Expected 10 asteroids, got %d", stats.Asteroids)
	}
	if stats.Powerups != 3 {
		t.Errorf("Expected 3 powerups, got %d", stats.Powerups)
	}
	if stats.World.Bodies != 13 {
		t.Errorf("Expected 13 bodies, got %d", stats.World.Bodies)
	}
}

// TestSnapshotPublishing verifies snapshots reflect the scene
func TestSnapshotPublishing(t *testing.T) {
	engine := newTestEngine()

	engine.AddShip("Viewer")
	engine.tick()

	snap := engine.GetSnapshot()
	if snap == nil {
		t.Fatal("GetSnapshot returned nil")
	}
	if snap.TickNumber == 0 {
		t.Error("Snapshot should carry the tick number")
	}
	if len(snap.Ships) != 1 {
		t.Fatalf("Expected 1 ship in snapshot, got %d", len(snap.Ships))
	}
	if snap.Ships[0].Name != "Viewer" {
		t.Errorf("Unexpected ship in snapshot: %s", snap.Ships[0].Name)
	}

	// Sequence advances every tick
	first := snap.Sequence
	engine.tick()
	if engine.GetSnapshot().Sequence <= first {
		t.Error("Snapshot sequence should advance")
	}
}

// TestDroneFollowsOwner verifies drone steering and sweep on destruction
func TestDroneFollowsOwner(t *testing.T) {
	engine := newTestEngine()

	owner, _ := engine.AddShip("Carrier")
	drone, err := engine.AddDrone("Carrier")
	if err != nil {
		t.Fatalf("AddDrone failed: %v", err)
	}

	// Pull the drone far behind and let it chase
	*drone.Body.Position = owner.Body.Position.Add(mgl64.Vec3{3000, 0, 0})
	for i := 0; i < 30; i++ {
		engine.tick()
	}

	toOwner := owner.Body.Position.Sub(*drone.Body.Position)
	if drone.Body.Velocity.Dot(toOwner) <= 0 {
		t.Error("Drone should accelerate toward its owner")
	}

	drone.TakeDamage(DroneMaxHP)
	engine.tick()
	if engine.Stats().Drones != 0 {
		t.Error("Destroyed drone should be swept")
	}
}

// TestDeterministicReplay verifies identical seeds produce identical ticks
func TestDeterministicReplay(t *testing.T) {
	run := func() mgl64.Vec3 {
		cfg := config.SimConfig{TickRate: 30, CellSize: 500, WorldExtent: 10000, Seed: 7}
		engine := NewEngine(cfg, config.DefaultLimits())
		engine.SeedField(20, 0)
		ship, _ := engine.AddShip("Replay")
		engine.SetThrust("Replay", mgl64.Vec3{1, 0, 1})
		for i := 0; i < 60; i++ {
			engine.tick()
		}
		return *ship.Body.Position
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("Same seed should replay identically: %v vs %v", first, second)
	}
}

// TestConcurrentAccess tests thread safety of the public API
func TestConcurrentAccess(t *testing.T) {
	engine := newTestEngine()
	engine.Start()
	defer engine.Stop()

	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func(id int) {
			name := "Ship" + string(rune('A'+id))
			for j := 0; j < 100; j++ {
				engine.AddShip(name)
				engine.SetThrust(name, mgl64.Vec3{1, 0, 0})
				engine.Stats()
				engine.GetSnapshot()
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
