// Package sim runs the headless space-combat simulation: ships, escort
// drones, asteroids, projectiles and powerups on top of the physics
// world, advanced by a fixed-rate tick loop.
package sim

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"starclash/internal/config"
	"starclash/internal/physics"
)

// Ramming damage kicks in above this relative speed
const (
	ramSpeedThreshold = 150.0
	ramDamageDivisor  = 50.0
)

var (
	ErrShipLimit    = errors.New("ship limit reached")
	ErrShipNotFound = errors.New("ship not found")
	ErrShipDead     = errors.New("ship destroyed")
	ErrCoolingDown  = errors.New("weapon cooling down")
)

// Engine is the main simulation engine handling the tick loop
type Engine struct {
	mu    sync.RWMutex
	world *physics.World

	ships       map[string]*Ship // keyed by name
	drones      []*Drone
	asteroids   []*Asteroid
	projectiles []*Projectile
	powerups    []*Powerup

	tickRate    int
	worldExtent float64
	running     bool
	ticker      *time.Ticker
	stopChan    chan struct{}

	// Stats
	totalKills int
	tickCount  int64

	// DoS protection: resource limits
	limits config.ResourceLimits

	// Snapshot system for lock-free client reads
	snapshotPool *SnapshotPool

	// Event sourcing for replay and debugging
	eventLog *EventLog

	// Deterministic RNG for replay consistency
	rng     *rand.Rand
	rngSeed int64

	// Optional per-tick observer, used for metrics export.
	// Called outside the engine lock.
	stepObserver func(d time.Duration, stats physics.WorldStats)
}

// NewEngine creates a new simulation engine
func NewEngine(cfg config.SimConfig, limits config.ResourceLimits) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	world := physics.NewWorld(physics.Config{CellSize: cfg.CellSize})

	return &Engine{
		world:        world,
		ships:        make(map[string]*Ship),
		drones:       make([]*Drone, 0, limits.MaxDrones),
		asteroids:    make([]*Asteroid, 0, limits.MaxAsteroids),
		projectiles:  make([]*Projectile, 0, limits.MaxProjectiles),
		powerups:     make([]*Powerup, 0, limits.MaxAsteroids),
		tickRate:     cfg.TickRate,
		worldExtent:  cfg.WorldExtent,
		stopChan:     make(chan struct{}),
		limits:       limits,
		snapshotPool: NewSnapshotPool(limits),
		eventLog:     NewEventLog(),
		rng:          rand.New(rand.NewSource(seed)),
		rngSeed:      seed,
	}
}

// Start begins the simulation loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🚀 Simulation started at %d TPS", e.tickRate)
}

// Stop stops the simulation loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("🛑 Simulation stopped")
}

// tick is called at tickRate times per second
func (e *Engine) tick() {
	start := time.Now()

	e.mu.Lock()

	e.tickCount++
	deltaTime := 1.0 / float64(e.tickRate)

	// Log tick event with RNG seed for deterministic replay
	e.eventLog.EmitSimple(EventTypeTick, uint64(e.tickCount), "",
		TickPayload{
			RNGSeed:     e.rngSeed,
			ShipCount:   len(e.ships),
			BodyCount:   e.world.BodyCount(),
			DeltaTimeNs: int64(deltaTime * 1e9),
		})

	// Advance RNG seed deterministically for next tick
	e.rngSeed = e.rng.Int63()
	e.rng.Seed(e.rngSeed)

	// Steering and cooldowns before the physics step
	for _, s := range e.ships {
		if s.Destroyed() {
			continue
		}
		s.applyThrust()
		if s.CooldownTicks > 0 {
			s.CooldownTicks--
		}
	}
	for _, d := range e.drones {
		if d.destroyed {
			continue
		}
		d.steer(e.shipByID(d.OwnerID))
		e.droneCombat(d)
	}

	// Advance the physics world and resolve contacts
	events := e.world.Step(deltaTime)
	for _, ev := range events {
		e.handleContact(ev.A, ev.B)
	}

	e.sweepEntities()
	e.despawnOutOfBounds()

	e.produceSnapshot()

	stats := e.world.Stats()
	e.mu.Unlock()

	if e.stepObserver != nil {
		e.stepObserver(time.Since(start), stats)
	}
}

// shipByID looks up a ship by ID (ships are keyed by name)
func (e *Engine) shipByID(id string) *Ship {
	for _, s := range e.ships {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// droneCombat fires the drone's gun at the nearest hostile ship in range
func (e *Engine) droneCombat(d *Drone) {
	if d.CooldownTicks > 0 {
		d.CooldownTicks--
		return
	}
	if d.Body.Position == nil {
		return
	}

	var target *Ship
	best := DroneFireRange
	for _, s := range e.ships {
		if s.Destroyed() || s.ID == d.OwnerID || s.Body.Position == nil {
			continue
		}
		if dist := s.Body.Position.Sub(*d.Body.Position).Len(); dist < best {
			best = dist
			target = s
		}
	}
	if target == nil {
		return
	}

	d.CooldownTicks = DroneFireTicks
	e.applyDamage(d.OwnerID, target.Body, DroneDamage, "drone")
}

// handleContact applies game effects for a resolved physics contact.
// The physics layer has already separated the pair and exchanged
// impulses; this layer only deals damage and consumes pickups.
func (e *Engine) handleContact(a, b *physics.Body) {
	rel := 0.0
	if a.Velocity != nil && b.Velocity != nil {
		rel = a.Velocity.Sub(*b.Velocity).Len()
	}
	e.eventLog.EmitSimple(EventTypeCollision, uint64(e.tickCount), "",
		CollisionPayload{
			EntityA:  entityID(a),
			EntityB:  entityID(b),
			RelSpeed: rel,
		})

	// Projectile hits
	if p, ok := a.UserData.(*Projectile); ok {
		e.projectileHit(p, b)
		return
	}
	if p, ok := b.UserData.(*Projectile); ok {
		e.projectileHit(p, a)
		return
	}

	// Powerup pickups
	if pu, ok := a.UserData.(*Powerup); ok {
		e.pickupPowerup(pu, b)
		return
	}
	if pu, ok := b.UserData.(*Powerup); ok {
		e.pickupPowerup(pu, a)
		return
	}

	// Hull-on-hull ramming
	e.ramDamage(a, b)
}

// entityID resolves the owning entity's ID for event payloads
func entityID(b *physics.Body) string {
	switch v := b.UserData.(type) {
	case *Ship:
		return v.ID
	case *Drone:
		return v.ID
	case *Asteroid:
		return v.ID
	case *Projectile:
		return v.ID
	case *Powerup:
		return v.ID
	}
	return ""
}

// projectileHit spends the round and damages whatever it struck
func (e *Engine) projectileHit(p *Projectile, target *physics.Body) {
	if p.Spent() {
		return
	}
	// Friendly rounds pass through their own ship's escorts too
	if s, ok := target.UserData.(*Ship); ok && s.ID == p.OwnerID {
		return
	}
	if d, ok := target.UserData.(*Drone); ok && d.OwnerID == p.OwnerID {
		return
	}

	p.Spend()

	owner := e.shipByID(p.OwnerID)
	weaponID := "unknown"
	if owner != nil {
		weaponID = owner.Weapon
	}
	e.applyDamage(p.OwnerID, target, p.Damage, weaponID)
}

// pickupPowerup consumes the powerup if a live ship touched it
func (e *Engine) pickupPowerup(pu *Powerup, target *physics.Body) {
	s, ok := target.UserData.(*Ship)
	if !ok {
		return
	}
	if !pu.Apply(s) {
		return
	}

	e.eventLog.EmitSimple(EventTypePickup, uint64(e.tickCount), s.ID,
		PickupPayload{
			ShipID:    s.ID,
			PowerupID: pu.ID,
			Kind:      pu.Kind.String(),
			CurrentHP: s.HP,
		})
}

// ramDamage hurts both hulls when they meet at speed
func (e *Engine) ramDamage(a, b *physics.Body) {
	if a.Velocity == nil || b.Velocity == nil {
		return
	}
	relSpeed := a.Velocity.Sub(*b.Velocity).Len()
	if relSpeed < ramSpeedThreshold {
		return
	}

	damage := int(relSpeed / ramDamageDivisor)
	e.applyDamage("", a, damage, "ram")
	e.applyDamage("", b, damage, "ram")
}

// applyDamage routes damage to whatever entity owns the body and
// handles destruction bookkeeping and events.
func (e *Engine) applyDamage(attackerID string, target *physics.Body, damage int, weaponID string) {
	switch v := target.UserData.(type) {
	case *Ship:
		if v.Destroyed() {
			return
		}
		killed := v.TakeDamage(damage)
		e.eventLog.EmitSimple(EventTypeDamage, uint64(e.tickCount), attackerID,
			DamagePayload{
				AttackerID: attackerID,
				VictimID:   v.ID,
				Damage:     damage,
				VictimHP:   v.HP,
				WeaponID:   weaponID,
			})
		if killed {
			v.Deaths++
			e.creditKill(attackerID, v.ID, "ship")
			log.Printf("💥 %s destroyed (by %s)", v.Name, weaponID)
		}

	case *Drone:
		if v.TakeDamage(damage) {
			e.creditKill(attackerID, v.ID, "drone")
		}

	case *Asteroid:
		if v.TakeDamage(damage) {
			e.splitAsteroid(v)
			e.creditKill(attackerID, v.ID, "asteroid")
		}
	}
}

// creditKill updates killer stats and emits the destroy event
func (e *Engine) creditKill(attackerID, victimID, kind string) {
	kills := 0
	if attacker := e.shipByID(attackerID); attacker != nil {
		if kind == "ship" {
			attacker.Kills++
			e.totalKills++
		}
		kills = attacker.Kills
	}

	e.eventLog.EmitSimple(EventTypeDestroy, uint64(e.tickCount), attackerID,
		DestroyPayload{
			VictimID:    victimID,
			VictimKind:  kind,
			AttackerID:  attackerID,
			KillerKills: kills,
		})
}

// splitAsteroid replaces a destroyed rock with two smaller fragments
// flying apart, when there is room under the cap.
func (e *Engine) splitAsteroid(dead *Asteroid) {
	if !dead.CanSplit() || dead.Body.Position == nil {
		return
	}

	pos := *dead.Body.Position
	radius := dead.Body.Radius * AsteroidSplitFactor

	for i := 0; i < 2; i++ {
		if len(e.asteroids) >= e.limits.MaxAsteroids {
			return
		}
		kick := mgl64.Vec3{
			e.rng.Float64()*2 - 1,
			e.rng.Float64()*2 - 1,
			e.rng.Float64()*2 - 1,
		}
		if kick.Len() == 0 {
			kick = mgl64.Vec3{1, 0, 0}
		}
		kick = kick.Normalize().Mul(60)

		vel := kick
		if dead.Body.Velocity != nil {
			vel = dead.Body.Velocity.Add(kick)
		}
		// Nudge fragments apart so they don't resolve against each other.
		// Fragment IDs derive from the parent so two same-tick splits
		// cannot collide.
		frag := NewAsteroid(fmt.Sprintf("%s_f%d", dead.ID, i), pos.Add(kick.Mul(radius/60)), vel, radius)
		e.asteroids = append(e.asteroids, frag)
		e.world.AddBody(frag.Body)
	}
}

// sweepEntities removes dead entities with zero-allocation in-place
// filtering, detaching their bodies from the physics world.
func (e *Engine) sweepEntities() {
	n := 0
	for _, p := range e.projectiles {
		if p.Update() {
			e.projectiles[n] = p
			n++
		} else {
			e.world.RemoveBody(p.Body)
			// Spent rounds already logged their hit; only timeouts
			// leave a despawn trace
			if !p.Spent() {
				e.eventLog.EmitSimple(EventTypeDespawn, uint64(e.tickCount), "",
					DespawnPayload{EntityID: p.ID, Kind: "projectile", Reason: "expired"})
			}
		}
	}
	e.projectiles = e.projectiles[:n]

	n = 0
	for _, pu := range e.powerups {
		if pu.Update() {
			e.powerups[n] = pu
			n++
		} else {
			e.world.RemoveBody(pu.Body)
			if !pu.Consumed() {
				e.eventLog.EmitSimple(EventTypeDespawn, uint64(e.tickCount), "",
					DespawnPayload{EntityID: pu.ID, Kind: "powerup", Reason: "expired"})
			}
		}
	}
	e.powerups = e.powerups[:n]

	n = 0
	for _, d := range e.drones {
		if !d.destroyed {
			e.drones[n] = d
			n++
		} else {
			e.world.RemoveBody(d.Body)
		}
	}
	e.drones = e.drones[:n]

	n = 0
	for _, a := range e.asteroids {
		if !a.destroyed {
			e.asteroids[n] = a
			n++
		} else {
			e.world.RemoveBody(a.Body)
		}
	}
	e.asteroids = e.asteroids[:n]

	// Destroyed ships stay in the map (for stats and respawn) but
	// leave the physics world.
	for _, s := range e.ships {
		if s.Destroyed() && s.bodyInWorld {
			e.world.RemoveBody(s.Body)
			s.bodyInWorld = false
		}
	}
}

// despawnOutOfBounds removes projectiles that left the playable sphere
// and reflects everything else back inward.
func (e *Engine) despawnOutOfBounds() {
	n := 0
	for _, p := range e.projectiles {
		if p.Body.Position != nil && p.Body.Position.Len() > e.worldExtent {
			e.world.RemoveBody(p.Body)
			e.eventLog.EmitSimple(EventTypeDespawn, uint64(e.tickCount), "",
				DespawnPayload{EntityID: p.ID, Kind: "projectile", Reason: "out_of_bounds"})
			continue
		}
		e.projectiles[n] = p
		n++
	}
	e.projectiles = e.projectiles[:n]

	for _, s := range e.ships {
		reflectInward(s.Body, e.worldExtent)
	}
	for _, d := range e.drones {
		reflectInward(d.Body, e.worldExtent)
	}
	for _, a := range e.asteroids {
		reflectInward(a.Body, e.worldExtent)
	}
}

// reflectInward bounces a body off the world boundary sphere
func reflectInward(b *physics.Body, extent float64) {
	if b.Position == nil || b.Velocity == nil {
		return
	}
	dist := b.Position.Len()
	if dist <= extent || dist == 0 {
		return
	}

	normal := b.Position.Mul(1 / dist)
	// Clamp onto the boundary and reflect the outward velocity component
	*b.Position = normal.Mul(extent)
	if out := b.Velocity.Dot(normal); out > 0 {
		*b.Velocity = b.Velocity.Sub(normal.Mul(2 * out))
	}
}

// AddShip spawns a new ship, or respawns an existing destroyed one
func (e *Engine) AddShip(name string) (*Ship, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.ships[name]; ok {
		if existing.Destroyed() {
			e.respawnShip(existing)
		}
		return existing, nil
	}

	// HARD CAP: prevent flooding
	if len(e.ships) >= e.limits.MaxShips {
		log.Printf("⚠️ Ship limit reached (%d), rejecting: %s", e.limits.MaxShips, name)
		return nil, ErrShipLimit
	}

	ship := NewShip(shipID(e.tickCount, name), name, e.randomSpawnPosition())
	ship.bodyInWorld = true
	e.ships[name] = ship
	e.world.AddBody(ship.Body)

	pos := *ship.Body.Position
	e.eventLog.EmitSimple(EventTypeShipJoin, uint64(e.tickCount), ship.ID,
		ShipJoinPayload{
			ShipID:   ship.ID,
			ShipName: ship.Name,
			SpawnX:   pos.X(),
			SpawnY:   pos.Y(),
			SpawnZ:   pos.Z(),
		})

	log.Printf("🛸 Ship joined: %s", name)
	return ship, nil
}

// respawnShip resets a destroyed ship and re-registers its body
func (e *Engine) respawnShip(s *Ship) {
	s.HP = s.MaxHP
	s.destroyed = false
	s.CooldownTicks = 0
	s.Thrust = mgl64.Vec3{}

	pos := e.randomSpawnPosition()
	*s.Body.Position = pos
	*s.Body.Velocity = mgl64.Vec3{}
	*s.Body.Acceleration = mgl64.Vec3{}
	e.world.AddBody(s.Body)
	s.bodyInWorld = true

	e.eventLog.EmitSimple(EventTypeShipJoin, uint64(e.tickCount), s.ID,
		ShipJoinPayload{
			ShipID:   s.ID,
			ShipName: s.Name,
			SpawnX:   pos.X(),
			SpawnY:   pos.Y(),
			SpawnZ:   pos.Z(),
		})
}

// randomSpawnPosition picks a deterministic spot inside 80% of the
// playable sphere
func (e *Engine) randomSpawnPosition() mgl64.Vec3 {
	r := e.worldExtent * 0.8
	return mgl64.Vec3{
		(e.rng.Float64()*2 - 1) * r,
		(e.rng.Float64()*2 - 1) * r * 0.2, // flat-ish spawn disc
		(e.rng.Float64()*2 - 1) * r,
	}
}

// RemoveShip removes a ship and its body from the simulation
func (e *Engine) RemoveShip(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.ships[name]; ok {
		e.world.RemoveBody(s.Body)
		delete(e.ships, name)
		e.eventLog.EmitSimple(EventTypeShipLeave, uint64(e.tickCount), s.ID, nil)
	}
}

// GetShip returns a ship by name
func (e *Engine) GetShip(name string) *Ship {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ships[name]
}

// SetThrust updates a ship's steering input
func (e *Engine) SetThrust(name string, thrust mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.ships[name]
	if !ok {
		return ErrShipNotFound
	}
	if s.Destroyed() {
		return ErrShipDead
	}
	s.Thrust = thrust
	return nil
}

// SetWeapon switches a ship's equipped weapon
func (e *Engine) SetWeapon(name, weaponID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.ships[name]
	if !ok {
		return ErrShipNotFound
	}
	s.Weapon = GetWeapon(weaponID).ID
	return nil
}

// Fire shoots a ship's equipped weapon along dir. Projectile weapons
// spawn a round; hitscan weapons resolve instantly via raycast.
func (e *Engine) Fire(name string, dir mgl64.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.ships[name]
	if !ok {
		return ErrShipNotFound
	}
	if s.Destroyed() {
		return ErrShipDead
	}
	if s.CooldownTicks > 0 {
		return ErrCoolingDown
	}
	if dir.Len() == 0 {
		return errors.New("zero fire direction")
	}
	dir = dir.Normalize()

	weapon := GetWeapon(s.Weapon)
	s.CooldownTicks = int(weapon.Cooldown * float64(e.tickRate))

	e.eventLog.EmitSimple(EventTypeFire, uint64(e.tickCount), s.ID,
		FirePayload{
			ShipID:   s.ID,
			WeaponID: weapon.ID,
			DirX:     dir.X(),
			DirY:     dir.Y(),
			DirZ:     dir.Z(),
		})

	// Muzzle sits just outside the hull so the round doesn't strike
	// the firing ship
	muzzle := s.Body.Position.Add(dir.Mul(s.Body.Radius + ProjectileRadius + 1))

	if weapon.Hitscan {
		origin := muzzle
		remaining := weapon.Range
		for remaining > 0 {
			hit := e.world.Raycast(origin, dir, remaining, physics.GroupShip|physics.GroupObstacle)
			if hit == nil {
				break
			}
			// Beams pass through the shooter's own escorts, same as rounds
			if d, ok := hit.Body.UserData.(*Drone); ok && d.OwnerID == s.ID {
				step := hit.Distance + d.Body.Radius*2 + 1
				origin = origin.Add(dir.Mul(step))
				remaining -= step
				continue
			}
			e.applyDamage(s.ID, hit.Body, weapon.Damage, weapon.ID)
			break
		}
		return nil
	}

	// HARD CAP: prevent projectile flooding
	if len(e.projectiles) >= e.limits.MaxProjectiles {
		return nil
	}

	p := NewProjectile(projectileID(e.tickCount, s.ID), s.ID, muzzle, dir, weapon, e.tickRate)
	// Rounds inherit the shooter's velocity
	if s.Body.Velocity != nil {
		*p.Body.Velocity = p.Body.Velocity.Add(*s.Body.Velocity)
	}
	e.projectiles = append(e.projectiles, p)
	e.world.AddBody(p.Body)
	return nil
}

// AddDrone spawns an escort drone for the named ship
func (e *Engine) AddDrone(ownerName string) (*Drone, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.ships[ownerName]
	if !ok {
		return nil, ErrShipNotFound
	}
	if len(e.drones) >= e.limits.MaxDrones {
		return nil, errors.New("drone limit reached")
	}

	offset := mgl64.Vec3{DroneOrbitRange, 0, 0}
	d := NewDrone(droneID(e.tickCount, s.ID, len(e.drones)), s.ID, s.Body.Position.Add(offset))
	e.drones = append(e.drones, d)
	e.world.AddBody(d.Body)
	return d, nil
}

// SpawnAsteroid adds a rock at a random position drifting slowly
func (e *Engine) SpawnAsteroid(radius float64) (*Asteroid, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spawnAsteroidLocked(radius)
}

func (e *Engine) spawnAsteroidLocked(radius float64) (*Asteroid, error) {
	if len(e.asteroids) >= e.limits.MaxAsteroids {
		return nil, errors.New("asteroid limit reached")
	}

	pos := e.randomSpawnPosition()
	vel := mgl64.Vec3{
		(e.rng.Float64()*2 - 1) * 40,
		(e.rng.Float64()*2 - 1) * 10,
		(e.rng.Float64()*2 - 1) * 40,
	}
	a := NewAsteroid(asteroidID(e.tickCount, len(e.asteroids)), pos, vel, radius)
	e.asteroids = append(e.asteroids, a)
	e.world.AddBody(a.Body)

	e.eventLog.EmitSimple(EventTypeAsteroidSpawn, uint64(e.tickCount), "",
		map[string]interface{}{"id": a.ID, "radius": radius})
	return a, nil
}

// SpawnPowerup adds a pickup at a random position
func (e *Engine) SpawnPowerup(kind PowerupKind) *Powerup {
	e.mu.Lock()
	defer e.mu.Unlock()

	pu := NewPowerup(powerupID(e.tickCount, len(e.powerups)), kind, e.randomSpawnPosition(), e.tickRate)
	e.powerups = append(e.powerups, pu)
	e.world.AddBody(pu.Body)
	return pu
}

// SeedField populates the scene with an initial asteroid belt and
// scattered powerups
func (e *Engine) SeedField(asteroids, powerups int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < asteroids; i++ {
		radius := AsteroidMinRadius + e.rng.Float64()*120
		e.spawnAsteroidLocked(radius)
	}
	for i := 0; i < powerups; i++ {
		kind := PowerupRepair
		if e.rng.Float64() < 0.3 {
			kind = PowerupOvercharge
		}
		pu := NewPowerup(powerupID(e.tickCount, i), kind, e.randomSpawnPosition(), e.tickRate)
		e.powerups = append(e.powerups, pu)
		e.world.AddBody(pu.Body)
	}
	log.Printf("🪨 Seeded field: %d asteroids, %d powerups", len(e.asteroids), len(e.powerups))
}

// produceSnapshot copies the scene into the triple-buffered pool.
// Caller must hold the lock.
func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = uint64(e.tickCount)
	snap.RNGSeed = e.rngSeed
	snap.TotalKills = e.totalKills

	stats := e.world.Stats()
	snap.BodyCount = stats.Bodies
	snap.NarrowTests = stats.NarrowTests

	for _, s := range e.ships {
		if len(snap.Ships) >= e.limits.MaxShips {
			break
		}
		ss := ShipSnapshot{
			ID:     s.ID,
			Name:   s.Name,
			HP:     s.HP,
			MaxHP:  s.MaxHP,
			Weapon: s.Weapon,
			Kills:  s.Kills,
			Deaths: s.Deaths,
		}
		if s.Body.Position != nil {
			ss.Position = *s.Body.Position
		}
		if s.Body.Velocity != nil {
			ss.Velocity = *s.Body.Velocity
		}
		snap.Ships = append(snap.Ships, ss)
	}

	for _, d := range e.drones {
		if len(snap.Drones) >= e.limits.MaxDrones {
			break
		}
		ds := DroneSnapshot{ID: d.ID, OwnerID: d.OwnerID, HP: d.HP}
		if d.Body.Position != nil {
			ds.Position = *d.Body.Position
		}
		snap.Drones = append(snap.Drones, ds)
	}

	for _, a := range e.asteroids {
		if len(snap.Asteroids) >= e.limits.MaxAsteroids {
			break
		}
		as := AsteroidSnapshot{ID: a.ID, Radius: a.Body.Radius, HP: a.HP}
		if a.Body.Position != nil {
			as.Position = *a.Body.Position
		}
		snap.Asteroids = append(snap.Asteroids, as)
	}

	for _, p := range e.projectiles {
		if len(snap.Projectiles) >= e.limits.MaxProjectiles {
			break
		}
		ps := ProjectileSnapshot{ID: p.ID, OwnerID: p.OwnerID}
		if p.Body.Position != nil {
			ps.Position = *p.Body.Position
		}
		if p.Body.Velocity != nil {
			ps.Velocity = *p.Body.Velocity
		}
		snap.Projectiles = append(snap.Projectiles, ps)
	}

	for _, pu := range e.powerups {
		pus := PowerupSnapshot{ID: pu.ID, Kind: pu.Kind.String()}
		if pu.Body.Position != nil {
			pus.Position = *pu.Body.Position
		}
		snap.Powerups = append(snap.Powerups, pus)
	}

	e.snapshotPool.PublishWrite()
}

// GetSnapshot returns the latest immutable snapshot for lock-free reads
func (e *Engine) GetSnapshot() *SceneSnapshot {
	return e.snapshotPool.AcquireRead()
}

// EngineStats aggregates counters for the stats endpoint
type EngineStats struct {
	Ships       int                `json:"ships"`
	Drones      int                `json:"drones"`
	Asteroids   int                `json:"asteroids"`
	Projectiles int                `json:"projectiles"`
	Powerups    int                `json:"powerups"`
	TotalKills  int                `json:"totalKills"`
	TickCount   int64              `json:"tickCount"`
	World       physics.WorldStats `json:"world"`
}

// Stats returns current engine statistics
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return EngineStats{
		Ships:       len(e.ships),
		Drones:      len(e.drones),
		Asteroids:   len(e.asteroids),
		Projectiles: len(e.projectiles),
		Powerups:    len(e.powerups),
		TotalKills:  e.totalKills,
		TickCount:   e.tickCount,
		World:       e.world.Stats(),
	}
}

// GetLimits returns the current resource limits
func (e *Engine) GetLimits() config.ResourceLimits {
	return e.limits
}

// SetStepObserver installs a per-tick callback for metrics export.
// Must be called before Start.
func (e *Engine) SetStepObserver(fn func(d time.Duration, stats physics.WorldStats)) {
	e.stepObserver = fn
}

// StartEventLog initializes the event logging system
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog gracefully stops the event logging system
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log statistics for monitoring
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}
