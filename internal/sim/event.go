package sim

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Tick boundary with RNG seed
	EventTypeShipJoin
	EventTypeShipLeave
	EventTypeDamage
	EventTypeDestroy
	EventTypeFire
	EventTypePickup
	EventTypeAsteroidSpawn
	EventTypeCollision // Resolved contact between two entities
	EventTypeDespawn   // Entity left the scene without a killer
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Simulation tick this occurred in
	ShipID    string    `json:"shipId"`    // Source ship (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeShipJoin:
		return "ship_join"
	case EventTypeShipLeave:
		return "ship_leave"
	case EventTypeDamage:
		return "damage"
	case EventTypeDestroy:
		return "destroy"
	case EventTypeFire:
		return "fire"
	case EventTypePickup:
		return "pickup"
	case EventTypeAsteroidSpawn:
		return "asteroid_spawn"
	case EventTypeCollision:
		return "collision"
	case EventTypeDespawn:
		return "despawn"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload contains tick boundary information for replay
type TickPayload struct {
	RNGSeed     int64 `json:"rngSeed"`
	ShipCount   int   `json:"shipCount"`
	BodyCount   int   `json:"bodyCount"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// ShipJoinPayload contains ship join details
type ShipJoinPayload struct {
	ShipID   string  `json:"shipId"`
	ShipName string  `json:"shipName"`
	SpawnX   float64 `json:"spawnX"`
	SpawnY   float64 `json:"spawnY"`
	SpawnZ   float64 `json:"spawnZ"`
}

// DamagePayload contains damage event details
type DamagePayload struct {
	AttackerID string `json:"attackerId"`
	VictimID   string `json:"victimId"`
	Damage     int    `json:"damage"`
	VictimHP   int    `json:"victimHp"`
	WeaponID   string `json:"weaponId"`
}

// DestroyPayload contains destruction event details
type DestroyPayload struct {
	VictimID    string `json:"victimId"`
	VictimKind  string `json:"victimKind"`
	AttackerID  string `json:"attackerId"`
	KillerKills int    `json:"killerKills"`
}

// FirePayload contains weapon fire details
type FirePayload struct {
	ShipID   string  `json:"shipId"`
	WeaponID string  `json:"weaponId"`
	DirX     float64 `json:"dirX"`
	DirY     float64 `json:"dirY"`
	DirZ     float64 `json:"dirZ"`
}

// CollisionPayload identifies the two parties of a resolved contact
type CollisionPayload struct {
	EntityA  string  `json:"entityA"`
	EntityB  string  `json:"entityB"`
	RelSpeed float64 `json:"relSpeed"`
}

// DespawnPayload records an entity leaving the scene with no killer
type DespawnPayload struct {
	EntityID string `json:"entityId"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"` // "expired" or "out_of_bounds"
}

// PickupPayload contains powerup pickup details
type PickupPayload struct {
	ShipID    string `json:"shipId"`
	PowerupID string `json:"powerupId"`
	Kind      string `json:"kind"`
	CurrentHP int    `json:"currentHp"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, shipID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		ShipID:    shipID,
		Payload:   EncodePayload(payload),
	}
}
