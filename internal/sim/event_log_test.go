package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestEventLogLifecycle verifies start, emit, flush and stop
func TestEventLogLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	el := NewEventLog()

	// Emitting before Start is a no-op
	if el.Emit(NewEvent(EventTypeTick, 1, "", nil)) {
		t.Error("Emit before Start should return false")
	}

	if err := el.Start(path); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if !el.EmitSimple(EventTypeTick, uint64(i), "", TickPayload{RNGSeed: int64(i)}) {
			t.Fatalf("Emit %d failed", i)
		}
	}

	// Stop flushes the remaining batch
	el.Stop()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad JSONL line: %v", err)
		}
		if ev.Type != EventTypeTick {
			t.Errorf("Unexpected event type %v", ev.Type)
		}
		// Lines must come out in emit order, starting with the very
		// first event and ending with the very last
		if want := uint64(count + 1); ev.Sequence != want {
			t.Errorf("Line %d: sequence %d, want %d", count, ev.Sequence, want)
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 events on disk, got %d", count)
	}

	// Double stop should not panic
	el.Stop()
}

// TestEventLogPerShipRateLimit verifies a single chatty ship gets dropped
func TestEventLogPerShipRateLimit(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer el.Stop()

	for i := 0; i < 200; i++ {
		el.EmitSimple(EventTypeFire, uint64(i), "spammer", nil)
	}

	if el.GetDroppedCount() == 0 {
		t.Error("Per-ship rate limit should drop some of 200 burst events")
	}
	if el.GetTotalCount() == 0 {
		t.Error("Some events should still be accepted")
	}
}

// TestEventLogStats verifies the monitoring counters
func TestEventLogStats(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	el.EmitSimple(EventTypeDamage, 1, "", DamagePayload{Damage: 5})
	time.Sleep(10 * time.Millisecond)

	stats := el.GetStats()
	if stats["running"] != true {
		t.Error("Stats should report running")
	}
	if stats["total"].(uint64) != 1 {
		t.Errorf("Expected total 1, got %v", stats["total"])
	}

	el.Stop()
	if el.GetStats()["running"] != false {
		t.Error("Stats should report stopped after Stop")
	}
}

// TestEventTypeStrings pins the wire names used in the JSONL log
func TestEventTypeStrings(t *testing.T) {
	cases := map[EventType]string{
		EventTypeTick:          "tick",
		EventTypeShipJoin:      "ship_join",
		EventTypeDamage:        "damage",
		EventTypeDestroy:       "destroy",
		EventTypeFire:          "fire",
		EventTypePickup:        "pickup",
		EventTypeAsteroidSpawn: "asteroid_spawn",
		EventTypeCollision:     "collision",
		EventTypeDespawn:       "despawn",
		EventType(99):          "unknown",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("EventType %d: expected %q, got %q", typ, want, got)
		}
	}
}
