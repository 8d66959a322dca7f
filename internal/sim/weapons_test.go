package sim

import "testing"

// TestGetWeaponFallback verifies unknown IDs resolve to the default
func TestGetWeaponFallback(t *testing.T) {
	w := GetWeapon("plasma-disruptor-9000")
	if w.ID != DefaultWeaponID {
		t.Errorf("Unknown weapon should fall back to %q, got %q", DefaultWeaponID, w.ID)
	}

	railgun := GetWeapon("railgun")
	if railgun.ID != "railgun" {
		t.Errorf("Expected railgun, got %q", railgun.ID)
	}
}

// TestWeaponTableSanity verifies every entry is usable by the engine
func TestWeaponTableSanity(t *testing.T) {
	if _, ok := Weapons[DefaultWeaponID]; !ok {
		t.Fatalf("Default weapon %q missing from table", DefaultWeaponID)
	}

	for id, w := range Weapons {
		if w.ID != id {
			t.Errorf("Weapon %q: ID field %q does not match key", id, w.ID)
		}
		if w.Damage <= 0 {
			t.Errorf("Weapon %q: damage must be positive", id)
		}
		if w.Cooldown <= 0 {
			t.Errorf("Weapon %q: cooldown must be positive", id)
		}
		if w.Hitscan {
			if w.Range <= 0 {
				t.Errorf("Hitscan weapon %q needs a positive range", id)
			}
		} else {
			if w.Speed <= 0 || w.Lifetime <= 0 {
				t.Errorf("Projectile weapon %q needs positive speed and lifetime", id)
			}
		}
	}
}
