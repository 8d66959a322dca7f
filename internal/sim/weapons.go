package sim

// Weapon represents a weapon configuration
type Weapon struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Damage   int     `json:"damage"`
	Speed    float64 `json:"speed"`    // Projectile speed, world units/sec
	Lifetime float64 `json:"lifetime"` // Projectile lifetime, seconds
	Range    float64 `json:"range"`    // Hitscan range, world units
	Cooldown float64 `json:"cooldown"` // Seconds between shots
	Hitscan  bool    `json:"hitscan"`  // Instant beam instead of a round
}

// DefaultWeaponID is what new ships spawn with
const DefaultWeaponID = "autocannon"

// Weapons is the table of all available weapons
var Weapons = map[string]Weapon{
	"autocannon": {
		ID:       "autocannon",
		Name:     "Autocannon",
		Damage:   8,
		Speed:    1200,
		Lifetime: 2.0,
		Cooldown: 0.25,
	},
	"railgun": {
		ID:       "railgun",
		Name:     "Railgun",
		Damage:   35,
		Speed:    3000,
		Lifetime: 1.5,
		Cooldown: 1.2,
	},
	"beam": {
		ID:       "beam",
		Name:     "Pulse Beam",
		Damage:   15,
		Range:    1500,
		Cooldown: 0.6,
		Hitscan:  true,
	},
	"torpedo": {
		ID:       "torpedo",
		Name:     "Torpedo",
		Damage:   60,
		Speed:    500,
		Lifetime: 5.0,
		Cooldown: 2.5,
	},
}

// GetWeapon returns a weapon by ID, falling back to the default
func GetWeapon(id string) Weapon {
	if w, ok := Weapons[id]; ok {
		return w
	}
	return Weapons[DefaultWeaponID]
}
