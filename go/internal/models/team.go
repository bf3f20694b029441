package models

import "sort"

// DefaultMaxHealth is the health ceiling given to newly created teams
const DefaultMaxHealth = 100

// ResourceKind identifies a countable consumable held by a team
type ResourceKind string

const (
	ResourceApple       ResourceKind = "apple"
	ResourceCookedSteak ResourceKind = "cookedSteak"
)

// ItemKind identifies a piece of equipment a team can have equipped
type ItemKind string

const (
	ItemArrows ItemKind = "arrows"
	ItemShield ItemKind = "shield"
	ItemBow    ItemKind = "bow"
)

// EnchantmentKind identifies an enchantment a team can have active
type EnchantmentKind string

const (
	EnchantmentPowerV EnchantmentKind = "powerV"
	EnchantmentFlame  EnchantmentKind = "flame"
	EnchantmentPunch  EnchantmentKind = "punch"
	EnchantmentPoison EnchantmentKind = "poison"
)

// ResourceKinds lists every resource kind in display order
var ResourceKinds = []ResourceKind{ResourceApple, ResourceCookedSteak}

// ItemKinds lists every item kind in display order
var ItemKinds = []ItemKind{ItemArrows, ItemShield, ItemBow}

// EnchantmentKinds lists every enchantment kind in display order
var EnchantmentKinds = []EnchantmentKind{EnchantmentPowerV, EnchantmentFlame, EnchantmentPunch, EnchantmentPoison}

// Resources holds non-negative counts per resource kind
type Resources struct {
	Apple       int `json:"apple" yaml:"apple"`
	CookedSteak int `json:"cookedSteak" yaml:"cookedSteak"`
}

// Get returns the count for kind. ok is false for unknown kinds.
func (r Resources) Get(kind ResourceKind) (count int, ok bool) {
	switch kind {
	case ResourceApple:
		return r.Apple, true
	case ResourceCookedSteak:
		return r.CookedSteak, true
	}
	return 0, false
}

// With returns a copy of r with kind set to count. Unknown kinds return r unchanged.
func (r Resources) With(kind ResourceKind, count int) Resources {
	switch kind {
	case ResourceApple:
		r.Apple = count
	case ResourceCookedSteak:
		r.CookedSteak = count
	}
	return r
}

// Equipment holds the equipped flag per item kind
type Equipment struct {
	Arrows bool `json:"arrows" yaml:"arrows"`
	Shield bool `json:"shield" yaml:"shield"`
	Bow    bool `json:"bow" yaml:"bow"`
}

// Get returns the equipped flag for kind. ok is false for unknown kinds.
func (e Equipment) Get(kind ItemKind) (equipped bool, ok bool) {
	switch kind {
	case ItemArrows:
		return e.Arrows, true
	case ItemShield:
		return e.Shield, true
	case ItemBow:
		return e.Bow, true
	}
	return false, false
}

// With returns a copy of e with kind set to equipped
func (e Equipment) With(kind ItemKind, equipped bool) Equipment {
	switch kind {
	case ItemArrows:
		e.Arrows = equipped
	case ItemShield:
		e.Shield = equipped
	case ItemBow:
		e.Bow = equipped
	}
	return e
}

// Equipped lists the equipped items in display order
func (e Equipment) Equipped() []ItemKind {
	items := []ItemKind{}
	for _, kind := range ItemKinds {
		if on, _ := e.Get(kind); on {
			items = append(items, kind)
		}
	}
	return items
}

// Enchantments holds the active flag per enchantment kind
type Enchantments struct {
	PowerV bool `json:"powerV" yaml:"powerV"`
	Flame  bool `json:"flame" yaml:"flame"`
	Punch  bool `json:"punch" yaml:"punch"`
	Poison bool `json:"poison" yaml:"poison"`
}

// Get returns the active flag for kind. ok is false for unknown kinds.
func (e Enchantments) Get(kind EnchantmentKind) (active bool, ok bool) {
	switch kind {
	case EnchantmentPowerV:
		return e.PowerV, true
	case EnchantmentFlame:
		return e.Flame, true
	case EnchantmentPunch:
		return e.Punch, true
	case EnchantmentPoison:
		return e.Poison, true
	}
	return false, false
}

// With returns a copy of e with kind set to active
func (e Enchantments) With(kind EnchantmentKind, active bool) Enchantments {
	switch kind {
	case EnchantmentPowerV:
		e.PowerV = active
	case EnchantmentFlame:
		e.Flame = active
	case EnchantmentPunch:
		e.Punch = active
	case EnchantmentPoison:
		e.Poison = active
	}
	return e
}

// Active lists the active enchantments in display order
func (e Enchantments) Active() []EnchantmentKind {
	active := []EnchantmentKind{}
	for _, kind := range EnchantmentKinds {
		if on, _ := e.Get(kind); on {
			active = append(active, kind)
		}
	}
	return active
}

// Team is one participant's game-state record. The team name is the key in
// Registry.Teams and is not stored on the record itself.
type Team struct {
	Health       int          `json:"health" yaml:"health"`
	MaxHealth    int          `json:"maxHealth" yaml:"maxHealth"`
	Resources    Resources    `json:"resources" yaml:"resources"`
	Equipment    Equipment    `json:"equipment" yaml:"equipment"`
	Enchantments Enchantments `json:"enchantments" yaml:"enchantments"`
	Hidden       bool         `json:"hidden" yaml:"hidden"`
}

// NewTeam returns a team at full health with nothing held, equipped or active
func NewTeam() Team {
	return Team{
		Health:    DefaultMaxHealth,
		MaxHealth: DefaultMaxHealth,
	}
}

// Normalize clamps a team read from an untrusted source back into its invariants
func (t Team) Normalize() Team {
	if t.MaxHealth <= 0 {
		t.MaxHealth = DefaultMaxHealth
	}
	t.Health = Clamp(t.Health, 0, t.MaxHealth)
	for _, kind := range ResourceKinds {
		if n, _ := t.Resources.Get(kind); n < 0 {
			t.Resources = t.Resources.With(kind, 0)
		}
	}
	return t
}

// Registry is the full set of teams keyed by unique name plus the selected team.
// A Registry value is a snapshot: the Teams map must be treated as read-only and
// every change produces a new map.
type Registry struct {
	Teams    map[string]Team
	Selected string
}

// Team returns the named team
func (r Registry) Team(name string) (Team, bool) {
	t, ok := r.Teams[name]
	return t, ok
}

// Names returns every team name in iteration order (lexical)
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.Teams))
	for name := range r.Teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VisibleNames returns the names of non-hidden teams in iteration order
func (r Registry) VisibleNames() []string {
	var names []string
	for _, name := range r.Names() {
		if !r.Teams[name].Hidden {
			names = append(names, name)
		}
	}
	return names
}

// HiddenNames returns the names of hidden teams in iteration order
func (r Registry) HiddenNames() []string {
	var names []string
	for _, name := range r.Names() {
		if r.Teams[name].Hidden {
			names = append(names, name)
		}
	}
	return names
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
