// Package catalogue provides the static content tables the simulation reads:
// enemy templates for the forest rotation and mission templates for recruits.
// Tables are immutable after load; compiled-in defaults can be replaced by
// YAML files in a content directory.
package catalogue

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnemyTemplate defines an enemy archetype in the forest rotation.
type EnemyTemplate struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	BaseHealth  float64 `yaml:"base_health" json:"baseHealth"`
	BaseDamage  float64 `yaml:"base_damage" json:"baseDamage"`
	AttackSpeed float64 `yaml:"attack_speed" json:"attackSpeed"` // attacks per second
	// BaseGoldReward is granted to the player when an instance dies.
	BaseGoldReward int `yaml:"base_gold_reward" json:"baseGoldReward"`
}

// Validate checks that the template satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty, BaseHealth >= 1,
// BaseDamage >= 0, AttackSpeed > 0, and BaseGoldReward >= 0.
func (t EnemyTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("enemy template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("enemy template %q: name must not be empty", t.ID)
	}
	if t.BaseHealth < 1 {
		return fmt.Errorf("enemy template %q: base_health must be >= 1", t.ID)
	}
	if t.BaseDamage < 0 {
		return fmt.Errorf("enemy template %q: base_damage must not be negative", t.ID)
	}
	if t.AttackSpeed <= 0 {
		return fmt.Errorf("enemy template %q: attack_speed must be positive", t.ID)
	}
	if t.BaseGoldReward < 0 {
		return fmt.Errorf("enemy template %q: base_gold_reward must not be negative", t.ID)
	}
	return nil
}

// MissionTemplate defines a recruit mission archetype.
type MissionTemplate struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	// BaseDuration is the mission length in seconds before the recruit's
	// strength speed-up is applied.
	BaseDuration int `yaml:"base_duration" json:"baseDuration"`
	Difficulty   int `yaml:"difficulty" json:"difficulty"`
	GoldReward   int `yaml:"gold_reward" json:"goldReward"`
}

// Validate checks that the template satisfies basic invariants.
func (t MissionTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("mission template: id must not be empty")
	}
	if t.Title == "" {
		return fmt.Errorf("mission template %q: title must not be empty", t.ID)
	}
	if t.BaseDuration < 1 {
		return fmt.Errorf("mission template %q: base_duration must be >= 1", t.ID)
	}
	if t.Difficulty < 0 {
		return fmt.Errorf("mission template %q: difficulty must not be negative", t.ID)
	}
	if t.GoldReward < 0 {
		return fmt.Errorf("mission template %q: gold_reward must not be negative", t.ID)
	}
	return nil
}

// Catalogue is the loaded, immutable content set.
type Catalogue struct {
	enemies      []EnemyTemplate
	missions     []MissionTemplate
	missionsByID map[string]MissionTemplate
}

// defaultEnemies mirrors the shipped forest rotation.
func defaultEnemies() []EnemyTemplate {
	return []EnemyTemplate{
		{ID: "goblin", Name: "Goblin", BaseHealth: 20, BaseDamage: 1, AttackSpeed: 0.5, BaseGoldReward: 1},
		{ID: "sanglier", Name: "Sanglier", BaseHealth: 25, BaseDamage: 2, AttackSpeed: 0.4, BaseGoldReward: 2},
	}
}

// defaultMissions mirrors the shipped mission board.
func defaultMissions() []MissionTemplate {
	return []MissionTemplate{
		{ID: "forest-scout", Title: "Scout the forest edge", BaseDuration: 60, Difficulty: 0, GoldReward: 6},
		{ID: "boar-drive", Title: "Drive off the boars", BaseDuration: 120, Difficulty: 1, GoldReward: 10},
		{ID: "night-watch", Title: "Stand the night watch", BaseDuration: 240, Difficulty: 2, GoldReward: 16},
		{ID: "deep-woods", Title: "Venture into the deep woods", BaseDuration: 480, Difficulty: 3, GoldReward: 28},
	}
}

// Default returns the compiled-in catalogue.
func Default() *Catalogue {
	c, err := New(defaultEnemies(), defaultMissions())
	if err != nil {
		panic("catalogue: invalid defaults: " + err.Error())
	}
	return c
}

// New builds a catalogue from validated template slices.
//
// Precondition: enemies must be non-empty.
// Postcondition: Returns an immutable Catalogue or a validation error.
func New(enemies []EnemyTemplate, missions []MissionTemplate) (*Catalogue, error) {
	if len(enemies) == 0 {
		return nil, fmt.Errorf("catalogue: at least one enemy template is required")
	}
	seen := make(map[string]bool, len(enemies))
	for _, e := range enemies {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("catalogue: duplicate enemy id %q", e.ID)
		}
		seen[e.ID] = true
	}
	byID := make(map[string]MissionTemplate, len(missions))
	for _, m := range missions {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("catalogue: duplicate mission id %q", m.ID)
		}
		byID[m.ID] = m
	}
	return &Catalogue{
		enemies:      append([]EnemyTemplate(nil), enemies...),
		missions:     append([]MissionTemplate(nil), missions...),
		missionsByID: byID,
	}, nil
}

// Load reads catalogue overrides from dir. Each of enemies.yaml and
// missions.yaml replaces its whole default table when present; a missing
// file keeps the defaults for that table.
//
// Postcondition: Returns a validated Catalogue or a non-nil error; a partial
// or invalid override never produces a partially-applied catalogue.
func Load(dir string) (*Catalogue, error) {
	enemies := defaultEnemies()
	missions := defaultMissions()

	if data, err := os.ReadFile(filepath.Join(dir, "enemies.yaml")); err == nil {
		var loaded []EnemyTemplate
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("parsing enemies.yaml: %w", err)
		}
		enemies = loaded
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading enemies.yaml: %w", err)
	}

	if data, err := os.ReadFile(filepath.Join(dir, "missions.yaml")); err == nil {
		var loaded []MissionTemplate
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("parsing missions.yaml: %w", err)
		}
		missions = loaded
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading missions.yaml: %w", err)
	}

	return New(enemies, missions)
}

// Enemies returns the enemy rotation in order.
func (c *Catalogue) Enemies() []EnemyTemplate {
	return append([]EnemyTemplate(nil), c.enemies...)
}

// EnemyCount returns the size of the enemy rotation.
func (c *Catalogue) EnemyCount() int {
	return len(c.enemies)
}

// EnemyAt returns the template at the given rotation index.
//
// Precondition: 0 <= i < EnemyCount().
func (c *Catalogue) EnemyAt(i int) EnemyTemplate {
	return c.enemies[i]
}

// EnemyTypes lists the enemy type identifiers, in rotation order.
func (c *Catalogue) EnemyTypes() []string {
	types := make([]string, len(c.enemies))
	for i, e := range c.enemies {
		types[i] = e.ID
	}
	return types
}

// Missions returns all mission templates in declaration order.
func (c *Catalogue) Missions() []MissionTemplate {
	return append([]MissionTemplate(nil), c.missions...)
}

// MissionByID looks up a mission template.
func (c *Catalogue) MissionByID(id string) (MissionTemplate, bool) {
	m, ok := c.missionsByID[id]
	return m, ok
}
