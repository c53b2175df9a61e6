// Package enemy manages the forest enemy rotation: which template is up,
// instantiation, and advancement on kills.
package enemy

import (
	"github.com/EvannNalewajek/guilde/internal/game/catalogue"
	"github.com/EvannNalewajek/guilde/internal/game/state"
)

// Spawner instantiates enemies from the catalogue rotation. The rotation
// index lives in the store so it survives saves.
type Spawner struct {
	store *state.Store
	cat   *catalogue.Catalogue
}

// NewSpawner creates a Spawner over the given store and catalogue.
//
// Precondition: store and cat must be non-nil; cat must have at least one enemy.
func NewSpawner(store *state.Store, cat *catalogue.Catalogue) *Spawner {
	return &Spawner{store: store, cat: cat}
}

// RawDPS is an enemy's damage per second before mitigation.
func RawDPS(e *state.Enemy) float64 {
	return e.BaseDamage * e.AttackSpeed
}

// TypeOf returns the enemy type identifier used by quests.
func TypeOf(e *state.Enemy) string {
	return e.ID
}

// SpawnCurrent instantiates the enemy at the current rotation index at full
// health and makes it the store's current enemy.
//
// Postcondition: store.CurrentEnemy is non-nil with CurrentHealth == BaseHealth.
func (s *Spawner) SpawnCurrent() {
	idx := normalizeIndex(s.store.EnemyIndex, s.cat.EnemyCount())
	s.store.EnemyIndex = idx
	tpl := s.cat.EnemyAt(idx)
	s.store.CurrentEnemy = &state.Enemy{EnemyTemplate: tpl, CurrentHealth: tpl.BaseHealth}
}

// SpawnNext advances the rotation index (wrapping) and spawns.
func (s *Spawner) SpawnNext() {
	s.store.EnemyIndex = normalizeIndex(s.store.EnemyIndex+1, s.cat.EnemyCount())
	s.SpawnCurrent()
}

// SpawnAt forces the rotation index and spawns. Debug-only entry point.
func (s *Spawner) SpawnAt(index int) {
	s.store.EnemyIndex = normalizeIndex(index, s.cat.EnemyCount())
	s.SpawnCurrent()
}

// ClearCurrent removes the current enemy; used when the player leaves the forest.
func (s *Spawner) ClearCurrent() {
	s.store.CurrentEnemy = nil
}

// normalizeIndex maps any integer onto [0, n) with Euclidean wrapping, so
// negative and oversized persisted indexes load cleanly.
func normalizeIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
