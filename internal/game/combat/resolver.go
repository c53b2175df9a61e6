// Package combat advances the damage exchange between the player and the
// current forest enemy, and resolves kill and death outcomes.
package combat

import (
	"math"

	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/enemy"
	"github.com/EvannNalewajek/guilde/internal/game/progression"
	"github.com/EvannNalewajek/guilde/internal/game/quest"
	"github.com/EvannNalewajek/guilde/internal/game/state"
)

// resilienceMaxReduction caps mitigation at half the enemy's raw DPS.
const resilienceMaxReduction = 0.5

// xpPerHealth divides a dead enemy's base health into experience.
const xpPerHealth = 5

// Saver persists the store after a state change.
type Saver interface {
	Save()
}

// Resolver is the per-tick combat state machine. All its entry points are
// no-ops outside the forest.
type Resolver struct {
	store       *state.Store
	spawner     *enemy.Spawner
	progression *progression.Engine
	quests      *quest.Engine
	saver       Saver
	logger      *zap.Logger
}

// NewResolver creates a combat resolver.
//
// Precondition: all arguments must be non-nil.
func NewResolver(store *state.Store, spawner *enemy.Spawner, prog *progression.Engine, quests *quest.Engine, saver Saver, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:       store,
		spawner:     spawner,
		progression: prog,
		quests:      quests,
		saver:       saver,
		logger:      logger,
	}
}

// EffectiveEnemyDPS applies resilience mitigation to a raw enemy DPS value:
// a flat subtraction of the resilience stat, floored at half the raw value,
// never negative.
//
// Postcondition: for any resilience >= 0, the result is within
// [max(0, 0.5*rawDPS), rawDPS].
func EffectiveEnemyDPS(rawDPS float64, resilience int) float64 {
	reduced := rawDPS - float64(resilience)
	floored := rawDPS * (1 - resilienceMaxReduction)
	if reduced < floored {
		reduced = floored
	}
	if reduced < 0 {
		reduced = 0
	}
	return reduced
}

// Tick advances combat by delta seconds: the player's automatic DPS wears
// the enemy down while the enemy's mitigated DPS wears the player down.
// A kill and a death are mutually exclusive within one tick; the kill is
// checked first.
//
// Precondition: delta >= 0.
// Postcondition: player and enemy health stay within [0, max].
func (r *Resolver) Tick(delta float64) {
	if r.store.Location != state.LocationForest {
		return
	}

	e := r.store.CurrentEnemy
	if e == nil {
		r.spawner.SpawnCurrent()
		e = r.store.CurrentEnemy
		if e == nil {
			return
		}
	}

	if dps := r.store.PlayerDPS(); dps > 0 {
		e.CurrentHealth = math.Max(0, e.CurrentHealth-dps*delta)
	}

	enemyDPS := EffectiveEnemyDPS(enemy.RawDPS(e), r.store.Player.Stats.Resilience)
	newHP := math.Max(0, r.store.Player.CurrentHealth-enemyDPS*delta)

	if e.CurrentHealth <= 0 {
		r.resolveKill(e)
		return
	}

	if newHP <= 0 {
		r.store.Player.CurrentHealth = 0
		r.resolveDeath()
		return
	}

	r.store.Player.CurrentHealth = newHP
}

// ManualAttack deals the player's strength as flat damage to the current
// enemy, outside the tick cadence.
//
// Postcondition: Returns false and changes nothing when the player is not in
// the forest or no enemy is present.
func (r *Resolver) ManualAttack() bool {
	if r.store.Location != state.LocationForest {
		return false
	}
	e := r.store.CurrentEnemy
	if e == nil {
		return false
	}

	e.CurrentHealth = math.Max(0, e.CurrentHealth-float64(r.store.Player.Stats.Strength))
	if e.CurrentHealth <= 0 {
		r.resolveKill(e)
	}
	return true
}

// resolveKill grants gold and experience, advances matching quests, spawns
// the next enemy in rotation, and persists.
func (r *Resolver) resolveKill(e *state.Enemy) {
	r.store.Player.Gold += e.BaseGoldReward

	xp := int(math.Ceil(e.BaseHealth / xpPerHealth))
	r.progression.GainExperience(xp)

	r.quests.OnEnemyKilled(enemy.TypeOf(e))

	r.logger.Debug("enemy killed",
		zap.String("enemy", e.ID),
		zap.Int("gold", e.BaseGoldReward),
		zap.Int("xp", xp),
	)

	r.spawner.SpawnNext()
	r.saver.Save()
}

// resolveDeath relocates the player to the guild, clears the enemy, restores
// full health, and persists. Death carries no other penalty.
func (r *Resolver) resolveDeath() {
	r.store.Location = state.LocationGuild
	r.spawner.ClearCurrent()
	r.store.Player.CurrentHealth = float64(r.store.Player.Stats.Vitality)

	r.logger.Info("player died", zap.Int("level", r.store.Player.Level))
	r.saver.Save()
}
