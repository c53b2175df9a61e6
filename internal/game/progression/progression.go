// Package progression owns experience accumulation, the leveling loop, and
// stat point allocation.
package progression

import (
	"math"

	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/state"
)

// statPointsPerLevel is granted on each level gained.
const statPointsPerLevel = 3

// Saver persists the store after a state change. Implementations must not fail
// loudly; see the persistence manager.
type Saver interface {
	Save()
}

// Engine mutates the player's progression state.
type Engine struct {
	store  *state.Store
	saver  Saver
	logger *zap.Logger
}

// NewEngine creates a progression engine.
//
// Precondition: store, saver, and logger must be non-nil.
func NewEngine(store *state.Store, saver Saver, logger *zap.Logger) *Engine {
	return &Engine{store: store, saver: saver, logger: logger}
}

// GainExperience adds a non-negative XP amount and resolves level-ups:
// while experience covers the current level's cost, the cost is deducted,
// the level increments, and stat points are granted. The level-up counter
// advances once per level gained.
//
// Postcondition: p.Experience < ExperienceForLevel(p.Level).
func (e *Engine) GainExperience(amount int) {
	if amount <= 0 {
		return
	}
	p := &e.store.Player
	p.Experience += amount

	levels := 0
	for p.Experience >= state.ExperienceForLevel(p.Level) {
		p.Experience -= state.ExperienceForLevel(p.Level)
		p.Level++
		p.UnspentStatPoints += statPointsPerLevel
		levels++
	}

	if levels > 0 {
		e.store.LevelUpTick += levels
		e.logger.Info("level up",
			zap.Int("level", p.Level),
			zap.Int("levels_gained", levels),
			zap.Int("unspent_points", p.UnspentStatPoints),
		)
	}
	e.saver.Save()
}

// AddStat spends one unspent point on the named stat.
//
// Raising vitality never lowers current health; the invariant
// 0 <= CurrentHealth <= Vitality is re-asserted after the change.
//
// Postcondition: Returns false and changes nothing when no points are
// available or key is unknown; otherwise exactly one stat and SpentStats
// entry increment and UnspentStatPoints decrements by one.
func (e *Engine) AddStat(key state.StatKey) bool {
	if _, ok := state.ParseStatKey(string(key)); !ok {
		return false
	}
	p := &e.store.Player
	if p.UnspentStatPoints <= 0 {
		return false
	}

	p.Stats.Add(key, 1)
	p.SpentStats.Add(key, 1)
	p.UnspentStatPoints--

	if key == state.StatVitality {
		maxHP := float64(p.Stats.Vitality)
		if p.CurrentHealth > maxHP {
			p.CurrentHealth = maxHP
		}
	}

	e.saver.Save()
	return true
}

// AddStatBulk applies AddStat up to count times and reports how many points
// were actually spent.
func (e *Engine) AddStatBulk(key state.StatKey, count int) int {
	spent := 0
	for ; spent < count; spent++ {
		if !e.AddStat(key) {
			break
		}
	}
	return spent
}

// FullHeal restores the player to max health. Returns false when already full.
func (e *Engine) FullHeal() bool {
	p := &e.store.Player
	maxHP := float64(p.Stats.Vitality)
	if p.CurrentHealth >= maxHP {
		return false
	}
	p.CurrentHealth = maxHP
	e.saver.Save()
	return true
}

// Heal restores up to amount health and returns the health actually gained.
func (e *Engine) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	p := &e.store.Player
	maxHP := float64(p.Stats.Vitality)
	next := p.CurrentHealth + float64(amount)
	if next > maxHP {
		next = maxHP
	}
	gained := next - p.CurrentHealth
	if gained <= 0 {
		return 0
	}
	p.CurrentHealth = next
	e.saver.Save()
	return int(math.Round(gained))
}
