// Package guild owns guild upgrades and the feature unlocks they gate.
package guild

import (
	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/quest"
	"github.com/EvannNalewajek/guilde/internal/game/state"
)

// Saver persists the store after a state change.
type Saver interface {
	Save()
}

// Engine mutates guild state.
type Engine struct {
	store  *state.Store
	quests *quest.Engine
	saver  Saver
	logger *zap.Logger
}

// NewEngine creates a guild engine.
//
// Precondition: all arguments must be non-nil.
func NewEngine(store *state.Store, quests *quest.Engine, saver Saver, logger *zap.Logger) *Engine {
	return &Engine{store: store, quests: quests, saver: saver, logger: logger}
}

// CanUpgrade reports whether the player can afford the next guild level.
func (e *Engine) CanUpgrade() bool {
	return e.store.Player.Gold >= e.store.GuildUpgradeCost()
}

// Upgrade buys the next guild level. When the upgrade crosses the quest
// board unlock (level 2), the board is backfilled so it is never empty on
// first open.
//
// Postcondition: Returns false and changes nothing when gold is short;
// otherwise gold decreases by the pre-upgrade cost and GuildLevel increments.
func (e *Engine) Upgrade() bool {
	cost := e.store.GuildUpgradeCost()
	if e.store.Player.Gold < cost {
		return false
	}

	e.store.Player.Gold -= cost
	prev := e.store.GuildLevel
	e.store.GuildLevel = prev + 1

	e.logger.Info("guild upgraded",
		zap.Int("level", e.store.GuildLevel),
		zap.Int("cost", cost),
	)

	if prev < 2 && e.store.GuildLevel >= 2 {
		e.quests.EnsureOffers(quest.DefaultOfferTarget)
	}

	e.saver.Save()
	return true
}
