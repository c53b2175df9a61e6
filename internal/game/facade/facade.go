// Package facade composes the engines behind a single mutex-guarded API.
// The scheduler and the HTTP surface both enter through here; every public
// method takes the lock, so tick bodies and UI actions never interleave.
package facade

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/catalogue"
	"github.com/EvannNalewajek/guilde/internal/game/combat"
	"github.com/EvannNalewajek/guilde/internal/game/enemy"
	"github.com/EvannNalewajek/guilde/internal/game/guild"
	"github.com/EvannNalewajek/guilde/internal/game/progression"
	"github.com/EvannNalewajek/guilde/internal/game/quest"
	"github.com/EvannNalewajek/guilde/internal/game/recruit"
	"github.com/EvannNalewajek/guilde/internal/game/rng"
	"github.com/EvannNalewajek/guilde/internal/game/state"
	"github.com/EvannNalewajek/guilde/internal/persistence"
)

// Game is the composition root of the simulation. It implements
// engine.Simulation.
type Game struct {
	mu sync.Mutex

	store *state.Store
	cat   *catalogue.Catalogue
	saves *persistence.Manager

	spawner     *enemy.Spawner
	progression *progression.Engine
	quests      *quest.Engine
	guild       *guild.Engine
	combat      *combat.Resolver
	recruits    *recruit.Engine

	logger *zap.Logger
}

// New wires the engines over a shared store.
//
// Precondition: all arguments must be non-nil.
func New(store *state.Store, cat *catalogue.Catalogue, saves *persistence.Manager, src rng.Source, now func() time.Time, logger *zap.Logger) *Game {
	g := &Game{
		store:  store,
		cat:    cat,
		saves:  saves,
		logger: logger,
	}
	g.spawner = enemy.NewSpawner(store, cat)
	g.progression = progression.NewEngine(store, saves, logger)
	g.quests = quest.NewEngine(store, cat, src, saves, now, logger)
	g.guild = guild.NewEngine(store, g.quests, saves, logger)
	g.combat = combat.NewResolver(store, g.spawner, g.progression, g.quests, saves, logger)
	g.recruits = recruit.NewEngine(store, cat, src, saves, now, logger)
	return g
}

// CombatTick advances combat by delta seconds.
func (g *Game) CombatTick(delta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.combat.Tick(delta)
}

// RecruitTick evaluates all recruit task timers.
func (g *Game) RecruitTick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recruits.Tick()
}

// Autosave persists the current state.
func (g *Game) Autosave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves.Save()
}

// EnterForest moves the player to the forest and spawns the rotation's
// current enemy if none is present.
func (g *Game) EnterForest() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.store.Location == state.LocationForest {
		return
	}
	g.store.Location = state.LocationForest
	if g.store.CurrentEnemy == nil {
		g.spawner.SpawnCurrent()
	}
	g.saves.Save()
}

// LeaveForest returns the player to the guild and clears the current enemy.
func (g *Game) LeaveForest() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.store.Location == state.LocationGuild {
		return
	}
	g.store.Location = state.LocationGuild
	g.spawner.ClearCurrent()
	g.saves.Save()
}

// ManualAttack strikes the current enemy with the player's strength.
//
// Postcondition: Returns false when not in the forest or no enemy exists.
func (g *Game) ManualAttack() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.combat.ManualAttack()
}

// Rest fully restores the player's health. Only available at the guild.
//
// Postcondition: Returns false outside the guild or at full health.
func (g *Game) Rest() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.store.Location != state.LocationGuild {
		return false
	}
	return g.progression.FullHeal()
}

// UpgradeGuild buys the next guild level.
func (g *Game) UpgradeGuild() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.guild.Upgrade()
}

// AcceptQuest moves a quest offer to the accepted list.
func (g *Game) AcceptQuest(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.quests.Accept(id)
}

// AbandonQuest drops an accepted quest and backfills the offers.
func (g *Game) AbandonQuest(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.quests.Abandon(id)
}

// AddStat spends one unspent point on the named stat.
//
// Postcondition: Returns false for an unknown stat name or when no points
// are available.
func (g *Game) AddStat(key string) bool {
	statKey, ok := state.ParseStatKey(key)
	if !ok {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.progression.AddStat(statKey)
}

// AddStatBulk spends up to count points on the named stat and reports how
// many were actually applied.
func (g *Game) AddStatBulk(key string, count int) int {
	statKey, ok := state.ParseStatKey(key)
	if !ok {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.progression.AddStatBulk(statKey, count)
}

// AddRecruit hires a recruit into a free slot.
func (g *Game) AddRecruit(name string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recruits.Add(name)
}

// StartMission sends an idle recruit on a mission.
func (g *Game) StartMission(recruitID, templateID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recruits.StartMission(recruitID, templateID)
}

// CancelMission aborts a recruit's running mission.
func (g *Game) CancelMission(recruitID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recruits.CancelMission(recruitID)
}

// StartTraining begins a recruit training session on the named stat.
func (g *Game) StartTraining(recruitID, key string) bool {
	statKey, ok := state.ParseStatKey(key)
	if !ok {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recruits.StartTraining(recruitID, statKey)
}

// CancelTraining aborts a recruit's running training session.
func (g *Game) CancelTraining(recruitID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recruits.CancelTraining(recruitID)
}

// StartRecruitRest puts a wounded idle recruit to rest.
func (g *Game) StartRecruitRest(recruitID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recruits.StartRest(recruitID)
}

// StopRecruitRest wakes a resting recruit early.
func (g *Game) StopRecruitRest(recruitID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recruits.StopRest(recruitID)
}

// Save persists the current state.
func (g *Game) Save() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves.Save()
}

// Load restores persisted state and re-establishes derived invariants: the
// quest board backfills its offers and the enemy matches the location.
//
// Postcondition: Returns false and keeps the fresh-game state when no save
// exists or the payload was unusable.
func (g *Game) Load() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	loaded := g.saves.Load()
	if g.store.HasQuestBoard() {
		g.quests.EnsureOffers(quest.DefaultOfferTarget)
	}
	switch g.store.Location {
	case state.LocationForest:
		if g.store.CurrentEnemy == nil {
			g.spawner.SpawnCurrent()
		}
	default:
		g.spawner.ClearCurrent()
	}
	return loaded
}

// Wipe deletes the persisted save and resets the in-memory state to a
// fresh game.
func (g *Game) Wipe() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves.Wipe()
	*g.store = *state.NewStore()
	g.logger.Info("progress wiped")
}

// AdvanceRecruitTime shifts all recruit timers backward by the given number
// of seconds and resolves them. Debug facility.
func (g *Game) AdvanceRecruitTime(seconds int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recruits.AdvanceTime(seconds)
}

// SpawnEnemyAt forces the rotation to the given index and spawns it. Debug
// facility.
func (g *Game) SpawnEnemyAt(index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.spawner.SpawnAt(index)
	g.saves.Save()
}

// Missions lists the mission templates recruits can be sent on.
func (g *Game) Missions() []catalogue.MissionTemplate {
	return g.cat.Missions()
}
