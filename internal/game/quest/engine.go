// Package quest owns the quest board: offer generation, acceptance,
// abandonment, kill-driven progress, and completion rewards.
package quest

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/catalogue"
	"github.com/EvannNalewajek/guilde/internal/game/rng"
	"github.com/EvannNalewajek/guilde/internal/game/state"
)

// DefaultOfferTarget is the offer count the board is backfilled toward.
const DefaultOfferTarget = 3

// Kill-count roll bounds.
const (
	minKillCount = 3
	maxKillCount = 30
)

// Saver persists the store after a state change.
type Saver interface {
	Save()
}

// Engine mutates quest state.
type Engine struct {
	store  *state.Store
	cat    *catalogue.Catalogue
	rng    rng.Source
	saver  Saver
	now    func() time.Time
	logger *zap.Logger
}

// NewEngine creates a quest engine.
//
// Precondition: all arguments must be non-nil.
func NewEngine(store *state.Store, cat *catalogue.Catalogue, src rng.Source, saver Saver, now func() time.Time, logger *zap.Logger) *Engine {
	return &Engine{store: store, cat: cat, rng: src, saver: saver, now: now, logger: logger}
}

// Roll produces a new unaccepted hunt quest. The kill count scales with
// player level and rotation index:
// clamp(round(4 + 0.6*level + 0.2*enemyIndex + uniform(-1, 2)), 3, 30);
// the gold reward is count * (6 + uniformInt(0, 4)), roughly 6 to 10 per kill.
func (e *Engine) Roll() state.Quest {
	types := e.cat.EnemyTypes()
	enemyType := types[e.rng.Intn(len(types))]

	base := 4 + 0.6*float64(e.store.Player.Level) + 0.2*float64(e.store.EnemyIndex)
	jitter := e.rng.Float64()*3 - 1 // uniform in [-1, 2)
	count := int(math.Round(base + jitter))
	if count < minKillCount {
		count = minKillCount
	}
	if count > maxKillCount {
		count = maxKillCount
	}

	goldReward := count * (6 + e.rng.Intn(5))

	return state.Quest{
		ID:         uuid.NewString(),
		Kind:       state.KindHuntCountByType,
		EnemyType:  enemyType,
		Count:      count,
		GoldReward: goldReward,
	}
}

// GenerateOffers appends n freshly rolled offers to the board.
func (e *Engine) GenerateOffers(n int) {
	if n <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		e.store.QuestOffers = append(e.store.QuestOffers, e.Roll())
	}
	e.saver.Save()
}

// ReplaceOffers discards the board and rolls n fresh offers.
func (e *Engine) ReplaceOffers(n int) {
	offers := make([]state.Quest, 0, n)
	for i := 0; i < n; i++ {
		offers = append(offers, e.Roll())
	}
	e.store.QuestOffers = offers
	e.saver.Save()
}

// EnsureOffers tops the board up to target offers. No-op while the quest
// board is locked (guild level below 2).
func (e *Engine) EnsureOffers(target int) {
	if !e.store.HasQuestBoard() {
		return
	}
	missing := target - len(e.store.QuestOffers)
	if missing <= 0 {
		return
	}
	e.GenerateOffers(missing)
}

// Accept moves an offer to the accepted list, stamping the acceptance time.
//
// Postcondition: Returns false and changes nothing when the board is locked,
// the id is not an offer, or the accepted list is at capacity.
func (e *Engine) Accept(id string) bool {
	if !e.store.HasQuestBoard() {
		return false
	}

	idx := -1
	for i, q := range e.store.QuestOffers {
		if q.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	if len(e.store.AcceptedQuests) >= e.store.MaxAcceptedQuests() {
		return false
	}

	q := e.store.QuestOffers[idx]
	q.AcceptedAt = e.now().UnixMilli()
	e.store.AcceptedQuests = append(e.store.AcceptedQuests, q)
	e.store.QuestOffers = append(e.store.QuestOffers[:idx], e.store.QuestOffers[idx+1:]...)

	e.logger.Info("quest accepted",
		zap.String("quest_id", q.ID),
		zap.String("enemy_type", q.EnemyType),
		zap.Int("count", q.Count),
	)
	e.saver.Save()
	return true
}

// Abandon removes a quest from the accepted list unconditionally and
// backfills the board.
func (e *Engine) Abandon(id string) {
	kept := e.store.AcceptedQuests[:0]
	for _, q := range e.store.AcceptedQuests {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	e.store.AcceptedQuests = kept
	e.EnsureOffers(DefaultOfferTarget)
	e.saver.Save()
}

// OnEnemyKilled advances every accepted, matching, incomplete quest by one
// kill and resolves any that reach their target.
func (e *Engine) OnEnemyKilled(enemyType string) {
	var completed []state.Quest
	for i := range e.store.AcceptedQuests {
		q := &e.store.AcceptedQuests[i]
		if q.Kind != state.KindHuntCountByType || q.EnemyType != enemyType || q.Completed {
			continue
		}
		if q.Progress < q.Count {
			q.Progress++
		}
		if q.Progress >= q.Count {
			q.Completed = true
			completed = append(completed, *q)
		}
	}
	for _, q := range completed {
		e.complete(q)
	}
}

// complete grants the reward, removes the quest, raises the UI notification,
// and backfills the board.
func (e *Engine) complete(q state.Quest) {
	snapshot := q
	e.store.LastCompletedQuest = &snapshot
	e.store.QuestCompleteTick++

	e.store.Player.Gold += q.GoldReward

	kept := e.store.AcceptedQuests[:0]
	for _, a := range e.store.AcceptedQuests {
		if a.ID != q.ID {
			kept = append(kept, a)
		}
	}
	e.store.AcceptedQuests = kept

	e.logger.Info("quest completed",
		zap.String("quest_id", q.ID),
		zap.String("enemy_type", q.EnemyType),
		zap.Int("gold_reward", q.GoldReward),
	)

	e.EnsureOffers(DefaultOfferTarget)
	e.saver.Save()
}
