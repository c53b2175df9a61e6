// Package recruit runs the per-recruit task state machines: missions,
// training, and rest, each with an independent timer. Mission and training
// outcomes are rolled when the task starts and stored on the task struct,
// so resolution is deterministic no matter how time advances.
package recruit

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/catalogue"
	"github.com/EvannNalewajek/guilde/internal/game/rng"
	"github.com/EvannNalewajek/guilde/internal/game/state"
)

// Determination bounds and training economy.
const (
	DetMax           = 10
	TrainingCost     = 4
	TrainingDuration = 180 * time.Second

	trainGreatChance  = 0.12
	trainInjuryChance = 0.10
)

// Mission tuning.
const (
	missionMinDuration     = 10 * time.Second
	missionBaseChance      = 0.6
	missionChancePerMental = 0.05
	missionMinChance       = 0.05
	missionMaxChance       = 0.90
)

// Resilience mitigation for mission failure damage (3% per point, cap 50%).
const (
	resiliencePerPoint     = 0.03
	resilienceMaxReduction = 0.5
)

// RestMinutesPerHP converts a hit point deficit into rest duration.
const RestMinutesPerHP = 2

// MissionDuration scales a template's base duration by the recruit's
// strength: each point speeds the mission up 10%, floored at 10 seconds.
func MissionDuration(base time.Duration, strength int) time.Duration {
	seconds := base.Seconds() / (1 + 0.10*float64(strength))
	rounded := math.Round(seconds)
	if rounded < missionMinDuration.Seconds() {
		return missionMinDuration
	}
	return time.Duration(rounded) * time.Second
}

// MissionSuccessChance is 0.6 + 0.05*(mental - difficulty), clamped to
// [0.05, 0.90].
func MissionSuccessChance(mental, difficulty int) float64 {
	p := missionBaseChance + missionChancePerMental*float64(mental-difficulty)
	if p < missionMinChance {
		return missionMinChance
	}
	if p > missionMaxChance {
		return missionMaxChance
	}
	return p
}

// MissionFailDamage is ceil((5 + 3*difficulty) * (1 - min(0.5, res*0.03))).
func MissionFailDamage(difficulty, resilience int) int {
	raw := float64(5 + 3*difficulty)
	reduction := float64(resilience) * resiliencePerPoint
	if reduction > resilienceMaxReduction {
		reduction = resilienceMaxReduction
	}
	return int(math.Ceil(raw * (1 - reduction)))
}

// Saver persists the store after a state change.
type Saver interface {
	Save()
}

// Engine drives all recruit task state machines.
type Engine struct {
	store  *state.Store
	cat    *catalogue.Catalogue
	rng    rng.Source
	saver  Saver
	now    func() time.Time
	logger *zap.Logger
}

// NewEngine creates a recruit engine.
//
// Precondition: all arguments must be non-nil.
func NewEngine(store *state.Store, cat *catalogue.Catalogue, src rng.Source, saver Saver, now func() time.Time, logger *zap.Logger) *Engine {
	return &Engine{store: store, cat: cat, rng: src, saver: saver, now: now, logger: logger}
}

// DefaultStats is the stat block new recruits start with.
func DefaultStats() state.Stats {
	return state.Stats{Strength: 1, Resilience: 1, Vitality: 10, Aura: 1, Mental: 1}
}

// Add hires a new idle recruit at full health.
//
// Postcondition: Returns ("", false) and changes nothing when all unlocked
// recruit slots are taken; otherwise returns the new recruit's id.
func (e *Engine) Add(name string) (string, bool) {
	if len(e.store.Recruits) >= e.store.RecruitSlots() {
		return "", false
	}
	stats := DefaultStats()
	r := state.Recruit{
		ID:     uuid.NewString(),
		Name:   name,
		Stats:  stats,
		HP:     stats.Vitality,
		Det:    0,
		DetMax: DetMax,
		Status: state.RecruitIdle,
	}
	e.store.Recruits = append(e.store.Recruits, r)
	e.logger.Info("recruit hired", zap.String("recruit_id", r.ID), zap.String("name", name))
	e.saver.Save()
	return r.ID, true
}

// StartMission sends an idle recruit on the identified mission. The success
// draw happens here, not at resolution.
//
// Postcondition: Returns false and changes nothing when the recruit is
// missing, not idle, or the template is unknown.
func (e *Engine) StartMission(recruitID, templateID string) bool {
	r := e.store.RecruitByID(recruitID)
	if r == nil || r.Status != state.RecruitIdle {
		return false
	}
	tpl, ok := e.cat.MissionByID(templateID)
	if !ok {
		return false
	}

	duration := MissionDuration(time.Duration(tpl.BaseDuration)*time.Second, r.Stats.Strength)
	start := e.now()
	r.Mission = &state.ActiveMission{
		TemplateID:    tpl.ID,
		Title:         tpl.Title,
		StartedAt:     start.UnixMilli(),
		ETA:           start.Add(duration).UnixMilli(),
		SuccessChance: MissionSuccessChance(r.Stats.Mental, tpl.Difficulty),
		PreRolled:     e.rng.Float64(),
		Difficulty:    tpl.Difficulty,
		GoldReward:    tpl.GoldReward,
	}
	r.Status = state.RecruitOnMission

	e.logger.Info("mission started",
		zap.String("recruit_id", r.ID),
		zap.String("template", tpl.ID),
		zap.Duration("duration", duration),
		zap.Float64("success_chance", r.Mission.SuccessChance),
	)
	e.saver.Save()
	return true
}

// CancelMission forfeits a running mission; no reward, no penalty.
func (e *Engine) CancelMission(recruitID string) bool {
	r := e.store.RecruitByID(recruitID)
	if r == nil || r.Status != state.RecruitOnMission || r.Mission == nil {
		return false
	}
	r.Status = state.RecruitIdle
	r.Mission = nil
	e.saver.Save()
	return true
}

// StartTraining begins a training session on the given stat, deducting the
// determination cost up front. Both outcome flags are drawn now.
//
// Postcondition: Returns false and changes nothing when the recruit is
// missing, not idle, short on determination, or typ is not a stat key.
func (e *Engine) StartTraining(recruitID string, typ state.StatKey) bool {
	r := e.store.RecruitByID(recruitID)
	if r == nil || r.Status != state.RecruitIdle || r.Det < TrainingCost {
		return false
	}
	if _, ok := state.ParseStatKey(string(typ)); !ok {
		return false
	}

	start := e.now()
	r.Training = &state.ActiveTraining{
		Type:             typ,
		StartedAt:        start.UnixMilli(),
		ETA:              start.Add(TrainingDuration).UnixMilli(),
		GreatPerformance: e.rng.Float64() < trainGreatChance,
		Injury:           e.rng.Float64() < trainInjuryChance,
	}
	r.Det -= TrainingCost
	r.Status = state.RecruitTraining

	e.logger.Info("training started",
		zap.String("recruit_id", r.ID),
		zap.String("stat", string(typ)),
	)
	e.saver.Save()
	return true
}

// CancelTraining forfeits a running training session; the determination
// cost is not refunded.
func (e *Engine) CancelTraining(recruitID string) bool {
	r := e.store.RecruitByID(recruitID)
	if r == nil || r.Status != state.RecruitTraining || r.Training == nil {
		return false
	}
	r.Status = state.RecruitIdle
	r.Training = nil
	e.saver.Save()
	return true
}

// StartRest puts an idle, wounded recruit to bed for 2 minutes per missing
// hit point.
//
// Postcondition: Returns false and changes nothing when the recruit is
// missing, not idle, or already at full health.
func (e *Engine) StartRest(recruitID string) bool {
	r := e.store.RecruitByID(recruitID)
	if r == nil || r.Status != state.RecruitIdle {
		return false
	}
	missing := r.Stats.Vitality - r.HP
	if missing <= 0 {
		return false
	}

	start := e.now()
	duration := time.Duration(missing*RestMinutesPerHP) * time.Minute
	r.Rest = &state.ActiveRest{
		StartedAt:      start.UnixMilli(),
		ETA:            start.Add(duration).UnixMilli(),
		MissingAtStart: missing,
	}
	r.Status = state.RecruitResting

	e.logger.Info("rest started",
		zap.String("recruit_id", r.ID),
		zap.Int("missing_hp", missing),
		zap.Duration("duration", duration),
	)
	e.saver.Save()
	return true
}

// StopRest wakes a resting recruit early, keeping whatever health the rest
// has recovered so far; no bonus, no penalty.
func (e *Engine) StopRest(recruitID string) bool {
	r := e.store.RecruitByID(recruitID)
	if r == nil || r.Status != state.RecruitResting || r.Rest == nil {
		return false
	}
	r.HP = ComputeRestedHP(r, e.now())
	r.Status = state.RecruitIdle
	r.Rest = nil
	e.saver.Save()
	return true
}

// ComputeRestedHP returns the recruit's health at the given instant of an
// active rest: missingAtStart recovers linearly over the rest window.
//
// Postcondition: the result is monotonically non-decreasing in now, never
// exceeds vitality, and equals vitality exactly when now >= eta. A recruit
// without an active rest keeps its current HP.
func ComputeRestedHP(r *state.Recruit, now time.Time) int {
	if r.Rest == nil {
		return r.HP
	}
	elapsed := now.UnixMilli() - r.Rest.StartedAt
	if elapsed < 0 {
		elapsed = 0
	}
	total := r.Rest.ETA - r.Rest.StartedAt
	if total < 1 {
		total = 1
	}
	ratio := float64(elapsed) / float64(total)
	if ratio > 1 {
		ratio = 1
	}
	recovered := int(math.Round(float64(r.Rest.MissingAtStart) * ratio))
	hp := r.Stats.Vitality - r.Rest.MissingAtStart + recovered
	if hp > r.Stats.Vitality {
		hp = r.Stats.Vitality
	}
	return hp
}

// Tick evaluates every recruit's active task against the current time,
// resolving any that have reached their ETA and updating mission progress
// and rest recovery. Any change persists the store once.
//
// Postcondition: Returns true iff at least one recruit changed.
func (e *Engine) Tick() bool {
	now := e.now()
	changed := false

	for i := range e.store.Recruits {
		r := &e.store.Recruits[i]
		switch r.Status {
		case state.RecruitOnMission:
			if e.tickMission(r, now) {
				changed = true
			}
		case state.RecruitTraining:
			if e.tickTraining(r, now) {
				changed = true
			}
		case state.RecruitResting:
			if e.tickRest(r, now) {
				changed = true
			}
		}
	}

	if changed {
		e.saver.Save()
	}
	return changed
}

// AdvanceTime shifts every active timer backward by the given amount and
// immediately re-runs the resolution tick. Debug-only; never exposed as
// gameplay.
func (e *Engine) AdvanceTime(seconds int) {
	shift := int64(seconds) * 1000
	for i := range e.store.Recruits {
		r := &e.store.Recruits[i]
		if r.Mission != nil {
			r.Mission.StartedAt -= shift
			r.Mission.ETA -= shift
		}
		if r.Training != nil {
			r.Training.StartedAt -= shift
			r.Training.ETA -= shift
		}
		if r.Rest != nil {
			r.Rest.StartedAt -= shift
			r.Rest.ETA -= shift
		}
	}
	e.saver.Save()
	e.Tick()
}

func (e *Engine) tickMission(r *state.Recruit, now time.Time) bool {
	m := r.Mission
	if m == nil {
		return false
	}
	changed := false

	total := m.ETA - m.StartedAt
	if total < 1 {
		total = 1
	}
	progress := float64(now.UnixMilli()-m.StartedAt) / float64(total)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	if progress != m.Progress {
		m.Progress = progress
		changed = true
	}

	if now.UnixMilli() < m.ETA {
		return changed
	}

	// Outcome was fixed at start; the draw is only compared here.
	if m.PreRolled < m.SuccessChance {
		e.store.Player.Gold += m.GoldReward
		if r.Det < r.DetMax {
			r.Det++
		}
		e.logger.Info("mission succeeded",
			zap.String("recruit_id", r.ID),
			zap.String("template", m.TemplateID),
			zap.Int("gold", m.GoldReward),
		)
	} else {
		dmg := MissionFailDamage(m.Difficulty, r.Stats.Resilience)
		r.HP -= dmg
		if r.HP < 0 {
			r.HP = 0
		}
		if r.Det > 0 {
			r.Det--
		}
		e.logger.Info("mission failed",
			zap.String("recruit_id", r.ID),
			zap.String("template", m.TemplateID),
			zap.Int("damage", dmg),
		)
	}

	r.Status = state.RecruitIdle
	r.Mission = nil
	return true
}

func (e *Engine) tickTraining(r *state.Recruit, now time.Time) bool {
	tr := r.Training
	if tr == nil || now.UnixMilli() < tr.ETA {
		return false
	}

	gain := 1
	if tr.GreatPerformance {
		gain = 2
	}
	r.Stats.Add(tr.Type, gain)

	if tr.Injury {
		wound := int(math.Round(0.05 * float64(r.Stats.Vitality)))
		if wound < 1 {
			wound = 1
		}
		r.HP -= wound
		if r.HP < 0 {
			r.HP = 0
		}
	}
	// A vitality session raises max HP; current HP stays, still in bounds.

	e.logger.Info("training finished",
		zap.String("recruit_id", r.ID),
		zap.String("stat", string(tr.Type)),
		zap.Int("gain", gain),
		zap.Bool("injury", tr.Injury),
	)

	r.Status = state.RecruitIdle
	r.Training = nil
	return true
}

func (e *Engine) tickRest(r *state.Recruit, now time.Time) bool {
	rest := r.Rest
	if rest == nil {
		return false
	}

	if now.UnixMilli() >= rest.ETA {
		r.HP = r.Stats.Vitality
		r.Status = state.RecruitIdle
		r.Rest = nil
		e.logger.Info("rest finished", zap.String("recruit_id", r.ID))
		return true
	}

	hp := ComputeRestedHP(r, now)
	if hp != r.HP {
		r.HP = hp
		return true
	}
	return false
}
