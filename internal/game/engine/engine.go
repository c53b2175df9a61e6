// Package engine runs the real-time simulation loop: the combat frame
// driver, the recruit task ticker, and the autosave interval. All three
// fire on one goroutine, so one tick body always runs to completion before
// the next.
package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/config"
)

// Simulation is what the engine drives. The implementation serializes its
// own state access; the engine only decides when each callback fires.
type Simulation interface {
	// CombatTick advances combat by delta seconds.
	CombatTick(delta float64)
	// RecruitTick evaluates all recruit task timers.
	RecruitTick()
	// Autosave persists the current state.
	Autosave()
}

// Engine schedules the simulation callbacks.
type Engine struct {
	sim    Simulation
	cfg    config.EngineConfig
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	paused  bool
	// last is the previous frame's timestamp; zero means no reference, so
	// the next frame establishes one without advancing the simulation.
	last time.Time

	stop chan struct{}
	done chan struct{}
}

// New creates an engine.
//
// Precondition: sim and logger must be non-nil; cfg must have passed
// validation; now must be non-nil.
func New(sim Simulation, cfg config.EngineConfig, now func() time.Time, logger *zap.Logger) *Engine {
	return &Engine{sim: sim, cfg: cfg, now: now, logger: logger}
}

// Start launches the loop goroutine. Starting a running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.paused = false
	e.last = time.Time{}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.loop(e.stop, e.done)
	e.logger.Info("engine started",
		zap.Duration("tick_interval", e.cfg.TickInterval),
		zap.Duration("recruit_tick_interval", e.cfg.RecruitTickInterval),
		zap.Duration("autosave_interval", e.cfg.AutosaveInterval),
	)
}

// Stop cancels the loop, waits for it to drain, and performs one final
// save. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stop, done := e.stop, e.done
	e.mu.Unlock()

	close(stop)
	<-done
	e.sim.Autosave()
	e.logger.Info("engine stopped")
}

// Pause suspends combat time and drops the frame reference, so wall-clock
// time spent paused is never applied as simulated delta on resume. Recruit
// timers keep running; their timestamps are absolute.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return
	}
	e.paused = true
	e.last = time.Time{}
}

// Resume lifts a pause. The next frame re-establishes the time reference.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
}

// Step runs one combat frame: computes the wall-clock delta since the
// previous frame, caps it, and advances the simulation.
//
// Postcondition: The first frame after Start, Pause, or Resume only
// records the reference timestamp; the simulation does not advance.
func (e *Engine) Step() {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	now := e.now()
	if e.last.IsZero() {
		e.last = now
		e.mu.Unlock()
		return
	}
	delta := now.Sub(e.last).Seconds()
	e.last = now
	e.mu.Unlock()

	if delta <= 0 {
		return
	}
	if capSec := e.cfg.DeltaCap.Seconds(); delta > capSec {
		delta = capSec
	}
	e.sim.CombatTick(delta)
}

func (e *Engine) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	combat := time.NewTicker(e.cfg.TickInterval)
	defer combat.Stop()
	recruits := time.NewTicker(e.cfg.RecruitTickInterval)
	defer recruits.Stop()

	var autosave <-chan time.Time
	if e.cfg.AutosaveInterval > 0 {
		t := time.NewTicker(e.cfg.AutosaveInterval)
		defer t.Stop()
		autosave = t.C
	}

	for {
		select {
		case <-stop:
			return
		case <-combat.C:
			e.Step()
		case <-recruits.C:
			e.sim.RecruitTick()
		case <-autosave:
			e.sim.Autosave()
		}
	}
}
