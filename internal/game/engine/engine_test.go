package engine_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/config"
	"github.com/EvannNalewajek/guilde/internal/game/engine"
)

// recordingSim counts callbacks and records combat deltas.
type recordingSim struct {
	mu        sync.Mutex
	deltas    []float64
	recruits  int
	autosaves int
}

func (s *recordingSim) CombatTick(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas = append(s.deltas, delta)
}

func (s *recordingSim) RecruitTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recruits++
}

func (s *recordingSim) Autosave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosaves++
}

func (s *recordingSim) snapshot() ([]float64, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.deltas...), s.recruits, s.autosaves
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		TickInterval:        50 * time.Millisecond,
		DeltaCap:            250 * time.Millisecond,
		RecruitTickInterval: 250 * time.Millisecond,
		AutosaveInterval:    45 * time.Second,
	}
}

func newEngine(sim engine.Simulation, clk *clock) *engine.Engine {
	return engine.New(sim, testConfig(), clk.Now, zap.NewNop())
}

func TestStep_FirstFrameOnlyRecordsReference(t *testing.T) {
	sim := &recordingSim{}
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	e := newEngine(sim, clk)

	e.Step()
	deltas, _, _ := sim.snapshot()
	assert.Empty(t, deltas, "no reference frame yet")

	clk.Advance(100 * time.Millisecond)
	e.Step()
	deltas, _, _ = sim.snapshot()
	require.Len(t, deltas, 1)
	assert.InDelta(t, 0.1, deltas[0], 1e-9)
}

func TestStep_CapsLargeDelta(t *testing.T) {
	sim := &recordingSim{}
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	e := newEngine(sim, clk)

	e.Step()
	clk.Advance(10 * time.Minute)
	e.Step()

	deltas, _, _ := sim.snapshot()
	require.Len(t, deltas, 1)
	assert.InDelta(t, 0.25, deltas[0], 1e-9, "gap clamps to the delta cap")
}

func TestPause_DropsElapsedTime(t *testing.T) {
	sim := &recordingSim{}
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	e := newEngine(sim, clk)

	e.Step()
	clk.Advance(50 * time.Millisecond)
	e.Step()

	e.Pause()
	clk.Advance(time.Hour)
	e.Step()
	deltas, _, _ := sim.snapshot()
	assert.Len(t, deltas, 1, "paused frames do not advance the simulation")

	e.Resume()
	e.Step() // re-establishes the reference only
	clk.Advance(50 * time.Millisecond)
	e.Step()

	deltas, _, _ = sim.snapshot()
	require.Len(t, deltas, 2)
	assert.InDelta(t, 0.05, deltas[1], 1e-9, "suspension gap is not replayed")
}

func TestStartStop_RunsCallbacksAndFinalSave(t *testing.T) {
	sim := &recordingSim{}
	clk := &clock{now: time.Now()}
	cfg := config.EngineConfig{
		TickInterval:        time.Millisecond,
		DeltaCap:            250 * time.Millisecond,
		RecruitTickInterval: time.Millisecond,
		AutosaveInterval:    time.Hour, // must not fire during the test
	}
	e := engine.New(sim, cfg, clk.Now, zap.NewNop())

	e.Start()
	e.Start() // idempotent
	time.Sleep(50 * time.Millisecond)
	e.Stop()
	e.Stop() // idempotent

	_, recruits, autosaves := sim.snapshot()
	assert.Greater(t, recruits, 0)
	assert.Equal(t, 1, autosaves, "exactly the final save on stop")
}

func TestStop_WithoutStartIsNoOp(t *testing.T) {
	sim := &recordingSim{}
	clk := &clock{now: time.Now()}
	e := newEngine(sim, clk)

	assert.NotPanics(t, func() { e.Stop() })
	_, _, autosaves := sim.snapshot()
	assert.Zero(t, autosaves)
}

func TestRestart_DropsStaleReference(t *testing.T) {
	sim := &recordingSim{}
	clk := &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	cfg := config.EngineConfig{
		TickInterval:        time.Hour, // loop never fires; Step drives frames
		DeltaCap:            250 * time.Millisecond,
		RecruitTickInterval: time.Hour,
		AutosaveInterval:    time.Hour,
	}
	e := engine.New(sim, cfg, clk.Now, zap.NewNop())

	e.Start()
	e.Step()
	clk.Advance(50 * time.Millisecond)
	e.Step()
	e.Stop()

	clk.Advance(time.Hour)
	e.Start()
	defer e.Stop()
	e.Step() // new reference frame; the downtime gap is dropped
	clk.Advance(50 * time.Millisecond)
	e.Step()

	deltas, _, _ := sim.snapshot()
	require.Len(t, deltas, 2)
	assert.InDelta(t, 0.05, deltas[1], 1e-9)
}
