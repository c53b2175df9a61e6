package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/EvannNalewajek/guilde/internal/game/catalogue"
	"github.com/EvannNalewajek/guilde/internal/game/combat"
	"github.com/EvannNalewajek/guilde/internal/game/enemy"
	"github.com/EvannNalewajek/guilde/internal/game/progression"
	"github.com/EvannNalewajek/guilde/internal/game/quest"
	"github.com/EvannNalewajek/guilde/internal/game/rng"
	"github.com/EvannNalewajek/guilde/internal/game/state"
)

type countingSaver struct{ saves int }

func (c *countingSaver) Save() { c.saves++ }

func newResolver(t *testing.T) (*combat.Resolver, *state.Store) {
	t.Helper()
	store := state.NewStore()
	saver := &countingSaver{}
	logger := zap.NewNop()
	spawner := enemy.NewSpawner(store, catalogue.Default())
	prog := progression.NewEngine(store, saver, logger)
	quests := quest.NewEngine(store, catalogue.Default(), &rng.Sequence{}, saver, time.Now, logger)
	return combat.NewResolver(store, spawner, prog, quests, saver, logger), store
}

func TestEffectiveEnemyDPS(t *testing.T) {
	tests := []struct {
		name       string
		raw        float64
		resilience int
		want       float64
	}{
		{"no resilience", 10, 0, 10},
		{"flat subtraction", 10, 3, 7},
		{"floored at half", 10, 8, 5},
		{"exactly half", 10, 5, 5},
		{"zero raw", 0, 4, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, combat.EffectiveEnemyDPS(tc.raw, tc.resilience), 1e-9)
		})
	}
}

func TestEffectiveEnemyDPS_Property_Bounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.Float64Range(0, 1000).Draw(rt, "raw")
		res := rapid.IntRange(0, 2000).Draw(rt, "resilience")
		eff := combat.EffectiveEnemyDPS(raw, res)
		assert.GreaterOrEqual(rt, eff, 0.0)
		assert.GreaterOrEqual(rt, eff, raw*0.5-1e-9)
		assert.LessOrEqual(rt, eff, raw+1e-9)
	})
}

func TestTick_NoOpOutsideForest(t *testing.T) {
	r, store := newResolver(t)

	r.Tick(1)
	assert.Nil(t, store.CurrentEnemy)
	assert.Equal(t, 10.0, store.Player.CurrentHealth)
}

func TestTick_SpawnsEnemyOnEntry(t *testing.T) {
	r, store := newResolver(t)
	store.Location = state.LocationForest

	r.Tick(0.1)
	require.NotNil(t, store.CurrentEnemy)
	assert.Equal(t, "goblin", store.CurrentEnemy.ID)
}

func TestTick_DamageExchange(t *testing.T) {
	r, store := newResolver(t)
	store.Location = state.LocationForest
	store.Player.Stats.Aura = 2 // 2 DPS
	r.Tick(0)                   // spawn only

	r.Tick(1)
	// Player dealt 2 damage; goblin raw DPS 0.5, no resilience.
	assert.InDelta(t, 18, store.CurrentEnemy.CurrentHealth, 1e-9)
	assert.InDelta(t, 9.5, store.Player.CurrentHealth, 1e-9)
}

func TestTick_ZeroAuraDealsNothing(t *testing.T) {
	r, store := newResolver(t)
	store.Location = state.LocationForest
	r.Tick(0)

	r.Tick(2)
	assert.InDelta(t, 20, store.CurrentEnemy.CurrentHealth, 1e-9)
	assert.InDelta(t, 9, store.Player.CurrentHealth, 1e-9)
}

func TestTick_KillGrantsRewardsAndRotates(t *testing.T) {
	r, store := newResolver(t)
	store.Location = state.LocationForest
	store.Player.Stats.Aura = 100 // one-shot DPS
	r.Tick(0)

	r.Tick(1)
	assert.Equal(t, 1, store.Player.Gold)          // goblin reward
	assert.Equal(t, 4, store.Player.Experience)    // ceil(20/5)
	assert.Equal(t, 1, store.EnemyIndex)           // rotated
	assert.Equal(t, "sanglier", store.CurrentEnemy.ID)
	assert.Equal(t, 25.0, store.CurrentEnemy.CurrentHealth)
}

func TestTick_KillCheckedBeforeDeath(t *testing.T) {
	r, store := newResolver(t)
	store.Location = state.LocationForest
	store.Player.Stats.Aura = 100
	store.Player.CurrentHealth = 0.1
	r.Tick(0)

	// Both would drop to zero this tick; the kill wins.
	r.Tick(1)
	assert.Equal(t, state.LocationForest, store.Location)
	assert.Equal(t, 1, store.Player.Gold)
	assert.Greater(t, store.Player.CurrentHealth, 0.0)
}

func TestTick_DeathRelocatesAndHeals(t *testing.T) {
	r, store := newResolver(t)
	store.Location = state.LocationForest
	store.Player.CurrentHealth = 0.2 // goblin eff DPS 0.5 finishes this
	r.Tick(0)

	r.Tick(1)
	assert.Equal(t, state.LocationGuild, store.Location)
	assert.Nil(t, store.CurrentEnemy)
	assert.Equal(t, 10.0, store.Player.CurrentHealth)
}

func TestTick_Property_HealthAlwaysInBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r, store := newResolver(t)
		store.Location = state.LocationForest
		store.Player.Stats.Aura = rapid.IntRange(0, 50).Draw(rt, "aura")
		store.Player.Stats.Resilience = rapid.IntRange(0, 20).Draw(rt, "resilience")
		r.Tick(0)

		for i := 0; i < 20; i++ {
			r.Tick(rapid.Float64Range(0, 0.25).Draw(rt, "delta"))

			assert.GreaterOrEqual(rt, store.Player.CurrentHealth, 0.0)
			assert.LessOrEqual(rt, store.Player.CurrentHealth, float64(store.Player.Stats.Vitality))
			if store.CurrentEnemy != nil {
				assert.GreaterOrEqual(rt, store.CurrentEnemy.CurrentHealth, 0.0)
				assert.LessOrEqual(rt, store.CurrentEnemy.CurrentHealth, store.CurrentEnemy.BaseHealth)
			}
			if store.Location != state.LocationForest {
				break
			}
		}
	})
}

func TestManualAttack_Preconditions(t *testing.T) {
	r, store := newResolver(t)

	assert.False(t, r.ManualAttack()) // not in forest

	store.Location = state.LocationForest
	assert.False(t, r.ManualAttack()) // no enemy yet
}

func TestManualAttack_DealsStrength(t *testing.T) {
	r, store := newResolver(t)
	store.Location = state.LocationForest
	store.Player.Stats.Strength = 4
	r.Tick(0)

	require.True(t, r.ManualAttack())
	assert.Equal(t, 16.0, store.CurrentEnemy.CurrentHealth)
}

func TestManualAttack_TwentyClicksKillGoblin(t *testing.T) {
	// Scenario: str 1 player clicks a 20 HP goblin twenty times.
	r, store := newResolver(t)
	store.Location = state.LocationForest
	r.Tick(0)
	require.Equal(t, "goblin", store.CurrentEnemy.ID)

	for i := 0; i < 20; i++ {
		require.True(t, r.ManualAttack())
	}

	assert.Equal(t, 1, store.Player.Gold)
	assert.Equal(t, 4, store.Player.Experience)
	assert.Equal(t, 1, store.EnemyIndex)
	require.NotNil(t, store.CurrentEnemy)
	assert.Equal(t, "sanglier", store.CurrentEnemy.ID)
}

func TestKill_AdvancesMatchingQuest(t *testing.T) {
	r, store := newResolver(t)
	store.Location = state.LocationForest
	store.GuildLevel = 2
	store.Player.Stats.Strength = 20
	store.AcceptedQuests = []state.Quest{{
		ID: "hunt", Kind: state.KindHuntCountByType, EnemyType: "goblin",
		Count: 5, GoldReward: 100,
	}}
	r.Tick(0)

	require.True(t, r.ManualAttack())
	assert.Equal(t, 1, store.AcceptedQuests[0].Progress)
}
