package state

import "math"

// Guild upgrade cost curve.
const (
	guildBaseCost   = 150
	guildCostFactor = 1.6
)

// Experience cost curve.
const (
	experienceBase   = 20
	experienceFactor = 1.2
)

// Store is the single owner of all mutable game state. It is not safe for
// concurrent use; callers serialize access (the facade holds the lock).
type Store struct {
	Location Location
	Player   Player

	CurrentEnemy *Enemy
	EnemyIndex   int

	GuildLevel int

	QuestOffers    []Quest
	AcceptedQuests []Quest

	Recruits []Recruit

	// LevelUpTick increments once per level gained; the UI diffs it to
	// know how many level-up toasts to fire.
	LevelUpTick int
	// QuestCompleteTick increments once per completed quest.
	QuestCompleteTick  int
	LastCompletedQuest *Quest
}

// NewStore returns a Store with a fresh-game state.
func NewStore() *Store {
	return &Store{
		Location:   LocationGuild,
		Player:     DefaultPlayer(),
		GuildLevel: 1,
	}
}

// DefaultPlayer returns the fresh-game player. Also the merge baseline for
// loading older saves.
func DefaultPlayer() Player {
	stats := Stats{Strength: 1, Resilience: 0, Vitality: 10, Aura: 0, Mental: 0}
	return Player{
		Gold:          0,
		Stats:         stats,
		CurrentHealth: float64(stats.Vitality),
		Level:         1,
	}
}

// GuildUpgradeCost is the gold price of the next guild level:
// floor(150 * 1.6^max(0, level-1)).
func (s *Store) GuildUpgradeCost() int {
	exp := s.GuildLevel - 1
	if exp < 0 {
		exp = 0
	}
	return saturatedFloor(guildBaseCost * math.Pow(guildCostFactor, float64(exp)))
}

// HasQuestBoard reports whether the quest board is unlocked (guild level 2).
func (s *Store) HasQuestBoard() bool {
	return s.GuildLevel >= 2
}

// RecruitSlots is the number of recruit slots unlocked (one at guild level 5).
func (s *Store) RecruitSlots() int {
	if s.GuildLevel >= 5 {
		return 1
	}
	return 0
}

// MaxAcceptedQuests is the accepted-quests capacity:
// 1 at guild level 2, then +1 every two levels.
func (s *Store) MaxAcceptedQuests() int {
	over := s.GuildLevel - 2
	if over < 0 {
		over = 0
	}
	return 1 + over/2
}

// PlayerDPS is the automatic damage per second: aura * (1 + mental/10).
func (s *Store) PlayerDPS() float64 {
	return float64(s.Player.Stats.Aura) * (1 + float64(s.Player.Stats.Mental)/10)
}

// PlayerHealthPercent is the player's health bar value, clamped to [0, 100].
func (s *Store) PlayerHealthPercent() float64 {
	maxHP := s.Player.Stats.Vitality
	if maxHP < 1 {
		maxHP = 1
	}
	return clampPercent(s.Player.CurrentHealth / float64(maxHP) * 100)
}

// EnemyHealthPercent is the current enemy's health bar value, clamped to
// [0, 100]; zero when no enemy is present.
func (s *Store) EnemyHealthPercent() float64 {
	e := s.CurrentEnemy
	if e == nil {
		return 0
	}
	maxHP := e.BaseHealth
	if maxHP < 1 {
		maxHP = 1
	}
	return clampPercent(e.CurrentHealth / maxHP * 100)
}

// ExperiencePercent is progress toward the next level, clamped to [0, 100].
func (s *Store) ExperiencePercent() float64 {
	cost := ExperienceForLevel(s.Player.Level)
	if cost < 1 {
		cost = 1
	}
	return clampPercent(float64(s.Player.Experience) / float64(cost) * 100)
}

// ExperienceForLevel is the XP required to advance past the given level:
// floor(20 * 1.2^(L-1)). Levels below 1 are treated as 1.
func ExperienceForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return saturatedFloor(experienceBase * math.Pow(experienceFactor, float64(level-1)))
}

// saturatedFloor converts a cost-curve value to int, pinning out-of-range
// values at MaxInt. Loaded saves can carry levels large enough for the
// exponential curves to exceed the int range; a saturated cost keeps
// upgrades denied and level loops terminating instead of wrapping negative.
func saturatedFloor(v float64) int {
	if v >= math.MaxInt64 {
		return math.MaxInt
	}
	return int(math.Floor(v))
}

// RecruitByID returns a pointer into the Recruits slice, or nil.
func (s *Store) RecruitByID(id string) *Recruit {
	for i := range s.Recruits {
		if s.Recruits[i].ID == id {
			return &s.Recruits[i]
		}
	}
	return nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
