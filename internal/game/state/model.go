// Package state holds the canonical mutable game state and its pure derived
// computations. Entities here are plain data; the engine packages own all
// transitions.
package state

import "github.com/EvannNalewajek/guilde/internal/game/catalogue"

// Location identifies where the player currently is.
type Location string

const (
	// LocationGuild is the home hub: stat allocation, upgrades, quest board, recruits.
	LocationGuild Location = "guild"
	// LocationForest is the combat location with the rotating enemy.
	LocationForest Location = "forest"
)

// StatKey names one of the five player/recruit stats.
type StatKey string

const (
	StatStrength   StatKey = "strength"
	StatResilience StatKey = "resilience"
	StatVitality   StatKey = "vitality"
	StatAura       StatKey = "aura"
	StatMental     StatKey = "mental"
)

// StatKeys lists all stat keys in display order.
func StatKeys() []StatKey {
	return []StatKey{StatStrength, StatResilience, StatVitality, StatAura, StatMental}
}

// ParseStatKey validates a stat name coming from outside the core.
func ParseStatKey(s string) (StatKey, bool) {
	switch StatKey(s) {
	case StatStrength, StatResilience, StatVitality, StatAura, StatMental:
		return StatKey(s), true
	}
	return "", false
}

// Stats is the five-attribute block shared by the player and recruits.
type Stats struct {
	Strength   int `json:"strength"`
	Resilience int `json:"resilience"`
	Vitality   int `json:"vitality"`
	Aura       int `json:"aura"`
	Mental     int `json:"mental"`
}

// Value returns the named stat. Unknown keys return 0.
func (s Stats) Value(key StatKey) int {
	switch key {
	case StatStrength:
		return s.Strength
	case StatResilience:
		return s.Resilience
	case StatVitality:
		return s.Vitality
	case StatAura:
		return s.Aura
	case StatMental:
		return s.Mental
	}
	return 0
}

// Add increments the named stat by n. Unknown keys are ignored.
func (s *Stats) Add(key StatKey, n int) {
	switch key {
	case StatStrength:
		s.Strength += n
	case StatResilience:
		s.Resilience += n
	case StatVitality:
		s.Vitality += n
	case StatAura:
		s.Aura += n
	case StatMental:
		s.Mental += n
	}
}

// Player is the player's persistent state.
//
// Invariant: 0 <= CurrentHealth <= float64(Stats.Vitality).
type Player struct {
	Gold  int   `json:"gold"`
	Stats Stats `json:"stats"`
	// SpentStats mirrors Stats and accumulates allocated points.
	SpentStats        Stats   `json:"spentStats"`
	CurrentHealth     float64 `json:"currentHealth"`
	Level             int     `json:"level"`
	Experience        int     `json:"experience"`
	UnspentStatPoints int     `json:"unspentStatPoints"`
}

// Enemy is a live instance of an enemy template.
//
// Invariant: 0 <= CurrentHealth <= BaseHealth.
type Enemy struct {
	catalogue.EnemyTemplate
	CurrentHealth float64 `json:"currentHealth"`
}

// QuestKind discriminates quest behaviors. HuntCountByType is the only kind.
type QuestKind string

// KindHuntCountByType is a "kill N enemies of a given type" quest.
const KindHuntCountByType QuestKind = "HuntCountByType"

// Quest is a quest instance, either an unaccepted offer or an accepted quest.
type Quest struct {
	ID         string    `json:"id"`
	Kind       QuestKind `json:"kind"`
	EnemyType  string    `json:"enemyType"`
	Count      int       `json:"count"`
	GoldReward int       `json:"goldReward"`
	Progress   int       `json:"progress"`
	Completed  bool      `json:"completed"`
	// AcceptedAt is epoch millis; zero while the quest is still an offer.
	AcceptedAt int64 `json:"acceptedAt,omitempty"`
}

// RecruitStatus is the recruit task state machine's state.
type RecruitStatus string

const (
	RecruitIdle      RecruitStatus = "idle"
	RecruitOnMission RecruitStatus = "on-mission"
	RecruitTraining  RecruitStatus = "training"
	RecruitResting   RecruitStatus = "resting"
)

// ActiveMission is a running mission. The outcome is fixed at start:
// PreRolled is compared against SuccessChance at resolution, so time skips
// and replays cannot change the result.
type ActiveMission struct {
	TemplateID string `json:"templateId"`
	Title      string `json:"title"`
	StartedAt  int64  `json:"startedAt"` // epoch millis
	ETA        int64  `json:"eta"`       // epoch millis
	// Progress is the elapsed fraction in [0, 1], updated by the task tick.
	Progress      float64 `json:"progress"`
	SuccessChance float64 `json:"successChance"`
	PreRolled     float64 `json:"preRolled"`
	Difficulty    int     `json:"difficulty"`
	GoldReward    int     `json:"goldReward"`
}

// ActiveTraining is a running training session. Both outcome flags are
// rolled at start.
type ActiveTraining struct {
	Type             StatKey `json:"type"`
	StartedAt        int64   `json:"startedAt"`
	ETA              int64   `json:"eta"`
	GreatPerformance bool    `json:"greatPerformance"`
	Injury           bool    `json:"injury"`
}

// ActiveRest is a running rest. Recovery is recomputed from MissingAtStart
// and elapsed time, so it is continuous and monotonic.
type ActiveRest struct {
	StartedAt      int64 `json:"startedAt"`
	ETA            int64 `json:"eta"`
	MissingAtStart int   `json:"missingAtStart"`
}

// Recruit is a guild member with an independent task state machine.
//
// Invariant: exactly the task struct matching Status is non-nil; all three
// are nil when Status is idle.
// Invariant: 0 <= HP <= Stats.Vitality and 0 <= Det <= DetMax.
type Recruit struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Stats    Stats           `json:"stats"`
	HP       int             `json:"hp"`
	Det      int             `json:"det"`
	DetMax   int             `json:"detMax"`
	Status   RecruitStatus   `json:"status"`
	Mission  *ActiveMission  `json:"mission,omitempty"`
	Training *ActiveTraining `json:"training,omitempty"`
	Rest     *ActiveRest     `json:"rest,omitempty"`
}
