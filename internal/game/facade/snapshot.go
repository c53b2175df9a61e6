package facade

import "github.com/EvannNalewajek/guilde/internal/game/state"

// Snapshot is a read-only view of the game for the presentation layer:
// the persisted fields plus every derived value the UI renders.
type Snapshot struct {
	Location state.Location `json:"location"`
	Player   state.Player   `json:"player"`

	PlayerDPS              float64 `json:"playerDps"`
	PlayerHealthPercent    float64 `json:"playerHealthPercent"`
	ExperiencePercent      float64 `json:"experiencePercent"`
	ExperienceForNextLevel int     `json:"experienceForNextLevel"`

	CurrentEnemy       *state.Enemy `json:"currentEnemy"`
	EnemyHealthPercent float64      `json:"enemyHealthPercent"`
	EnemyIndex         int          `json:"enemyIndex"`

	GuildLevel        int  `json:"guildLevel"`
	GuildUpgradeCost  int  `json:"guildUpgradeCost"`
	HasQuestBoard     bool `json:"hasQuestBoard"`
	RecruitSlots      int  `json:"recruitSlots"`
	MaxAcceptedQuests int  `json:"maxAcceptedQuests"`

	QuestOffers    []state.Quest   `json:"questOffers"`
	AcceptedQuests []state.Quest   `json:"acceptedQuests"`
	Recruits       []state.Recruit `json:"recruits"`

	LevelUpTick        int          `json:"levelUpTick"`
	QuestCompleteTick  int          `json:"questCompleteTick"`
	LastCompletedQuest *state.Quest `json:"lastCompletedQuest"`
}

// Snapshot captures the current state under the lock. Slices and nested
// pointers are copied, so the caller can serialize without racing a tick.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.store
	snap := Snapshot{
		Location: s.Location,
		Player:   s.Player,

		PlayerDPS:              s.PlayerDPS(),
		PlayerHealthPercent:    s.PlayerHealthPercent(),
		ExperiencePercent:      s.ExperiencePercent(),
		ExperienceForNextLevel: state.ExperienceForLevel(s.Player.Level),

		EnemyHealthPercent: s.EnemyHealthPercent(),
		EnemyIndex:         s.EnemyIndex,

		GuildLevel:        s.GuildLevel,
		GuildUpgradeCost:  s.GuildUpgradeCost(),
		HasQuestBoard:     s.HasQuestBoard(),
		RecruitSlots:      s.RecruitSlots(),
		MaxAcceptedQuests: s.MaxAcceptedQuests(),

		QuestOffers:    append([]state.Quest{}, s.QuestOffers...),
		AcceptedQuests: append([]state.Quest{}, s.AcceptedQuests...),
		Recruits:       copyRecruits(s.Recruits),

		LevelUpTick:       s.LevelUpTick,
		QuestCompleteTick: s.QuestCompleteTick,
	}
	if s.CurrentEnemy != nil {
		e := *s.CurrentEnemy
		snap.CurrentEnemy = &e
	}
	if s.LastCompletedQuest != nil {
		q := *s.LastCompletedQuest
		snap.LastCompletedQuest = &q
	}
	return snap
}

func copyRecruits(recruits []state.Recruit) []state.Recruit {
	out := make([]state.Recruit, len(recruits))
	for i, r := range recruits {
		if r.Mission != nil {
			m := *r.Mission
			r.Mission = &m
		}
		if r.Training != nil {
			tr := *r.Training
			r.Training = &tr
		}
		if r.Rest != nil {
			rest := *r.Rest
			r.Rest = &rest
		}
		out[i] = r
	}
	return out
}
