// Package persistence serializes the game state to a versioned JSON blob
// and restores it with forward-only migration. Older or partially corrupt
// blobs are never rejected: absent or malformed fields fall back to the
// fresh-game defaults field by field.
package persistence

import (
	"encoding/json"
	"time"

	"github.com/EvannNalewajek/guilde/internal/game/state"
)

// SchemaVersion tags every blob written by this build.
const SchemaVersion = 2

// Blob is the persisted save schema.
type Blob struct {
	V              int             `json:"v"`
	TS             int64           `json:"ts"`
	Player         state.Player    `json:"player"`
	Location       state.Location  `json:"location"`
	CurrentEnemy   *state.Enemy    `json:"currentEnemy"`
	EnemyIndex     int             `json:"enemyIndex"`
	GuildLevel     int             `json:"guildLevel"`
	QuestOffers    []state.Quest   `json:"questOffers"`
	AcceptedQuests []state.Quest   `json:"acceptedQuests"`
	Recruits       []state.Recruit `json:"recruits"`
}

// Snapshot captures the store into a blob tagged with the current schema
// version and timestamp.
func Snapshot(s *state.Store, now time.Time) Blob {
	return Blob{
		V:              SchemaVersion,
		TS:             now.UnixMilli(),
		Player:         s.Player,
		Location:       s.Location,
		CurrentEnemy:   s.CurrentEnemy,
		EnemyIndex:     s.EnemyIndex,
		GuildLevel:     s.GuildLevel,
		QuestOffers:    s.QuestOffers,
		AcceptedQuests: s.AcceptedQuests,
		Recruits:       s.Recruits,
	}
}

// Encode renders the blob as JSON.
func Encode(b Blob) ([]byte, error) {
	return json.Marshal(b)
}

// Raw mirrors of the schema with pointer fields, so that "absent" is
// distinguishable from the zero value during migration.

type rawStats struct {
	Strength   *int `json:"strength"`
	Resilience *int `json:"resilience"`
	Vitality   *int `json:"vitality"`
	Aura       *int `json:"aura"`
	Mental     *int `json:"mental"`
}

type rawPlayer struct {
	Gold              *int      `json:"gold"`
	Stats             *rawStats `json:"stats"`
	SpentStats        *rawStats `json:"spentStats"`
	CurrentHealth     *float64  `json:"currentHealth"`
	Level             *int      `json:"level"`
	Experience        *int      `json:"experience"`
	UnspentStatPoints *int      `json:"unspentStatPoints"`
}

type rawBlob struct {
	V              *int            `json:"v"`
	TS             *int64          `json:"ts"`
	Player         *rawPlayer      `json:"player"`
	Location       *string         `json:"location"`
	CurrentEnemy   *state.Enemy    `json:"currentEnemy"`
	EnemyIndex     *int            `json:"enemyIndex"`
	GuildLevel     *int            `json:"guildLevel"`
	QuestOffers    json.RawMessage `json:"questOffers"`
	AcceptedQuests json.RawMessage `json:"acceptedQuests"`
	Recruits       json.RawMessage `json:"recruits"`
}

// Decode parses payload and migrates it to the current schema version.
// Any missing field takes its fresh-game default; only unparseable JSON
// returns an error.
func Decode(payload []byte) (Blob, error) {
	var raw rawBlob
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Blob{}, err
	}
	return migrate(raw), nil
}

func migrate(raw rawBlob) Blob {
	b := Blob{
		V:          SchemaVersion,
		GuildLevel: 1,
		Location:   state.LocationGuild,
		Player:     mergePlayer(raw.Player),
	}

	if raw.TS != nil {
		b.TS = *raw.TS
	}
	if raw.Location != nil {
		switch state.Location(*raw.Location) {
		case state.LocationGuild, state.LocationForest:
			b.Location = state.Location(*raw.Location)
		}
	}
	if raw.GuildLevel != nil && *raw.GuildLevel >= 1 {
		b.GuildLevel = *raw.GuildLevel
	}
	if raw.EnemyIndex != nil {
		b.EnemyIndex = *raw.EnemyIndex
	}
	b.CurrentEnemy = sanitizeEnemy(raw.CurrentEnemy)
	b.QuestOffers = decodeQuests(raw.QuestOffers)
	b.AcceptedQuests = decodeQuests(raw.AcceptedQuests)
	b.Recruits = decodeRecruits(raw.Recruits)
	return b
}

// mergePlayer layers the saved player over the fresh-game player, deep
// merging the two stat blocks, then re-clamps health to [0, vitality] so a
// corrupted save cannot grant out-of-range health.
func mergePlayer(raw *rawPlayer) state.Player {
	p := state.DefaultPlayer()
	if raw == nil {
		return p
	}

	if raw.Gold != nil {
		p.Gold = *raw.Gold
	}
	p.Stats = mergeStats(p.Stats, raw.Stats)
	p.SpentStats = mergeStats(p.SpentStats, raw.SpentStats)
	if raw.Level != nil && *raw.Level >= 1 {
		p.Level = *raw.Level
	}
	if raw.Experience != nil && *raw.Experience >= 0 {
		p.Experience = *raw.Experience
	}
	if raw.UnspentStatPoints != nil && *raw.UnspentStatPoints >= 0 {
		p.UnspentStatPoints = *raw.UnspentStatPoints
	}

	maxHP := float64(p.Stats.Vitality)
	p.CurrentHealth = maxHP
	if raw.CurrentHealth != nil {
		p.CurrentHealth = clamp(*raw.CurrentHealth, 0, maxHP)
	}
	return p
}

func mergeStats(base state.Stats, raw *rawStats) state.Stats {
	if raw == nil {
		return base
	}
	if raw.Strength != nil {
		base.Strength = *raw.Strength
	}
	if raw.Resilience != nil {
		base.Resilience = *raw.Resilience
	}
	if raw.Vitality != nil {
		base.Vitality = *raw.Vitality
	}
	if raw.Aura != nil {
		base.Aura = *raw.Aura
	}
	if raw.Mental != nil {
		base.Mental = *raw.Mental
	}
	return base
}

func sanitizeEnemy(e *state.Enemy) *state.Enemy {
	if e == nil {
		return nil
	}
	c := *e
	c.CurrentHealth = clamp(c.CurrentHealth, 0, c.BaseHealth)
	return &c
}

// decodeQuests tolerates a missing or malformed list; both yield an empty
// slice rather than an error.
func decodeQuests(raw json.RawMessage) []state.Quest {
	if len(raw) == 0 {
		return []state.Quest{}
	}
	var quests []state.Quest
	if err := json.Unmarshal(raw, &quests); err != nil || quests == nil {
		return []state.Quest{}
	}
	return quests
}

func decodeRecruits(raw json.RawMessage) []state.Recruit {
	if len(raw) == 0 {
		return []state.Recruit{}
	}
	var recruits []state.Recruit
	if err := json.Unmarshal(raw, &recruits); err != nil || recruits == nil {
		return []state.Recruit{}
	}
	for i := range recruits {
		sanitizeRecruit(&recruits[i])
	}
	return recruits
}

// sanitizeRecruit re-establishes the recruit invariants: HP and
// determination bounds, a known status, and a task struct matching it.
func sanitizeRecruit(r *state.Recruit) {
	if r.Stats.Vitality < 1 {
		r.Stats.Vitality = 1
	}
	if r.DetMax < 1 {
		r.DetMax = 10
	}
	r.HP = clampInt(r.HP, 0, r.Stats.Vitality)
	r.Det = clampInt(r.Det, 0, r.DetMax)

	switch r.Status {
	case state.RecruitOnMission:
		if r.Mission == nil {
			r.Status = state.RecruitIdle
		}
	case state.RecruitTraining:
		if r.Training == nil {
			r.Status = state.RecruitIdle
		}
	case state.RecruitResting:
		if r.Rest == nil {
			r.Status = state.RecruitIdle
		}
	default:
		r.Status = state.RecruitIdle
	}
	if r.Status != state.RecruitOnMission {
		r.Mission = nil
	}
	if r.Status != state.RecruitTraining {
		r.Training = nil
	}
	if r.Status != state.RecruitResting {
		r.Rest = nil
	}
}

// Apply replaces the store's persisted fields with the blob's. The
// notification counters are in-memory only and stay untouched.
func Apply(s *state.Store, b Blob) {
	s.Player = b.Player
	s.Location = b.Location
	s.CurrentEnemy = b.CurrentEnemy
	s.EnemyIndex = b.EnemyIndex
	s.GuildLevel = b.GuildLevel
	s.QuestOffers = b.QuestOffers
	s.AcceptedQuests = b.AcceptedQuests
	s.Recruits = b.Recruits
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
