package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/catalogue"
	"github.com/EvannNalewajek/guilde/internal/game/facade"
	"github.com/EvannNalewajek/guilde/internal/game/rng"
	"github.com/EvannNalewajek/guilde/internal/game/state"
	"github.com/EvannNalewajek/guilde/internal/persistence"
	"github.com/EvannNalewajek/guilde/internal/server"
)

type memStore struct{ blobs map[string][]byte }

func (m *memStore) Get(key string) ([]byte, error) { return m.blobs[key], nil }
func (m *memStore) Put(key string, payload []byte) error {
	m.blobs[key] = payload
	return nil
}
func (m *memStore) Delete(key string) error {
	delete(m.blobs, key)
	return nil
}

type fakeLoop struct {
	started, stopped, paused, resumed int
}

func (f *fakeLoop) Start()  { f.started++ }
func (f *fakeLoop) Stop()   { f.stopped++ }
func (f *fakeLoop) Pause()  { f.paused++ }
func (f *fakeLoop) Resume() { f.resumed++ }

func newTestServer(t *testing.T) (http.Handler, *state.Store, *fakeLoop) {
	t.Helper()
	store := state.NewStore()
	blobs := &memStore{blobs: map[string][]byte{}}
	saves := persistence.NewManager(store, blobs, "idle-game-save", time.Now, zap.NewNop())
	game := facade.New(store, catalogue.Default(), saves, &rng.Sequence{}, time.Now, zap.NewNop())
	loop := &fakeLoop{}
	return server.New(game, loop, zap.NewNop()).Router(), store, loop
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestState_ReturnsSnapshot(t *testing.T) {
	h, store, _ := newTestServer(t)
	store.Player.Gold = 42

	w := do(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap facade.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 42, snap.Player.Gold)
	assert.Equal(t, state.LocationGuild, snap.Location)
	assert.Equal(t, 150, snap.GuildUpgradeCost)
}

func TestForestRoutes(t *testing.T) {
	h, store, _ := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/forest/enter", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, state.LocationForest, store.Location)

	w = do(t, h, http.MethodPost, "/api/attack", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/forest/leave", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, state.LocationGuild, store.Location)

	// No enemy outside the forest.
	w = do(t, h, http.MethodPost, "/api/attack", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"ok": false}`, w.Body.String())
}

func TestUpgradeGuild_PreconditionFailure(t *testing.T) {
	h, store, _ := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/guild/upgrade", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	store.Player.Gold = 200
	w = do(t, h, http.MethodPost, "/api/guild/upgrade", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, store.GuildLevel)
}

func TestAddStat_BulkCount(t *testing.T) {
	h, store, _ := newTestServer(t)
	store.Player.UnspentStatPoints = 3

	w := do(t, h, http.MethodPost, "/api/stats/strength", `{"count": 5}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK      bool `json:"ok"`
		Applied int  `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 3, resp.Applied)

	// No points left.
	w = do(t, h, http.MethodPost, "/api/stats/strength", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuestRoutes(t *testing.T) {
	h, store, _ := newTestServer(t)
	store.GuildLevel = 2
	store.QuestOffers = []state.Quest{
		{ID: "q1", Kind: state.KindHuntCountByType, EnemyType: "goblin", Count: 5, GoldReward: 30},
	}

	w := do(t, h, http.MethodPost, "/api/quests/unknown/accept", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/api/quests/q1/accept", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.AcceptedQuests, 1)

	w = do(t, h, http.MethodPost, "/api/quests/q1/abandon", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.AcceptedQuests)
}

func TestRecruitRoutes(t *testing.T) {
	h, store, _ := newTestServer(t)
	store.GuildLevel = 5

	w := do(t, h, http.MethodPost, "/api/recruits", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "name is required")

	w = do(t, h, http.MethodPost, "/api/recruits", `{"name": "Mira"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)

	w = do(t, h, http.MethodPost, "/api/recruits/"+resp.ID+"/mission", `{"template": "forest-scout"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/recruits/"+resp.ID+"/training", `{"type": "strength"}`)
	assert.Equal(t, http.StatusConflict, w.Code, "recruit is on a mission")

	w = do(t, h, http.MethodPost, "/api/recruits/"+resp.ID+"/mission/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Second hire exceeds the single slot.
	w = do(t, h, http.MethodPost, "/api/recruits", `{"name": "Edda"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMissionsRoute(t *testing.T) {
	h, _, _ := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/missions", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Missions []catalogue.MissionTemplate `json:"missions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Missions, 4)
}

func TestEngineRoutes(t *testing.T) {
	h, _, loop := newTestServer(t)

	for _, path := range []string{"start", "pause", "resume", "stop"} {
		w := do(t, h, http.MethodPost, "/api/engine/"+path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	assert.Equal(t, 1, loop.started)
	assert.Equal(t, 1, loop.paused)
	assert.Equal(t, 1, loop.resumed)
	assert.Equal(t, 1, loop.stopped)
}

func TestSaveAndWipe(t *testing.T) {
	h, store, _ := newTestServer(t)
	store.Player.Gold = 99

	w := do(t, h, http.MethodPost, "/api/save", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/wipe", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, store.Player.Gold)
}
