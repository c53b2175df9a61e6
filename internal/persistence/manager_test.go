package persistence_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/state"
	"github.com/EvannNalewajek/guilde/internal/persistence"
)

// memStore is an in-memory BlobStore with injectable failures.
type memStore struct {
	blobs   map[string][]byte
	failGet bool
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (m *memStore) Get(key string) ([]byte, error) {
	if m.failGet {
		return nil, errors.New("storage offline")
	}
	return m.blobs[key], nil
}

func (m *memStore) Put(key string, payload []byte) error {
	if m.failPut {
		return errors.New("storage offline")
	}
	m.blobs[key] = payload
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.blobs, key)
	return nil
}

const testKey = "idle-game-save"

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	blobs := newMemStore()
	src := populatedStore()
	persistence.NewManager(src, blobs, testKey, fixedNow, zap.NewNop()).Save()
	require.Contains(t, blobs.blobs, testKey)

	dst := state.NewStore()
	loaded := persistence.NewManager(dst, blobs, testKey, fixedNow, zap.NewNop()).Load()
	require.True(t, loaded)
	assert.Equal(t, src.Player, dst.Player)
	assert.Equal(t, src.GuildLevel, dst.GuildLevel)
	assert.Equal(t, src.Recruits, dst.Recruits)
}

func TestManager_LoadMissingIsNoOp(t *testing.T) {
	store := state.NewStore()
	store.Player.Gold = 7

	m := persistence.NewManager(store, newMemStore(), testKey, fixedNow, zap.NewNop())
	assert.False(t, m.Load())
	assert.Equal(t, 7, store.Player.Gold, "store keeps its in-memory state")
}

func TestManager_LoadCorruptIsNoOp(t *testing.T) {
	blobs := newMemStore()
	blobs.blobs[testKey] = []byte("not json at all")

	store := state.NewStore()
	m := persistence.NewManager(store, blobs, testKey, fixedNow, zap.NewNop())
	assert.False(t, m.Load())
	assert.Equal(t, state.NewStore(), store)
}

func TestManager_StorageFailuresNeverPropagate(t *testing.T) {
	blobs := newMemStore()
	blobs.failGet = true
	blobs.failPut = true

	store := state.NewStore()
	m := persistence.NewManager(store, blobs, testKey, fixedNow, zap.NewNop())

	assert.NotPanics(t, func() { m.Save() })
	assert.False(t, m.Load())
}

func TestManager_Wipe(t *testing.T) {
	blobs := newMemStore()
	store := state.NewStore()
	m := persistence.NewManager(store, blobs, testKey, fixedNow, zap.NewNop())

	m.Save()
	require.Contains(t, blobs.blobs, testKey)
	m.Wipe()
	assert.NotContains(t, blobs.blobs, testKey)
	assert.False(t, m.Load())
}
