package persistence

import (
	"time"

	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/game/state"
)

// BlobStore is the durable storage the manager writes through.
//
// Postcondition: Get returns (nil, nil) when no payload exists under key.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, payload []byte) error
	Delete(key string) error
}

// Manager binds the codec to a store and a storage key. Every engine saves
// through it; storage failures are logged and swallowed so the simulation
// never halts on I/O.
type Manager struct {
	store  *state.Store
	blobs  BlobStore
	key    string
	now    func() time.Time
	logger *zap.Logger
}

// NewManager creates a save manager.
//
// Precondition: all arguments must be non-nil and key non-empty.
func NewManager(store *state.Store, blobs BlobStore, key string, now func() time.Time, logger *zap.Logger) *Manager {
	return &Manager{store: store, blobs: blobs, key: key, now: now, logger: logger}
}

// Save snapshots the store and writes it under the fixed key. Failures are
// logged, never returned.
func (m *Manager) Save() {
	payload, err := Encode(Snapshot(m.store, m.now()))
	if err != nil {
		m.logger.Error("save: encode failed", zap.Error(err))
		return
	}
	if err := m.blobs.Put(m.key, payload); err != nil {
		m.logger.Error("save: write failed", zap.Error(err))
	}
}

// Load reads the persisted blob, migrates it, and applies it to the store.
//
// Postcondition: Returns false and leaves the store untouched when no save
// exists, storage errors, or the payload is unparseable.
func (m *Manager) Load() bool {
	payload, err := m.blobs.Get(m.key)
	if err != nil {
		m.logger.Error("load: read failed", zap.Error(err))
		return false
	}
	if payload == nil {
		return false
	}

	blob, err := Decode(payload)
	if err != nil {
		m.logger.Warn("load: discarding unparseable save", zap.Error(err))
		return false
	}

	Apply(m.store, blob)
	m.logger.Info("save loaded",
		zap.Int("schema_version", blob.V),
		zap.Int("guild_level", blob.GuildLevel),
		zap.Int("player_level", blob.Player.Level),
	)
	return true
}

// Wipe deletes the persisted blob. The in-memory store is left as is.
func (m *Manager) Wipe() {
	if err := m.blobs.Delete(m.key); err != nil {
		m.logger.Error("wipe: delete failed", zap.Error(err))
	}
}
