package stats

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Backend names accepted by NewStore callers.
const (
	BackendMemory    = "memory"
	BackendDatastore = "datastore"
	BackendRedis     = "redis"
)

// Store records plays and answers top-N queries for a guild.
type Store interface {
	RecordPlay(ctx context.Context, guildID, title string) error
	Top(ctx context.Context, guildID string, n int) ([]Entry, error)
}

// MemoryStore is a Store that lives for the process lifetime.
type MemoryStore struct {
	tally *Tally
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tally: NewTally()}
}

func (m *MemoryStore) RecordPlay(_ context.Context, guildID, title string) error {
	m.tally.RecordPlay(guildID, title)
	return nil
}

func (m *MemoryStore) Top(_ context.Context, guildID string, n int) ([]Entry, error) {
	return m.tally.Top(guildID, n), nil
}

// SnapshotStore persists a guild's full tally. internal/storage implements it
// on top of the JSON datastore.
type SnapshotStore interface {
	TallySnapshot(guildID string) ([]Entry, error)
	SaveTallySnapshot(guildID string, entries []Entry) error
}

// PersistentStore keeps the tally in memory and writes a snapshot through
// after every play. Guilds are loaded lazily on first access.
type PersistentStore struct {
	tally  *Tally
	snaps  SnapshotStore
	mu     sync.Mutex
	loaded map[string]bool
}

func NewPersistentStore(snaps SnapshotStore) *PersistentStore {
	return &PersistentStore{
		tally:  NewTally(),
		snaps:  snaps,
		loaded: make(map[string]bool),
	}
}

func (p *PersistentStore) RecordPlay(_ context.Context, guildID, title string) error {
	if err := p.load(guildID); err != nil {
		return err
	}
	p.tally.RecordPlay(guildID, title)
	if err := p.snaps.SaveTallySnapshot(guildID, p.tally.Snapshot(guildID)); err != nil {
		return errors.Wrapf(err, "save tally for guild %s", guildID)
	}
	return nil
}

func (p *PersistentStore) Top(_ context.Context, guildID string, n int) ([]Entry, error) {
	if err := p.load(guildID); err != nil {
		return nil, err
	}
	return p.tally.Top(guildID, n), nil
}

func (p *PersistentStore) load(guildID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded[guildID] {
		return nil
	}
	entries, err := p.snaps.TallySnapshot(guildID)
	if err != nil {
		return errors.Wrapf(err, "load tally for guild %s", guildID)
	}
	p.tally.Restore(guildID, entries)
	p.loaded[guildID] = true
	return nil
}
