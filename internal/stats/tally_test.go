package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopSortsByCount(t *testing.T) {
	tally := NewTally()
	for _, title := range []string{"A", "B", "A", "C", "A", "B"} {
		tally.RecordPlay("g1", title)
	}

	top := tally.Top("g1", 1)
	require.Len(t, top, 1)
	assert.Equal(t, Entry{Title: "A", Count: 3}, top[0])

	assert.Equal(t, []Entry{{"A", 3}, {"B", 2}, {"C", 1}}, tally.Top("g1", 10))
}

func TestTopTiesKeepFirstPlayOrder(t *testing.T) {
	tally := NewTally()
	for _, title := range []string{"Zeta", "Alpha", "Mid", "Alpha", "Zeta", "Mid"} {
		tally.RecordPlay("g1", title)
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, []Entry{{"Zeta", 2}, {"Alpha", 2}, {"Mid", 2}}, tally.Top("g1", 3))
	}
}

func TestTopEmptyGuild(t *testing.T) {
	tally := NewTally()
	tally.RecordPlay("g1", "A")

	assert.Empty(t, tally.Top("g2", 10))
	assert.Empty(t, tally.Top("g1", 0))
}

func TestGuildsAreIsolated(t *testing.T) {
	tally := NewTally()
	tally.RecordPlay("g1", "A")
	tally.RecordPlay("g2", "B")

	assert.Equal(t, []Entry{{"A", 1}}, tally.Top("g1", 10))
	assert.Equal(t, []Entry{{"B", 1}}, tally.Top("g2", 10))
}

func TestSnapshotRestore(t *testing.T) {
	tally := NewTally()
	for _, title := range []string{"B", "A", "A"} {
		tally.RecordPlay("g1", title)
	}
	snap := tally.Snapshot("g1")
	assert.Equal(t, []Entry{{"B", 1}, {"A", 2}}, snap)

	restored := NewTally()
	restored.Restore("g1", snap)
	restored.RecordPlay("g1", "B")
	assert.Equal(t, []Entry{{"B", 2}, {"A", 2}}, restored.Top("g1", 10))
}

type memSnapshots struct {
	data  map[string][]Entry
	saves int
}

func (m *memSnapshots) TallySnapshot(guildID string) ([]Entry, error) {
	return m.data[guildID], nil
}

func (m *memSnapshots) SaveTallySnapshot(guildID string, entries []Entry) error {
	m.saves++
	m.data[guildID] = entries
	return nil
}

func TestPersistentStoreLoadsAndSaves(t *testing.T) {
	ctx := context.Background()
	snaps := &memSnapshots{data: map[string][]Entry{"g1": {{"Old", 4}}}}
	store := NewPersistentStore(snaps)

	require.NoError(t, store.RecordPlay(ctx, "g1", "New"))
	require.NoError(t, store.RecordPlay(ctx, "g1", "Old"))

	top, err := store.Top(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"Old", 5}, {"New", 1}}, top)
	assert.Equal(t, 2, snaps.saves)
	assert.Equal(t, []Entry{{"Old", 5}, {"New", 1}}, snaps.data["g1"])
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	var store Store = NewMemoryStore()

	require.NoError(t, store.RecordPlay(ctx, "g1", "A"))
	top, err := store.Top(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"A", 1}}, top)
}
