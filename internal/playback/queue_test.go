package playback

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTracks(n int) []Track {
	out := make([]Track, n)
	for i := range out {
		out[i] = Track{Encoded: fmt.Sprintf("enc%d", i+1), Title: fmt.Sprintf("Track %d", i+1)}
	}
	return out
}

func titlesOf(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}

func TestAdvanceRepeatOff(t *testing.T) {
	q := NewQueue(0)
	q.Add(makeTracks(2)...)

	next, ok := q.Advance(false)
	require.True(t, ok)
	assert.Equal(t, "Track 1", next.Title)

	next, ok = q.Advance(false)
	require.True(t, ok)
	assert.Equal(t, "Track 2", next.Title)

	_, ok = q.Advance(false)
	assert.False(t, ok)
	_, hasCurrent := q.Current()
	assert.False(t, hasCurrent)
	assert.Equal(t, []string{"Track 1", "Track 2"}, titlesOf(q.Previous()))
}

func TestAdvanceRepeatTrack(t *testing.T) {
	q := NewQueue(0)
	q.Add(makeTracks(2)...)
	q.SetRepeat(RepeatTrack)
	q.Advance(false)

	next, ok := q.Advance(false)
	require.True(t, ok)
	assert.Equal(t, "Track 1", next.Title)

	next, ok = q.Advance(true)
	require.True(t, ok)
	assert.Equal(t, "Track 2", next.Title)
}

func TestAdvanceRepeatQueue(t *testing.T) {
	q := NewQueue(0)
	q.Add(makeTracks(2)...)
	q.SetRepeat(RepeatQueue)

	var played []string
	for i := 0; i < 5; i++ {
		next, ok := q.Advance(false)
		require.True(t, ok)
		played = append(played, next.Title)
	}
	assert.Equal(t, []string{"Track 1", "Track 2", "Track 1", "Track 2", "Track 1"}, played)
}

func TestPreviousIsBounded(t *testing.T) {
	q := NewQueue(3)
	q.Add(makeTracks(6)...)
	for i := 0; i < 6; i++ {
		q.Advance(false)
	}
	assert.Equal(t, []string{"Track 3", "Track 4", "Track 5"}, titlesOf(q.Previous()))
}

func TestRemoveAndDropBefore(t *testing.T) {
	q := NewQueue(0)
	q.Add(makeTracks(5)...)

	removed, err := q.Remove(2)
	require.NoError(t, err)
	assert.Equal(t, "Track 2", removed.Title)
	assert.Equal(t, []string{"Track 1", "Track 3", "Track 4", "Track 5"}, titlesOf(q.Tracks()))

	require.NoError(t, q.DropBefore(3))
	assert.Equal(t, []string{"Track 4", "Track 5"}, titlesOf(q.Tracks()))

	for _, pos := range []int{0, -1, 3} {
		_, err := q.Remove(pos)
		assert.ErrorIs(t, err, ErrPositionOutOfRange)
		assert.ErrorIs(t, q.DropBefore(pos), ErrPositionOutOfRange)
	}
	assert.Equal(t, 2, q.Len())
}

func TestClearKeepsCurrent(t *testing.T) {
	q := NewQueue(0)
	q.Add(makeTracks(3)...)
	q.Advance(false)

	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())
	cur, ok := q.Current()
	assert.True(t, ok)
	assert.Equal(t, "Track 1", cur.Title)
}

func TestParseRepeatMode(t *testing.T) {
	for _, s := range []string{"off", "track", "queue"} {
		m, err := ParseRepeatMode(s)
		require.NoError(t, err)
		assert.Equal(t, RepeatMode(s), m)
	}
	_, err := ParseRepeatMode("forever")
	assert.ErrorIs(t, err, ErrUnknownRepeatMode)
}
