package playback

import (
	"slices"

	"github.com/pkg/errors"
)

// RepeatMode controls what happens when a track ends.
type RepeatMode string

const (
	RepeatOff   RepeatMode = "off"
	RepeatTrack RepeatMode = "track"
	RepeatQueue RepeatMode = "queue"
)

var (
	ErrUnknownRepeatMode  = errors.New("unknown repeat mode")
	ErrPositionOutOfRange = errors.New("queue position out of range")
)

// ParseRepeatMode accepts track, queue and off.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch m := RepeatMode(s); m {
	case RepeatOff, RepeatTrack, RepeatQueue:
		return m, nil
	}
	return RepeatOff, errors.Wrapf(ErrUnknownRepeatMode, "%q", s)
}

// DefaultMaxPrevious bounds the history kept per queue.
const DefaultMaxPrevious = 25

// Queue is the upcoming tracks plus the current one and a bounded history.
// It is not safe for concurrent use; Player guards it.
type Queue struct {
	tracks      []Track
	current     *Track
	previous    []Track
	maxPrevious int
	repeat      RepeatMode
}

func NewQueue(maxPrevious int) *Queue {
	if maxPrevious <= 0 {
		maxPrevious = DefaultMaxPrevious
	}
	return &Queue{maxPrevious: maxPrevious, repeat: RepeatOff}
}

// Tracks returns a copy of the upcoming tracks.
func (q *Queue) Tracks() []Track { return slices.Clone(q.tracks) }

func (q *Queue) Len() int { return len(q.tracks) }

func (q *Queue) Current() (Track, bool) {
	if q.current == nil {
		return Track{}, false
	}
	return *q.current, true
}

// Previous returns played tracks, oldest first.
func (q *Queue) Previous() []Track { return slices.Clone(q.previous) }

func (q *Queue) Repeat() RepeatMode { return q.repeat }

func (q *Queue) SetRepeat(m RepeatMode) { q.repeat = m }

// Add appends tracks to the end.
func (q *Queue) Add(tracks ...Track) {
	q.tracks = append(q.tracks, tracks...)
}

// Remove deletes the track at 1-based position.
func (q *Queue) Remove(position int) (Track, error) {
	if position < 1 || position > len(q.tracks) {
		return Track{}, errors.Wrapf(ErrPositionOutOfRange, "position %d of %d", position, len(q.tracks))
	}
	t := q.tracks[position-1]
	q.tracks = slices.Delete(q.tracks, position-1, position)
	return t, nil
}

// DropBefore discards every track ahead of 1-based position so that it
// becomes the next one.
func (q *Queue) DropBefore(position int) error {
	if position < 1 || position > len(q.tracks) {
		return errors.Wrapf(ErrPositionOutOfRange, "position %d of %d", position, len(q.tracks))
	}
	q.tracks = slices.Delete(q.tracks, 0, position-1)
	return nil
}

// Clear empties the upcoming tracks and returns how many were removed.
// The current track is kept.
func (q *Queue) Clear() int {
	n := len(q.tracks)
	q.tracks = nil
	return n
}

// Shuffle reorders the upcoming tracks.
func (q *Queue) Shuffle(intn func(int) int) error {
	shuffled, err := Shuffle(q.tracks, intn)
	if err != nil {
		return err
	}
	q.tracks = shuffled
	return nil
}

// Advance moves to the next track according to the repeat mode and returns
// it. skipped means the current track was skipped or failed, so track
// repeat does not replay it. ok is false when nothing is left.
func (q *Queue) Advance(skipped bool) (next Track, ok bool) {
	if cur := q.current; cur != nil {
		if q.repeat == RepeatTrack && !skipped {
			return *cur, true
		}
		q.pushPrevious(*cur)
		if q.repeat == RepeatQueue {
			q.tracks = append(q.tracks, *cur)
		}
		q.current = nil
	}

	if len(q.tracks) == 0 {
		return Track{}, false
	}
	t := q.tracks[0]
	q.tracks = q.tracks[1:]
	q.current = &t
	return t, true
}

// Reset drops everything, including the current track.
func (q *Queue) Reset() {
	if q.current != nil {
		q.pushPrevious(*q.current)
	}
	q.current = nil
	q.tracks = nil
}

func (q *Queue) pushPrevious(t Track) {
	q.previous = append(q.previous, t)
	if over := len(q.previous) - q.maxPrevious; over > 0 {
		q.previous = slices.Delete(q.previous, 0, over)
	}
}
