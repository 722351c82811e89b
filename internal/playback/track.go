// Package playback owns the per-guild players: their queues, repeat modes and
// the translation of Lavalink events into bot-level events.
package playback

import (
	"strings"
	"time"

	"github.com/keshon/rockola/internal/lavalink"
)

// Track is a queued track together with who asked for it.
type Track struct {
	Encoded    string
	Identifier string
	Title      string
	Author     string
	Duration   time.Duration
	SourceName string
	URI        string
	ArtworkURL string
	IsStream   bool
	Requester  string
}

// FromLavalink converts a loaded track.
func FromLavalink(t lavalink.Track, requester string) Track {
	return Track{
		Encoded:    t.Encoded,
		Identifier: t.Info.Identifier,
		Title:      t.Info.Title,
		Author:     t.Info.Author,
		Duration:   t.Info.Duration(),
		SourceName: t.Info.SourceName,
		URI:        t.Info.URI,
		ArtworkURL: t.Info.ArtworkURL,
		IsStream:   t.Info.IsStream,
		Requester:  requester,
	}
}

// Platform names where the track comes from for display.
func (t Track) Platform() string {
	switch {
	case t.SourceName != "":
		return t.SourceName
	case strings.Contains(t.URI, "youtube"), strings.Contains(t.URI, "youtu.be"):
		return "YouTube"
	default:
		return "Desconocida"
	}
}
