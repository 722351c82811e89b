// Package lavalink is a small client for the Lavalink v4 websocket and REST API.
// It covers what the bot needs: loading tracks, updating and destroying
// players, and turning websocket frames into typed events.
package lavalink

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// TrackInfo is the decoded metadata of a track.
type TrackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri,omitempty"`
	ArtworkURL string `json:"artworkUrl,omitempty"`
	ISRC       string `json:"isrc,omitempty"`
	SourceName string `json:"sourceName"`
}

// Duration converts Length from milliseconds.
func (i TrackInfo) Duration() time.Duration {
	return time.Duration(i.Length) * time.Millisecond
}

// Track is an encoded track plus its metadata.
type Track struct {
	Encoded string    `json:"encoded"`
	Info    TrackInfo `json:"info"`
}

type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// Exception is how Lavalink reports a failed load or playback.
type Exception struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

func (e Exception) Error() string {
	if e.Message == "" {
		return "lavalink exception (" + e.Severity + "): " + e.Cause
	}
	return e.Message
}

type PlaylistInfo struct {
	Name          string `json:"name"`
	SelectedTrack int    `json:"selectedTrack"`
}

// LoadResult is the response of /v4/loadtracks with Data already decoded
// according to LoadType.
type LoadResult struct {
	LoadType  LoadType
	Tracks    []Track
	Playlist  *PlaylistInfo
	Exception *Exception
}

func (r *LoadResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		LoadType LoadType        `json:"loadType"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = LoadResult{LoadType: raw.LoadType}

	switch raw.LoadType {
	case LoadTypeTrack:
		var t Track
		if err := json.Unmarshal(raw.Data, &t); err != nil {
			return errors.Wrap(err, "decode track result")
		}
		r.Tracks = []Track{t}
	case LoadTypePlaylist:
		var p struct {
			Info   PlaylistInfo `json:"info"`
			Tracks []Track      `json:"tracks"`
		}
		if err := json.Unmarshal(raw.Data, &p); err != nil {
			return errors.Wrap(err, "decode playlist result")
		}
		r.Playlist = &p.Info
		r.Tracks = p.Tracks
	case LoadTypeSearch:
		if err := json.Unmarshal(raw.Data, &r.Tracks); err != nil {
			return errors.Wrap(err, "decode search result")
		}
	case LoadTypeError:
		var e Exception
		if err := json.Unmarshal(raw.Data, &e); err != nil {
			return errors.Wrap(err, "decode load exception")
		}
		r.Exception = &e
	case LoadTypeEmpty:
	default:
		return errors.Errorf("unknown load type %q", raw.LoadType)
	}
	return nil
}

// VoiceState is the Discord voice session Lavalink connects with.
type VoiceState struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

// PlayerUpdateTrack sets or clears the playing track. A nil Encoded
// serializes to null, which stops playback.
type PlayerUpdateTrack struct {
	Encoded *string `json:"encoded"`
}

// PlayerUpdate is the PATCH body for a player. Nil fields are left untouched.
type PlayerUpdate struct {
	Track    *PlayerUpdateTrack `json:"track,omitempty"`
	Position *int64             `json:"position,omitempty"`
	Paused   *bool              `json:"paused,omitempty"`
	Volume   *int               `json:"volume,omitempty"`
	Voice    *VoiceState        `json:"voice,omitempty"`
}

// PlayTrack is a PlayerUpdateTrack that starts encoded.
func PlayTrack(encoded string) *PlayerUpdateTrack {
	return &PlayerUpdateTrack{Encoded: &encoded}
}

// StopTrack is a PlayerUpdateTrack that stops the current track.
func StopTrack() *PlayerUpdateTrack {
	return &PlayerUpdateTrack{}
}

func Ptr[T any](v T) *T { return &v }

// PlayerState is sent with every playerUpdate frame.
type PlayerState struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
	Ping      int   `json:"ping"`
}

// EndReason says why a track ended.
type EndReason string

const (
	EndReasonFinished   EndReason = "finished"
	EndReasonLoadFailed EndReason = "loadFailed"
	EndReasonStopped    EndReason = "stopped"
	EndReasonReplaced   EndReason = "replaced"
	EndReasonCleanup    EndReason = "cleanup"
)

// MayStartNext reports whether the queue should advance after this reason.
func (r EndReason) MayStartNext() bool {
	return r == EndReasonFinished || r == EndReasonLoadFailed
}

// frame is the common envelope of websocket messages.
type frame struct {
	Op      string `json:"op"`
	Type    string `json:"type"`
	GuildID string `json:"guildId"`

	// ready
	Resumed   bool   `json:"resumed"`
	SessionID string `json:"sessionId"`

	// playerUpdate
	State PlayerState `json:"state"`

	// stats
	Players        int   `json:"players"`
	PlayingPlayers int   `json:"playingPlayers"`
	Uptime         int64 `json:"uptime"`

	// event
	Track       Track     `json:"track"`
	Reason      string    `json:"reason"`
	Exception   Exception `json:"exception"`
	ThresholdMs int64     `json:"thresholdMs"`
	Code        int       `json:"code"`
	ByRemote    bool      `json:"byRemote"`
}
