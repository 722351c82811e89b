package lavalink

// Event is anything a Node reports to its handler.
type Event interface {
	Node() string
}

// NodeRef tags an event with the id of the node that produced it.
type NodeRef struct {
	NodeID string
}

func (r NodeRef) Node() string { return r.NodeID }

type NodeConnectedEvent struct {
	NodeRef
}

// ReadyEvent arrives once the node assigned a session id.
type ReadyEvent struct {
	NodeRef
	SessionID string
	Resumed   bool
}

// NodeClosedEvent means an established websocket went away.
type NodeClosedEvent struct {
	NodeRef
	Code   int
	Reason string
}

// NodeErrorEvent reports a failure that did not close an established connection.
type NodeErrorEvent struct {
	NodeRef
	Err error
}

type StatsEvent struct {
	NodeRef
	Players        int
	PlayingPlayers int
	Uptime         int64
}

type PlayerUpdateEvent struct {
	NodeRef
	GuildID string
	State   PlayerState
}

type TrackStartEvent struct {
	NodeRef
	GuildID string
	Track   Track
}

type TrackEndEvent struct {
	NodeRef
	GuildID string
	Track   Track
	Reason  EndReason
}

type TrackExceptionEvent struct {
	NodeRef
	GuildID   string
	Track     Track
	Exception Exception
}

type TrackStuckEvent struct {
	NodeRef
	GuildID     string
	Track       Track
	ThresholdMs int64
}

// WebSocketClosedEvent is the Discord voice socket of a player closing.
type WebSocketClosedEvent struct {
	NodeRef
	GuildID  string
	Code     int
	Reason   string
	ByRemote bool
}

// decodeFrame maps a frame to an event. ok is false for frames the client
// ignores.
func decodeFrame(nodeID string, f frame) (ev Event, ok bool) {
	ref := NodeRef{NodeID: nodeID}

	switch f.Op {
	case "ready":
		return ReadyEvent{NodeRef: ref, SessionID: f.SessionID, Resumed: f.Resumed}, true
	case "playerUpdate":
		return PlayerUpdateEvent{NodeRef: ref, GuildID: f.GuildID, State: f.State}, true
	case "stats":
		return StatsEvent{NodeRef: ref, Players: f.Players, PlayingPlayers: f.PlayingPlayers, Uptime: f.Uptime}, true
	case "event":
	default:
		return nil, false
	}

	switch f.Type {
	case "TrackStartEvent":
		return TrackStartEvent{NodeRef: ref, GuildID: f.GuildID, Track: f.Track}, true
	case "TrackEndEvent":
		return TrackEndEvent{NodeRef: ref, GuildID: f.GuildID, Track: f.Track, Reason: EndReason(f.Reason)}, true
	case "TrackExceptionEvent":
		return TrackExceptionEvent{NodeRef: ref, GuildID: f.GuildID, Track: f.Track, Exception: f.Exception}, true
	case "TrackStuckEvent":
		return TrackStuckEvent{NodeRef: ref, GuildID: f.GuildID, Track: f.Track, ThresholdMs: f.ThresholdMs}, true
	case "WebSocketClosedEvent":
		return WebSocketClosedEvent{NodeRef: ref, GuildID: f.GuildID, Code: f.Code, Reason: f.Reason, ByRemote: f.ByRemote}, true
	}
	return nil, false
}
