package playback

import "fmt"

// EventType enumerates what the manager reports to the bot.
type EventType int

const (
	EventNodeConnected EventType = iota
	EventNodeDisconnected
	EventNodeReady
	EventNodeError
	EventTrackStart
	EventQueueEnd
	EventPlaybackError
)

func (t EventType) String() string {
	switch t {
	case EventNodeConnected:
		return "node_connected"
	case EventNodeDisconnected:
		return "node_disconnected"
	case EventNodeReady:
		return "node_ready"
	case EventNodeError:
		return "node_error"
	case EventTrackStart:
		return "track_start"
	case EventQueueEnd:
		return "queue_end"
	case EventPlaybackError:
		return "playback_error"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event is a lifecycle notification. Node events carry NodeID; player events
// carry GuildID and the text channel the player reports to.
type Event struct {
	Type          EventType
	NodeID        string
	GuildID       string
	TextChannelID string
	Track         *Track
	Err           error
	Code          int
	Reason        string
}
