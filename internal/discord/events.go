package discord

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/command/music"
	"github.com/keshon/rockola/internal/playback"
	"github.com/keshon/rockola/internal/stats"
	"github.com/keshon/rockola/internal/supervisor"
)

// eventPump turns playback events into channel messages, tally updates and
// supervisor transitions.
type eventPump struct {
	session command.Session
	stats   stats.Store
	super   *supervisor.Supervisor
	log     *zap.Logger
}

// run consumes events until ctx is done or the channel closes.
func (p *eventPump) run(ctx context.Context, events <-chan playback.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handle(ctx, ev)
		}
	}
}

func (p *eventPump) handle(ctx context.Context, ev playback.Event) {
	switch ev.Type {
	case playback.EventNodeConnected:
		p.log.Info("lavalink node connected", zap.String("node", ev.NodeID))

	case playback.EventNodeReady:
		p.log.Info("lavalink node ready", zap.String("node", ev.NodeID))
		p.super.Dispatch(supervisor.Event{Kind: supervisor.EventNodeReady, NodeID: ev.NodeID})

	case playback.EventNodeDisconnected:
		p.log.Warn("lavalink node closed", zap.String("node", ev.NodeID), zap.Int("code", ev.Code), zap.String("reason", ev.Reason))
		p.super.Dispatch(supervisor.Event{Kind: supervisor.EventNodeUnavailable, NodeID: ev.NodeID})

	case playback.EventNodeError:
		p.log.Error("lavalink node error", zap.String("node", ev.NodeID), zap.Error(ev.Err))

	case playback.EventTrackStart:
		if ev.Track == nil {
			return
		}
		t := *ev.Track
		p.log.Info("track started",
			zap.String("guild", ev.GuildID),
			zap.String("title", t.Title),
			zap.String("author", t.Author),
			zap.String("platform", t.Platform()),
		)
		if err := p.stats.RecordPlay(ctx, ev.GuildID, t.Title); err != nil {
			p.log.Warn("record play", zap.String("guild", ev.GuildID), zap.Error(err))
		}
		p.send(ev, func() error {
			return command.MessageEmbed(p.session, ev.TextChannelID, music.NowPlayingEmbed(t), music.ControlRow())
		})

	case playback.EventQueueEnd:
		p.send(ev, func() error {
			return command.Message(p.session, ev.TextChannelID, music.QueueEndedMessage)
		})

	case playback.EventPlaybackError:
		reason := "error desconocido"
		if ev.Err != nil {
			reason = ev.Err.Error()
		}
		p.log.Warn("playback error", zap.String("guild", ev.GuildID), zap.Error(ev.Err))
		p.send(ev, func() error {
			return command.Message(p.session, ev.TextChannelID, fmt.Sprintf(music.PlaybackErrorMessage, reason))
		})
	}
}

func (p *eventPump) send(ev playback.Event, fn func() error) {
	if ev.TextChannelID == "" {
		return
	}
	if err := fn(); err != nil {
		p.log.Warn("failed to notify text channel",
			zap.String("guild", ev.GuildID),
			zap.String("channel", ev.TextChannelID),
			zap.Stringer("event", ev.Type),
			zap.Error(err),
		)
	}
}
