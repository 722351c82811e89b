package discord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/keshon/rockola/internal/command/commandtest"
	"github.com/keshon/rockola/internal/command/music"
	"github.com/keshon/rockola/internal/playback"
	"github.com/keshon/rockola/internal/stats"
	"github.com/keshon/rockola/internal/supervisor"
)

const (
	testGuild = "111"
	testText  = "222"
	testNode  = "main-node"
)

type pumpEnv struct {
	pump    *eventPump
	session *commandtest.Session
	stats   *stats.MemoryStore
	super   *supervisor.Supervisor
	logs    *observer.ObservedLogs
}

func newPumpEnv() *pumpEnv {
	core, logs := observer.New(zapcore.DebugLevel)
	session := commandtest.NewSession()
	tally := stats.NewMemoryStore()
	super := supervisor.New(func(string) (supervisor.Connector, bool) { return nil, false }, supervisor.Options{
		Clock: clock.NewMock(),
	})
	return &pumpEnv{
		pump:    &eventPump{session: session, stats: tally, super: super, log: zap.New(core)},
		session: session,
		stats:   tally,
		super:   super,
		logs:    logs,
	}
}

func TestPumpTrackStartTalliesAndAnnounces(t *testing.T) {
	e := newPumpEnv()
	ctx := context.Background()

	tr := playback.Track{Title: "Gasolina", Author: "Daddy Yankee", Duration: 3 * time.Minute, SourceName: "youtube"}
	e.pump.handle(ctx, playback.Event{Type: playback.EventTrackStart, GuildID: testGuild, TextChannelID: testText, Track: &tr})
	e.pump.handle(ctx, playback.Event{Type: playback.EventTrackStart, GuildID: testGuild, TextChannelID: testText, Track: &tr})

	top, err := e.stats.Top(ctx, testGuild, 10)
	require.NoError(t, err)
	assert.Equal(t, []stats.Entry{{Title: "Gasolina", Count: 2}}, top)

	sent := e.session.Messages(testText)
	require.Len(t, sent, 2)
	require.Len(t, sent[0].Embeds, 1)
	assert.Contains(t, sent[0].Embeds[0].Description, "Gasolina")
	assert.Len(t, sent[0].Components, 1)
}

func TestPumpSkipsMessagesWithoutTextChannel(t *testing.T) {
	e := newPumpEnv()

	e.pump.handle(context.Background(), playback.Event{Type: playback.EventQueueEnd, GuildID: testGuild})
	assert.Empty(t, e.session.Sent)
}

func TestPumpQueueEndAndPlaybackError(t *testing.T) {
	e := newPumpEnv()
	ctx := context.Background()

	e.pump.handle(ctx, playback.Event{Type: playback.EventQueueEnd, GuildID: testGuild, TextChannelID: testText})
	e.pump.handle(ctx, playback.Event{Type: playback.EventPlaybackError, GuildID: testGuild, TextChannelID: testText, Err: errors.New("video unavailable")})
	e.pump.handle(ctx, playback.Event{Type: playback.EventPlaybackError, GuildID: testGuild, TextChannelID: testText})

	sent := e.session.Messages(testText)
	require.Len(t, sent, 3)
	assert.Equal(t, music.QueueEndedMessage, sent[0].Content)
	assert.Contains(t, sent[1].Content, "video unavailable")
	assert.Contains(t, sent[2].Content, "error desconocido")
}

func TestPumpLogsFailedNotifications(t *testing.T) {
	e := newPumpEnv()
	e.session.Err = errors.New("missing access")

	e.pump.handle(context.Background(), playback.Event{Type: playback.EventQueueEnd, GuildID: testGuild, TextChannelID: testText})
	assert.Equal(t, 1, e.logs.FilterMessage("failed to notify text channel").Len())
}

func TestPumpDrivesSupervisor(t *testing.T) {
	e := newPumpEnv()
	ctx := context.Background()

	e.pump.handle(ctx, playback.Event{Type: playback.EventNodeDisconnected, NodeID: testNode, Code: 1006, Reason: "abnormal"})
	assert.True(t, e.super.Pending(testNode))
	assert.Equal(t, 1, e.super.Attempts(testNode))

	e.pump.handle(ctx, playback.Event{Type: playback.EventNodeReady, NodeID: testNode})
	assert.False(t, e.super.Pending(testNode))
	assert.Zero(t, e.super.Attempts(testNode))
}

func TestPumpRunStopsOnClosedChannel(t *testing.T) {
	e := newPumpEnv()
	events := make(chan playback.Event, 1)
	events <- playback.Event{Type: playback.EventQueueEnd, GuildID: testGuild, TextChannelID: testText}
	close(events)

	require.NoError(t, e.pump.run(context.Background(), events))
	assert.Len(t, e.session.Messages(testText), 1)
}

func TestPumpRunStopsOnContext(t *testing.T) {
	e := newPumpEnv()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, e.pump.run(ctx, make(chan playback.Event)))
}
