package discord

import (
	"context"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command/commandtest"
	"github.com/keshon/rockola/internal/command/music"
	"github.com/keshon/rockola/internal/lavalink"
	"github.com/keshon/rockola/internal/playback"
	"github.com/keshon/rockola/internal/searchcache"
)

type nopBackend struct {
	mu        sync.Mutex
	destroyed []string
}

func (*nopBackend) LoadTracks(context.Context, string) (*lavalink.LoadResult, error) {
	return &lavalink.LoadResult{LoadType: lavalink.LoadTypeEmpty}, nil
}

func (*nopBackend) UpdatePlayer(context.Context, string, lavalink.PlayerUpdate) error { return nil }

func (b *nopBackend) DestroyPlayer(_ context.Context, guildID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = append(b.destroyed, guildID)
	return nil
}

type nopJoiner struct{}

func (nopJoiner) ChannelVoiceJoinManual(string, string, bool, bool) error { return nil }

func newVoiceBot(t *testing.T) (*Bot, *nopBackend, *playback.Player) {
	t.Helper()
	mock := clock.NewMock()
	backend := &nopBackend{}
	cache := searchcache.New[*lavalink.LoadResult](searchcache.DefaultTTL, searchcache.WithClock(mock))
	mgr := playback.NewManager(backend, nopJoiner{}, cache, playback.Config{}, playback.WithClock(mock))

	p, created := mgr.CreatePlayer(playback.PlayerOptions{GuildID: testGuild, VoiceChannelID: "voice-a", TextChannelID: testText})
	require.True(t, created)
	return &Bot{music: mgr, log: zap.NewNop()}, backend, p
}

func TestKickedFromVoiceDestroysPlayer(t *testing.T) {
	b, backend, p := newVoiceBot(t)
	s := commandtest.NewSession()

	b.handleVoiceChange(context.Background(), s, p, voiceKicked, "")

	_, ok := b.music.Player(testGuild)
	assert.False(t, ok)
	assert.Equal(t, []string{testGuild}, backend.destroyed)
	sent := s.Messages(testText)
	require.Len(t, sent, 1)
	assert.Equal(t, music.KickedMessage, sent[0].Content)
}

func TestMovedInVoiceKeepsPlayer(t *testing.T) {
	b, backend, p := newVoiceBot(t)
	s := commandtest.NewSession()

	b.handleVoiceChange(context.Background(), s, p, voiceMoved, "voice-b")

	_, ok := b.music.Player(testGuild)
	assert.True(t, ok)
	assert.Empty(t, backend.destroyed)
	assert.Equal(t, "voice-b", p.VoiceChannelID())
	sent := s.Messages(testText)
	require.Len(t, sent, 1)
	assert.Equal(t, music.MovedMessage, sent[0].Content)
}

func TestJoinedVoiceIsSilent(t *testing.T) {
	b, _, p := newVoiceBot(t)
	s := commandtest.NewSession()

	b.handleVoiceChange(context.Background(), s, p, voiceJoined, "voice-a")
	assert.Empty(t, s.Sent)
}
