package playback

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/lavalink"
)

var (
	ErrNothingPlaying  = errors.New("nothing is playing")
	ErrAlreadyPaused   = errors.New("playback is already paused")
	ErrNotPaused       = errors.New("playback is not paused")
	ErrNotEnoughTracks = errors.New("not enough tracks to shuffle")
	ErrPlayerDestroyed = errors.New("player was destroyed")
	ErrNoVoiceChannel  = errors.New("voice channel is not set")
)

// PlayerOptions are fixed when a player is created.
type PlayerOptions struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
	Volume         int
	SelfDeaf       bool
}

type voiceParts struct {
	sessionID string
	token     string
	endpoint  string
}

func (v voiceParts) complete() bool {
	return v.sessionID != "" && v.token != "" && v.endpoint != ""
}

// Player is the state of one guild: its queue and what Lavalink is doing
// with it. All methods are safe for concurrent use.
type Player struct {
	m    *Manager
	opts PlayerOptions
	log  *zap.Logger

	mu        sync.Mutex
	queue     *Queue
	playing   bool
	paused    bool
	position  int64
	voice     voiceParts
	idle      *clock.Timer
	destroyed bool
}

func newPlayer(m *Manager, opts PlayerOptions) *Player {
	return &Player{
		m:     m,
		opts:  opts,
		log:   m.log.With(zap.String("guild", opts.GuildID)),
		queue: NewQueue(m.cfg.MaxPreviousTracks),
	}
}

func (p *Player) GuildID() string       { return p.opts.GuildID }
func (p *Player) TextChannelID() string { return p.opts.TextChannelID }

func (p *Player) VoiceChannelID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts.VoiceChannelID
}

// SetVoiceChannel records that the bot was moved to channelID.
func (p *Player) SetVoiceChannel(channelID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts.VoiceChannelID = channelID
}

// Connect asks the gateway to put the bot in the voice channel. Lavalink
// finishes the handshake once the voice updates are forwarded.
func (p *Player) Connect() error {
	p.mu.Lock()
	channelID := p.opts.VoiceChannelID
	p.mu.Unlock()

	if channelID == "" {
		return ErrNoVoiceChannel
	}
	if err := p.m.joiner.ChannelVoiceJoinManual(p.opts.GuildID, channelID, false, p.opts.SelfDeaf); err != nil {
		return errors.Wrapf(err, "join voice channel %s", channelID)
	}
	p.log.Info("joining voice channel", zap.String("channel", channelID))
	return nil
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position is the last position Lavalink reported, in milliseconds.
func (p *Player) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *Player) Current() (Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Current()
}

// Tracks returns the upcoming tracks.
func (p *Player) Tracks() []Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Tracks()
}

func (p *Player) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

func (p *Player) Previous() []Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Previous()
}

func (p *Player) Repeat() RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Repeat()
}

func (p *Player) SetRepeat(mode RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue.SetRepeat(mode)
}

// Add enqueues tracks and cancels a pending idle disconnect.
func (p *Player) Add(tracks ...Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue.Add(tracks...)
	p.stopIdleLocked()
}

// Play starts the next queued track unless something is playing or paused.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrPlayerDestroyed
	}
	if p.playing || p.paused {
		return nil
	}
	next, ok := p.queue.Advance(true)
	if !ok {
		return ErrNothingPlaying
	}
	return p.startLocked(ctx, next)
}

func (p *Player) Pause(ctx context.Context) error {
	return p.setPaused(ctx, true)
}

func (p *Player) Resume(ctx context.Context) error {
	return p.setPaused(ctx, false)
}

func (p *Player) setPaused(ctx context.Context, paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.queue.Current(); !ok {
		return ErrNothingPlaying
	}
	if paused && p.paused {
		return ErrAlreadyPaused
	}
	if !paused && !p.paused {
		return ErrNotPaused
	}
	if err := p.m.backend.UpdatePlayer(ctx, p.opts.GuildID, lavalink.PlayerUpdate{Paused: lavalink.Ptr(paused)}); err != nil {
		return err
	}
	p.paused = paused
	p.playing = !paused
	return nil
}

// Skip ends the current track and starts the next one. With nothing left it
// stops playback and reports the end of the queue.
func (p *Player) Skip(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipLocked(ctx)
}

// SkipTo jumps to the track at 1-based position in the upcoming list.
func (p *Player) SkipTo(ctx context.Context, position int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.queue.DropBefore(position); err != nil {
		return err
	}
	return p.skipLocked(ctx)
}

func (p *Player) skipLocked(ctx context.Context) error {
	if _, ok := p.queue.Current(); !ok {
		return ErrNothingPlaying
	}
	p.paused = false

	next, ok := p.queue.Advance(true)
	if ok {
		return p.startLocked(ctx, next)
	}

	err := p.m.backend.UpdatePlayer(ctx, p.opts.GuildID, lavalink.PlayerUpdate{Track: lavalink.StopTrack()})
	p.queueEndedLocked()
	return err
}

// Remove deletes the upcoming track at 1-based position.
func (p *Player) Remove(position int) (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Remove(position)
}

// Clear empties the upcoming tracks without touching the current one.
func (p *Player) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Clear()
}

// Shuffle reorders the upcoming tracks. It needs at least two.
func (p *Player) Shuffle() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := p.queue.Len()
	if before < 2 {
		return ErrNotEnoughTracks
	}
	if err := p.queue.Shuffle(p.m.intn); err != nil {
		p.log.Error("shuffle failed", zap.Int("before", before), zap.Error(err))
		return err
	}
	p.log.Debug("queue shuffled", zap.Int("before", before), zap.Int("after", p.queue.Len()))
	return nil
}

func (p *Player) startLocked(ctx context.Context, t Track) error {
	update := lavalink.PlayerUpdate{
		Track:  lavalink.PlayTrack(t.Encoded),
		Volume: lavalink.Ptr(p.opts.Volume),
		Paused: lavalink.Ptr(false),
	}
	if err := p.m.backend.UpdatePlayer(ctx, p.opts.GuildID, update); err != nil {
		p.playing = false
		return errors.Wrapf(err, "start %q", t.Title)
	}
	p.playing = true
	p.paused = false
	p.stopIdleLocked()
	return nil
}

func (p *Player) queueEndedLocked() {
	p.playing = false
	p.paused = false
	p.m.emit(Event{Type: EventQueueEnd, GuildID: p.opts.GuildID, TextChannelID: p.opts.TextChannelID})
	p.startIdleLocked()
}

func (p *Player) startIdleLocked() {
	p.stopIdleLocked()
	if p.m.cfg.EmptyQueueTimeout <= 0 {
		return
	}
	var timer *clock.Timer
	timer = p.m.clock.AfterFunc(p.m.cfg.EmptyQueueTimeout, func() {
		p.mu.Lock()
		stale := p.idle != timer || p.playing || p.destroyed
		p.mu.Unlock()
		if stale {
			return
		}
		p.log.Info("queue stayed empty, destroying player", zap.Duration("after", p.m.cfg.EmptyQueueTimeout))
		if err := p.m.Destroy(context.Background(), p.opts.GuildID); err != nil {
			p.log.Warn("idle destroy failed", zap.Error(err))
		}
	})
	p.idle = timer
}

func (p *Player) stopIdleLocked() {
	if p.idle != nil {
		p.idle.Stop()
		p.idle = nil
	}
}

func (p *Player) handleTrackStart(ev lavalink.TrackStartEvent) {
	p.mu.Lock()
	t, ok := p.queue.Current()
	if !ok || t.Encoded != ev.Track.Encoded {
		t = FromLavalink(ev.Track, "")
	}
	p.playing = true
	p.mu.Unlock()

	p.m.emit(Event{Type: EventTrackStart, GuildID: p.opts.GuildID, TextChannelID: p.opts.TextChannelID, Track: &t})
}

func (p *Player) handleTrackEnd(ctx context.Context, ev lavalink.TrackEndEvent) {
	if !ev.Reason.MayStartNext() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}

	p.playing = false
	next, ok := p.queue.Advance(ev.Reason == lavalink.EndReasonLoadFailed)
	if !ok {
		p.queueEndedLocked()
		return
	}
	if err := p.startLocked(ctx, next); err != nil {
		p.log.Error("could not start next track", zap.String("title", next.Title), zap.Error(err))
		p.m.emit(Event{Type: EventPlaybackError, GuildID: p.opts.GuildID, TextChannelID: p.opts.TextChannelID, Track: &next, Err: err})
	}
}

func (p *Player) handleTrackException(ev lavalink.TrackExceptionEvent) {
	t := p.trackFor(ev.Track)
	p.log.Warn("track exception", zap.String("title", t.Title), zap.String("severity", ev.Exception.Severity), zap.String("message", ev.Exception.Message))
	p.m.emit(Event{Type: EventPlaybackError, GuildID: p.opts.GuildID, TextChannelID: p.opts.TextChannelID, Track: &t, Err: ev.Exception})
}

func (p *Player) handleTrackStuck(ctx context.Context, ev lavalink.TrackStuckEvent) {
	t := p.trackFor(ev.Track)
	p.log.Warn("track stuck", zap.String("title", t.Title), zap.Int64("threshold_ms", ev.ThresholdMs))
	p.m.emit(Event{
		Type: EventPlaybackError, GuildID: p.opts.GuildID, TextChannelID: p.opts.TextChannelID,
		Track: &t, Err: errors.Errorf("track stuck for %dms", ev.ThresholdMs),
	})
	if err := p.Skip(ctx); err != nil && !errors.Is(err, ErrNothingPlaying) {
		p.log.Error("skip after stuck track failed", zap.Error(err))
	}
}

func (p *Player) handlePlayerUpdate(ev lavalink.PlayerUpdateEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = ev.State.Position
}

func (p *Player) trackFor(lt lavalink.Track) Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.queue.Current(); ok && t.Encoded == lt.Encoded {
		return t
	}
	return FromLavalink(lt, "")
}

// updateVoice merges a voice update and returns the full state once all
// three parts are known.
func (p *Player) updateVoice(apply func(*voiceParts)) (lavalink.VoiceState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	apply(&p.voice)
	if !p.voice.complete() {
		return lavalink.VoiceState{}, false
	}
	return lavalink.VoiceState{Token: p.voice.token, Endpoint: p.voice.endpoint, SessionID: p.voice.sessionID}, true
}

// markDestroyed flips the player to its terminal state and reports whether
// this call did it.
func (p *Player) markDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return false
	}
	p.destroyed = true
	p.playing = false
	p.paused = false
	p.stopIdleLocked()
	p.queue.Reset()
	return true
}
