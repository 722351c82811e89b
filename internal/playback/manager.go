package playback

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/lavalink"
	"github.com/keshon/rockola/internal/searchcache"
	"github.com/keshon/rockola/pkg/util"
)

const shutdownWorkers = 4

// ErrNoResults is returned by Search when nothing matched.
var ErrNoResults = errors.New("no tracks found")

// Backend is the Lavalink surface the manager drives. *lavalink.Registry
// implements it.
type Backend interface {
	LoadTracks(ctx context.Context, identifier string) (*lavalink.LoadResult, error)
	UpdatePlayer(ctx context.Context, guildID string, update lavalink.PlayerUpdate) error
	DestroyPlayer(ctx context.Context, guildID string) error
}

// VoiceJoiner sends gateway voice state updates. *discordgo.Session
// implements it.
type VoiceJoiner interface {
	ChannelVoiceJoinManual(guildID, channelID string, mute, deaf bool) error
}

// Config holds the playback defaults.
type Config struct {
	DefaultVolume     int
	SearchPlatform    SearchPlatform
	EmptyQueueTimeout time.Duration
	MaxPreviousTracks int
	EventBuffer       int
}

func (c Config) withDefaults() Config {
	if c.DefaultVolume <= 0 {
		c.DefaultVolume = 50
	}
	if c.SearchPlatform == "" {
		c.SearchPlatform = PlatformYouTube
	}
	if c.MaxPreviousTracks <= 0 {
		c.MaxPreviousTracks = DefaultMaxPrevious
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
	return c
}

// SearchResult is what a lookup produced, ready to enqueue.
type SearchResult struct {
	LoadType     lavalink.LoadType
	PlaylistName string
	Tracks       []Track
}

// Option configures a Manager.
type Option func(*Manager)

func WithClock(c clock.Clock) Option { return func(m *Manager) { m.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

// WithRandom replaces the shuffle source.
func WithRandom(intn func(int) int) Option { return func(m *Manager) { m.intn = intn } }

// Manager owns every guild player and the search cache in front of Lavalink.
type Manager struct {
	backend Backend
	joiner  VoiceJoiner
	cache   *searchcache.Cache[*lavalink.LoadResult]
	cfg     Config
	clock   clock.Clock
	log     *zap.Logger
	intn    func(int) int
	events  chan Event

	mu      sync.RWMutex
	players map[string]*Player
}

func NewManager(backend Backend, joiner VoiceJoiner, cache *searchcache.Cache[*lavalink.LoadResult], cfg Config, opts ...Option) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		backend: backend,
		joiner:  joiner,
		cache:   cache,
		cfg:     cfg,
		clock:   clock.New(),
		log:     zap.NewNop(),
		players: make(map[string]*Player),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.events = make(chan Event, cfg.EventBuffer)
	return m
}

// Events is the stream of lifecycle events for the bot to act on.
func (m *Manager) Events() <-chan Event { return m.events }

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.cfg }

func (m *Manager) Player(guildID string) (*Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[guildID]
	return p, ok
}

// CreatePlayer returns the guild's player, creating it when missing.
// created tells whether the caller should Connect it.
func (m *Manager) CreatePlayer(opts PlayerOptions) (p *Player, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.players[opts.GuildID]; ok {
		return p, false
	}
	if opts.Volume <= 0 {
		opts.Volume = m.cfg.DefaultVolume
	}
	p = newPlayer(m, opts)
	m.players[opts.GuildID] = p
	m.log.Info("player created", zap.String("guild", opts.GuildID), zap.String("voice", opts.VoiceChannelID))
	return p, true
}

// Players returns how many guild players exist.
func (m *Manager) Players() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// Destroy removes the guild's player from Lavalink and leaves voice.
// Destroying a missing player is a no-op.
func (m *Manager) Destroy(ctx context.Context, guildID string) error {
	m.mu.Lock()
	p, ok := m.players[guildID]
	delete(m.players, guildID)
	m.mu.Unlock()

	if !ok || !p.markDestroyed() {
		return nil
	}

	var errs error
	if err := m.backend.DestroyPlayer(ctx, guildID); err != nil && !errors.Is(err, lavalink.ErrNoNodeAvailable) {
		errs = errors.Wrap(err, "destroy lavalink player")
	}
	if err := m.joiner.ChannelVoiceJoinManual(guildID, "", false, true); err != nil && errs == nil {
		errs = errors.Wrap(err, "leave voice channel")
	}
	m.log.Info("player destroyed", zap.String("guild", guildID))
	return errs
}

// Shutdown destroys every player, a few guilds at a time.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	return util.Parallel(ctx, ids, shutdownWorkers, func(ctx context.Context, id string) error {
		return errors.Wrapf(m.Destroy(ctx, id), "guild %s", id)
	})
}

// Search resolves input through the cache. URLs are loaded as-is, text is
// searched on platform (the configured default when empty).
func (m *Manager) Search(ctx context.Context, input string, platform SearchPlatform, requester string) (SearchResult, error) {
	if platform == "" {
		platform = m.cfg.SearchPlatform
	}
	identifier := Identifier(input, platform)

	res, found, err := m.cache.GetOrFetch(ctx, identifier, m.load)
	if err != nil {
		return SearchResult{}, err
	}
	if !found {
		return SearchResult{}, errors.Wrapf(ErrNoResults, "%q", identifier)
	}

	out := SearchResult{LoadType: res.LoadType, Tracks: make([]Track, 0, len(res.Tracks))}
	if res.Playlist != nil {
		out.PlaylistName = res.Playlist.Name
	}
	for _, t := range res.Tracks {
		out.Tracks = append(out.Tracks, FromLavalink(t, requester))
	}
	return out, nil
}

func (m *Manager) load(ctx context.Context, identifier string) (*lavalink.LoadResult, bool, error) {
	res, err := m.backend.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, false, err
	}
	if res.LoadType == lavalink.LoadTypeError && res.Exception != nil {
		return nil, false, errors.Wrap(*res.Exception, "load failed")
	}
	return res, len(res.Tracks) > 0, nil
}

// OnVoiceStateUpdate forwards the bot's own voice session id. An empty
// channel means the bot left voice.
func (m *Manager) OnVoiceStateUpdate(ctx context.Context, guildID, channelID, sessionID string) {
	p, ok := m.Player(guildID)
	if !ok {
		return
	}
	if channelID == "" {
		p.updateVoice(func(v *voiceParts) { *v = voiceParts{} })
		return
	}
	state, ready := p.updateVoice(func(v *voiceParts) { v.sessionID = sessionID })
	if ready {
		m.sendVoice(ctx, p, state)
	}
}

// OnVoiceServerUpdate forwards the voice token and endpoint.
func (m *Manager) OnVoiceServerUpdate(ctx context.Context, guildID, token, endpoint string) {
	p, ok := m.Player(guildID)
	if !ok {
		return
	}
	state, ready := p.updateVoice(func(v *voiceParts) {
		v.token = token
		v.endpoint = endpoint
	})
	if ready {
		m.sendVoice(ctx, p, state)
	}
}

func (m *Manager) sendVoice(ctx context.Context, p *Player, state lavalink.VoiceState) {
	if err := m.backend.UpdatePlayer(ctx, p.GuildID(), lavalink.PlayerUpdate{Voice: &state}); err != nil {
		m.log.Error("forward voice state", zap.String("guild", p.GuildID()), zap.Error(err))
		return
	}
	m.log.Debug("voice state forwarded", zap.String("guild", p.GuildID()), zap.String("endpoint", state.Endpoint))
}

// HandleNodeEvent is the lavalink.Handler for every node.
func (m *Manager) HandleNodeEvent(ev lavalink.Event) {
	ctx := context.Background()

	switch e := ev.(type) {
	case lavalink.NodeConnectedEvent:
		m.emit(Event{Type: EventNodeConnected, NodeID: e.Node()})
	case lavalink.ReadyEvent:
		m.emit(Event{Type: EventNodeReady, NodeID: e.Node()})
	case lavalink.NodeClosedEvent:
		m.emit(Event{Type: EventNodeDisconnected, NodeID: e.Node(), Code: e.Code, Reason: e.Reason})
	case lavalink.NodeErrorEvent:
		m.emit(Event{Type: EventNodeError, NodeID: e.Node(), Err: e.Err})
	case lavalink.StatsEvent:
		m.log.Debug("node stats", zap.String("node", e.Node()), zap.Int("players", e.Players), zap.Int("playing", e.PlayingPlayers))
	case lavalink.PlayerUpdateEvent:
		if p, ok := m.Player(e.GuildID); ok {
			p.handlePlayerUpdate(e)
		}
	case lavalink.TrackStartEvent:
		if p, ok := m.Player(e.GuildID); ok {
			p.handleTrackStart(e)
		}
	case lavalink.TrackEndEvent:
		if p, ok := m.Player(e.GuildID); ok {
			p.handleTrackEnd(ctx, e)
		}
	case lavalink.TrackExceptionEvent:
		if p, ok := m.Player(e.GuildID); ok {
			p.handleTrackException(e)
		}
	case lavalink.TrackStuckEvent:
		if p, ok := m.Player(e.GuildID); ok {
			p.handleTrackStuck(ctx, e)
		}
	case lavalink.WebSocketClosedEvent:
		m.log.Warn("voice websocket closed", zap.String("guild", e.GuildID), zap.Int("code", e.Code), zap.String("reason", e.Reason), zap.Bool("by_remote", e.ByRemote))
	}
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.log.Warn("playback event dropped, channel full", zap.Stringer("type", ev.Type), zap.String("guild", ev.GuildID))
	}
}
