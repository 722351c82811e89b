// Package discord runs the gateway session: it routes interactions to
// commands, forwards voice updates to playback and keeps the Lavalink node
// supervised.
package discord

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/command/music"
	"github.com/keshon/rockola/internal/config"
	"github.com/keshon/rockola/internal/lavalink"
	"github.com/keshon/rockola/internal/middleware"
	"github.com/keshon/rockola/internal/playback"
	"github.com/keshon/rockola/internal/searchcache"
	"github.com/keshon/rockola/internal/stats"
	"github.com/keshon/rockola/internal/storage"
	"github.com/keshon/rockola/internal/supervisor"
	"github.com/keshon/rockola/pkg/backoff"
	"github.com/keshon/rockola/pkg/cmd"
	"github.com/keshon/rockola/pkg/jobmgr"
)

const (
	intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates | discordgo.IntentsGuildMessages

	shutdownTimeout = 10 * time.Second

	jobSearchCachePrune = "search-cache-prune"
	jobPlaybackEvents   = "playback-events"
)

// Bot is the running Discord side of the music bot.
type Bot struct {
	cfg     *config.Config
	log     *zap.Logger
	clock   clock.Clock
	dg      *discordgo.Session
	storage *storage.Storage
	stats   stats.Store

	nodes    *lavalink.Registry
	cache    *searchcache.Cache[*lavalink.LoadResult]
	music    *playback.Manager
	super    *supervisor.Supervisor
	commands *cmd.Registry
	router   *router
	syncer   *CommandSyncer

	readyOnce sync.Once
	jobs      *jobmgr.Manager
}

// New builds the bot without touching the network.
func New(cfg *config.Config, store *storage.Storage, tally stats.Store, log *zap.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, errors.Wrap(err, "create discord session")
	}
	dg.Identify.Intents = intents

	b := &Bot{
		cfg:      cfg,
		log:      log,
		clock:    clock.New(),
		dg:       dg,
		storage:  store,
		stats:    tally,
		nodes:    lavalink.NewRegistry(),
		commands: cmd.NewRegistry(),
	}

	b.cache = searchcache.New[*lavalink.LoadResult](cfg.SearchCacheTTL,
		searchcache.WithClock(b.clock),
		searchcache.WithLogger(log.Named("searchcache")),
	)
	b.music = playback.NewManager(b.nodes, dg, b.cache, playback.Config{
		DefaultVolume:     cfg.DefaultVolume,
		SearchPlatform:    playback.ParsePlatform(cfg.DefaultSearchPlatform, playback.PlatformYouTube),
		EmptyQueueTimeout: cfg.EmptyQueueTimeout,
		MaxPreviousTracks: cfg.MaxPreviousTracks,
	}, playback.WithClock(b.clock), playback.WithLogger(log.Named("playback")))

	b.super = supervisor.New(b.lookupNode, supervisor.Options{
		MaxAttempts: cfg.Reconnect.MaxAttempts,
		Strategy:    backoff.NewLinear(cfg.Reconnect.BaseDelay, 0),
		Clock:       b.clock,
		Logger:      log.Named("supervisor"),
		OnAbandoned: func(nodeID string, attempts int) {
			log.Error("lavalink node abandoned, restart the bot once the node is back",
				zap.String("node", nodeID), zap.Int("attempts", attempts))
		},
	})

	if err := music.Register(b.commands,
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(b.clock),
		middleware.WithRecover(),
	); err != nil {
		return nil, errors.Wrap(err, "register commands")
	}

	services := &command.Services{
		Music:   b.music,
		Stats:   tally,
		Storage: store,
		Voice:   stateVoice{state: dg.State},
		Config:  cfg,
		Log:     log.Named("command"),
	}
	b.router = &router{commands: b.commands, services: services, log: log.Named("router")}
	b.syncer = NewCommandSyncer(dg, store, log)
	return b, nil
}

// lookupNode adapts the registry to the supervisor. A missing node must come
// back as a nil interface, not a typed nil.
func (b *Bot) lookupNode(id string) (supervisor.Connector, bool) {
	n, ok := b.nodes.Get(id)
	if !ok {
		return nil, false
	}
	return n, true
}

// Definitions returns the slash command definitions of every music command.
func (b *Bot) Definitions() []*discordgo.ApplicationCommand {
	return command.Definitions(b.commands)
}

// Run opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.jobs = jobmgr.New(ctx, b.log.Named("jobs"))

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onInteractionCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)
	b.dg.AddHandler(b.onVoiceServerUpdate)

	if err := b.dg.Open(); err != nil {
		return errors.Wrap(err, "open discord session")
	}

	pump := &eventPump{session: b.dg, stats: b.stats, super: b.super, log: b.log.Named("events")}
	if err := multierr.Combine(
		b.jobs.Start(jobSearchCachePrune, b.cache.Run),
		b.jobs.Start(jobPlaybackEvents, func(ctx context.Context) error {
			return pump.run(ctx, b.music.Events())
		}),
	); err != nil {
		_ = b.dg.Close()
		return err
	}

	<-ctx.Done()
	b.log.Info("shutdown signal received, cleaning up", zap.String("jobs", b.jobs.Status()))
	return b.shutdown()
}

func (b *Bot) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	b.super.Stop()
	playersErr := b.music.Shutdown(ctx)
	b.jobs.StopAll()
	return multierr.Combine(
		errors.Wrap(playersErr, "destroy players"),
		errors.Wrap(b.nodes.Close(), "close lavalink nodes"),
		errors.Wrap(b.dg.Close(), "close discord session"),
	)
}

// Register bulk-overwrites the slash commands, globally or for one guild.
// It only needs REST access, not the gateway.
func (b *Bot) Register(ctx context.Context, guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}
	return b.syncer.Overwrite(ctx, appID, guildID, b.Definitions())
}

// appID returns the application id, from config or from Discord.
func (b *Bot) appID() (string, error) {
	if b.cfg.ClientID != "" {
		return b.cfg.ClientID, nil
	}
	if b.dg.State != nil && b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", errors.Wrap(err, "fetch bot user")
	}
	return u.ID, nil
}
