package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/command/music"
	"github.com/keshon/rockola/internal/lavalink"
	"github.com/keshon/rockola/internal/playback"
)

const (
	nodeConnectTimeout = 15 * time.Second
	syncTimeout        = time.Minute
	voiceEventTimeout  = 10 * time.Second
)

// onReady connects the Lavalink node and syncs slash commands. Discord sends
// READY again after a resume, so both only happen once.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("discord session ready",
		zap.String("user", r.User.Username),
		zap.String("user_id", r.User.ID),
		zap.Int("guilds", len(r.Guilds)),
	)

	b.readyOnce.Do(func() {
		go b.connectNode(r.User.ID)
		if b.cfg.RegisterCommands {
			go b.syncCommands(r.User.ID)
		}
	})
}

func (b *Bot) connectNode(userID string) {
	lc := b.cfg.Lavalink
	node := lavalink.NewNode(lavalink.NodeConfig{
		ID:       lc.NodeID,
		Host:     lc.Host,
		Port:     lc.Port,
		Password: lc.Password,
		Secure:   lc.Secure,
		UserID:   userID,
		RPS:      lc.RPS,
	}, b.music.HandleNodeEvent, b.log.Named("lavalink"))
	b.nodes.Add(node)

	ctx, cancel := context.WithTimeout(context.Background(), nodeConnectTimeout)
	defer cancel()
	if err := b.nodes.ConnectAll(ctx); err != nil {
		b.log.Warn("lavalink node unreachable, scheduling reconnect", zap.String("node", lc.NodeID), zap.Error(err))
		b.super.NodeUnavailable(lc.NodeID)
	}
}

func (b *Bot) syncCommands(userID string) {
	appID := b.cfg.ClientID
	if appID == "" {
		appID = userID
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	res, err := b.syncer.Sync(ctx, appID, b.cfg.GuildID, b.Definitions())
	if err != nil {
		b.log.Error("slash command sync finished with errors", zap.Error(err))
	}
	b.log.Info("slash commands synced",
		zap.String("scope", scopeName(b.cfg.GuildID)),
		zap.Strings("created", res.Created),
		zap.Strings("deleted", res.Deleted),
	)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// middleware already answered the user; this is only for the log
	if err := b.router.dispatch(context.Background(), s, i); err != nil {
		b.log.Debug("interaction returned error", zap.String("interaction", i.ID), zap.Error(err))
	}
}

// onVoiceStateUpdate only cares about the bot itself.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || v.UserID != s.State.User.ID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), voiceEventTimeout)
	defer cancel()

	b.music.OnVoiceStateUpdate(ctx, v.GuildID, v.ChannelID, v.SessionID)

	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	p, ok := b.music.Player(v.GuildID)
	if !ok {
		return
	}
	if before == "" {
		// state cache may be cold; fall back to where the player thinks it is
		before = p.VoiceChannelID()
	}
	b.handleVoiceChange(ctx, s, p, classifyVoiceChange(before, v.ChannelID), v.ChannelID)
}

func (b *Bot) handleVoiceChange(ctx context.Context, s command.Session, p *playback.Player, change voiceChange, channelID string) {
	log := b.log.With(zap.String("guild", p.GuildID()))

	switch change {
	case voiceKicked:
		log.Info("bot was disconnected from voice, destroying player")
		b.notify(s, p.TextChannelID(), music.KickedMessage)
		if err := b.music.Destroy(ctx, p.GuildID()); err != nil {
			log.Warn("destroy after disconnect", zap.Error(err))
		}

	case voiceMoved:
		log.Info("bot was moved to another voice channel", zap.String("channel", channelID))
		p.SetVoiceChannel(channelID)
		b.notify(s, p.TextChannelID(), music.MovedMessage)
	}
}

func (b *Bot) notify(s command.Session, channelID, content string) {
	if channelID == "" {
		return
	}
	if err := command.Message(s, channelID, content); err != nil {
		b.log.Warn("failed to notify text channel", zap.String("channel", channelID), zap.Error(err))
	}
}

func (b *Bot) onVoiceServerUpdate(_ *discordgo.Session, v *discordgo.VoiceServerUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), voiceEventTimeout)
	defer cancel()
	b.music.OnVoiceServerUpdate(ctx, v.GuildID, v.Token, v.Endpoint)
}
