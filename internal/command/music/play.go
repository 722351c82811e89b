package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/lavalink"
	"github.com/keshon/rockola/internal/playback"
)

type PlayCommand struct{ base }

func (c *PlayCommand) Name() string { return "reproducete" }
func (c *PlayCommand) Description() string {
	return "Reproduce una canción o playlist (YouTube o SoundCloud)."
}

func (c *PlayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "cancion",
				Description: "Nombre o URL de la canción.",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "fuente",
				Description: "Dónde buscar cuando no es una URL.",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "YouTube", Value: "youtube"},
					{Name: "SoundCloud", Value: "soundcloud"},
				},
			},
		},
	}
}

func (c *PlayCommand) Run(ctx context.Context, data interface{}) error {
	slash, err := slashContext(data)
	if err != nil {
		return err
	}
	s, e := slash.Session, slash.Event
	user := command.InteractionUser(e)

	voiceID, ok := slash.Voice.UserVoiceChannel(e.GuildID, user.ID)
	if !ok || voiceID == "" {
		return command.RespondEphemeral(s, e, "Debes estar en un canal de voz.")
	}
	if !slash.Voice.CanJoin(voiceID) {
		return command.RespondEphemeral(s, e, "Me faltan permisos de Conectar y Hablar.")
	}

	if err := command.RespondDeferred(s, e); err != nil {
		return errors.Wrap(err, "defer reply")
	}

	reply, err := c.enqueue(ctx, slash, voiceID, user.ID)
	if err != nil {
		slash.Log.Warn("reproducete failed", zap.String("guild", e.GuildID), zap.Error(err))
		reply = fmt.Sprintf("❌ Error: %v", errors.Cause(err))
	}
	return command.EditResponse(s, e, reply)
}

func (c *PlayCommand) enqueue(ctx context.Context, slash *command.SlashInteractionContext, voiceID, userID string) (string, error) {
	e := slash.Event
	query := stringOption(e, "cancion")
	platform := playback.ParsePlatform(stringOption(e, "fuente"), slash.Music.Config().SearchPlatform)

	// search before joining so a miss never leaves an idle player in voice
	res, err := slash.Music.Search(ctx, query, platform, userID)
	if errors.Is(err, playback.ErrNoResults) {
		return "No se encontró la canción o playlist.", nil
	}
	if err != nil {
		return "", err
	}

	p, created := slash.Music.CreatePlayer(playback.PlayerOptions{
		GuildID:        e.GuildID,
		VoiceChannelID: voiceID,
		TextChannelID:  e.ChannelID,
		SelfDeaf:       true,
	})
	if created {
		if err := p.Connect(); err != nil {
			_ = slash.Music.Destroy(ctx, e.GuildID)
			return "", err
		}
	}

	added := res.Tracks
	if res.LoadType != lavalink.LoadTypePlaylist && res.LoadType != lavalink.LoadTypeSearch {
		added = res.Tracks[:1]
	}
	p.Add(added...)

	if !p.Playing() && !p.Paused() {
		if err := p.Play(ctx); err != nil {
			return "", err
		}
	}

	if len(added) == 1 {
		return fmt.Sprintf("✅ **%s** añadida a la cola.", added[0].Title), nil
	}
	name := res.PlaylistName
	if name == "" {
		name = added[0].Title
	}
	return fmt.Sprintf("✅ Se añadieron **%d** pistas de **%s** a la cola.", len(added), name), nil
}
