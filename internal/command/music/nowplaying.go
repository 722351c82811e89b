package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
)

type NowPlayingCommand struct{ base }

func (c *NowPlayingCommand) Name() string        { return "ahora" }
func (c *NowPlayingCommand) Description() string { return "Muestra la canción que está sonando." }

func (c *NowPlayingCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *NowPlayingCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(_ context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		p, ok := guildPlayer(slash.Services, e)
		if !ok {
			return command.RespondEphemeral(s, e, "❌ No hay nada sonando.")
		}
		track, ok := p.Current()
		if !ok {
			return command.RespondEphemeral(s, e, "❌ No hay nada sonando.")
		}
		return command.RespondEmbed(s, e, CurrentEmbed(track))
	})
}
