package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/stats"
)

type TopCommand struct{ base }

func (c *TopCommand) Name() string { return "top" }
func (c *TopCommand) Description() string {
	return "Muestra las canciones más reproducidas del servidor."
}

func (c *TopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *TopCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(ctx context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		top, err := slash.Stats.Top(ctx, e.GuildID, stats.DefaultTopN)
		if err != nil {
			return err
		}
		if len(top) == 0 {
			return command.RespondEphemeral(s, e, "Aún no hay estadísticas.")
		}
		return command.RespondEmbed(s, e, TopEmbed(top))
	})
}
