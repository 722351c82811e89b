package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
)

type SkipCommand struct{ base }

func (c *SkipCommand) Name() string { return "saltar" }
func (c *SkipCommand) Description() string {
	return "Salta la canción actual o a una posición específica."
}

func (c *SkipCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "posicion",
				Description: "Número de la canción en la cola",
				MinValue:    minValue(1),
			},
		},
	}
}

func (c *SkipCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(ctx context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		p, ok := guildPlayer(slash.Services, e)
		if !ok {
			return command.RespondEphemeral(s, e, "No hay nada sonando.")
		}
		if _, playing := p.Current(); !playing {
			return command.RespondEphemeral(s, e, "No hay nada sonando.")
		}

		var err error
		if pos := intOption(e, "posicion"); pos != 0 {
			if n := p.QueueLen(); pos < 1 || pos > n {
				return command.RespondEphemeral(s, e, fmt.Sprintf("La cola solo tiene %d canciones.", n))
			}
			err = p.SkipTo(ctx, pos)
		} else {
			err = p.Skip(ctx)
		}
		if err != nil {
			return err
		}
		return command.Respond(s, e, "⏭️ Canción saltada.")
	})
}
