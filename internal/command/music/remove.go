package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
)

type RemoveCommand struct{ base }

func (c *RemoveCommand) Name() string        { return "eliminar" }
func (c *RemoveCommand) Description() string { return "Elimina una canción específica de la cola." }

func (c *RemoveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "posicion",
				Description: "Número mostrado en /cola",
				Required:    true,
				MinValue:    minValue(1),
			},
		},
	}
}

func (c *RemoveCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(_ context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		p, ok := guildPlayer(slash.Services, e)
		if !ok || p.QueueLen() == 0 {
			return command.RespondEphemeral(s, e, "No hay canciones en la cola.")
		}

		n := p.QueueLen()
		pos := intOption(e, "posicion")
		if pos < 1 || pos > n {
			return command.RespondEphemeral(s, e, fmt.Sprintf("Ingresa un número entre 1 y %d.", n))
		}
		removed, err := p.Remove(pos)
		if err != nil {
			// the queue shrank between the check and the removal
			return command.RespondEphemeral(s, e, fmt.Sprintf("Ingresa un número entre 1 y %d.", p.QueueLen()))
		}
		return command.Respond(s, e, fmt.Sprintf("🗑️ **%s** fue eliminada de la cola.", removed.Title))
	})
}
