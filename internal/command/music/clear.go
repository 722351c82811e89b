package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
)

type ClearCommand struct{ base }

func (c *ClearCommand) Name() string        { return "limpiar" }
func (c *ClearCommand) Description() string { return "Vacía la cola sin detener la canción actual." }

func (c *ClearCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ClearCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(_ context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		p, ok := guildPlayer(slash.Services, e)
		if !ok || p.Clear() == 0 {
			return command.RespondEphemeral(s, e, "❌ La cola ya está vacía.")
		}
		return command.Respond(s, e, "Cola limpia.")
	})
}
