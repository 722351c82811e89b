package music

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/playback"
)

type ShuffleCommand struct{ base }

func (c *ShuffleCommand) Name() string        { return "mezclar" }
func (c *ShuffleCommand) Description() string { return "Baraja aleatoriamente la cola." }

func (c *ShuffleCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ShuffleCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(_ context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		const notEnough = "No hay suficientes canciones."

		p, ok := guildPlayer(slash.Services, e)
		if !ok {
			return command.RespondEphemeral(s, e, notEnough)
		}
		err := p.Shuffle()
		if errors.Is(err, playback.ErrNotEnoughTracks) {
			return command.RespondEphemeral(s, e, notEnough)
		}
		if err != nil {
			return err
		}
		return command.Respond(s, e, "🔀 Cola mezclada.")
	})
}
