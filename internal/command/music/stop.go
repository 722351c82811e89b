package music

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
)

type StopCommand struct{ base }

func (c *StopCommand) Name() string        { return "detener" }
func (c *StopCommand) Description() string { return "Detiene la música y borra la cola." }

func (c *StopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StopCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(ctx context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		if _, ok := guildPlayer(slash.Services, e); !ok {
			return command.RespondEphemeral(s, e, "No estoy conectado.")
		}
		// the player is gone even when Lavalink or the gateway complained
		if err := slash.Music.Destroy(ctx, e.GuildID); err != nil {
			slash.Log.Warn("destroy player", zap.String("guild", e.GuildID), zap.Error(err))
		}
		return command.Respond(s, e, "🛑 Música detenida.")
	})
}
