package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/playback"
)

type LoopCommand struct{ base }

func (c *LoopCommand) Name() string        { return "loop" }
func (c *LoopCommand) Description() string { return "Configura el modo de repetición." }

func (c *LoopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "modo",
				Description: "Modo de repetición",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Canción actual", Value: string(playback.RepeatTrack)},
					{Name: "Toda la cola", Value: string(playback.RepeatQueue)},
					{Name: "Desactivar", Value: string(playback.RepeatOff)},
				},
			},
		},
	}
}

var loopReplies = map[playback.RepeatMode]string{
	playback.RepeatTrack: "🔂 Repitiendo canción.",
	playback.RepeatQueue: "🔁 Repitiendo cola.",
	playback.RepeatOff:   "➡️ Repetición desactivada.",
}

func (c *LoopCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(_ context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		p, ok := guildPlayer(slash.Services, e)
		if !ok {
			return command.RespondEphemeral(s, e, "No hay música.")
		}

		// anything that is not track or queue turns repetition off
		mode, err := playback.ParseRepeatMode(stringOption(e, "modo"))
		if err != nil {
			mode = playback.RepeatOff
		}
		p.SetRepeat(mode)
		return command.Respond(s, e, loopReplies[mode])
	})
}
