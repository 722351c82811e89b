package music

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/playback"
)

type PauseCommand struct{ base }

func (c *PauseCommand) Name() string        { return "pausar" }
func (c *PauseCommand) Description() string { return "Pausa la música actual." }

func (c *PauseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *PauseCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(ctx context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		const unavailable = "❌ No hay música o ya está pausada."

		p, ok := guildPlayer(slash.Services, e)
		if !ok {
			return command.RespondEphemeral(s, e, unavailable)
		}
		err := p.Pause(ctx)
		if errors.Is(err, playback.ErrNothingPlaying) || errors.Is(err, playback.ErrAlreadyPaused) {
			return command.RespondEphemeral(s, e, unavailable)
		}
		if err != nil {
			return err
		}
		return command.Respond(s, e, "⏸️ Música pausada.")
	})
}

type ResumeCommand struct{ base }

func (c *ResumeCommand) Name() string        { return "reanudar" }
func (c *ResumeCommand) Description() string { return "Reanuda la música pausada." }

func (c *ResumeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ResumeCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(ctx context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		const unavailable = "❌ No hay música o ya está sonando."

		p, ok := guildPlayer(slash.Services, e)
		if !ok {
			return command.RespondEphemeral(s, e, unavailable)
		}
		err := p.Resume(ctx)
		if errors.Is(err, playback.ErrNothingPlaying) || errors.Is(err, playback.ErrNotPaused) {
			return command.RespondEphemeral(s, e, unavailable)
		}
		if err != nil {
			return err
		}
		return command.Respond(s, e, "▶️ Música reanudada.")
	})
}
