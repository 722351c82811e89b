package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/pkg/cmd"
)

// ErrUnknownInteraction is returned when no command matches an interaction.
var ErrUnknownInteraction = errors.New("no command for interaction")

// router finds the command for an interaction and runs it with the right
// context.
type router struct {
	commands *cmd.Registry
	services *command.Services
	log      *zap.Logger
}

func (r *router) dispatch(ctx context.Context, s command.Session, i *discordgo.InteractionCreate) error {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		c := r.commands.Get(name)
		if c == nil {
			return errors.Wrapf(ErrUnknownInteraction, "command %q", name)
		}
		return c.Run(ctx, &cmd.Invocation{Data: &command.SlashInteractionContext{
			Session:  s,
			Event:    i,
			Services: r.services,
		}})

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		c := r.componentOwner(customID)
		if c == nil {
			return errors.Wrapf(ErrUnknownInteraction, "component %q", customID)
		}
		return c.Run(ctx, &cmd.Invocation{Data: &command.ComponentInteractionContext{
			Session:  s,
			Event:    i,
			Services: r.services,
		}})
	}

	r.log.Debug("ignoring interaction", zap.Int("type", int(i.Type)))
	return nil
}

// componentOwner returns the command whose prefix matches the part of
// customID before the first ':'.
func (r *router) componentOwner(customID string) cmd.Command {
	prefix, _, _ := strings.Cut(customID, ":")
	for _, c := range r.commands.GetAll() {
		h, ok := cmd.Root(c).(command.ComponentInteractionHandler)
		if !ok {
			continue
		}
		for _, p := range h.ComponentPrefixes() {
			if p == prefix {
				return c
			}
		}
	}
	return nil
}
