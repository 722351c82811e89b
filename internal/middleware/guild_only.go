package middleware

import (
	"context"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/pkg/cmd"
)

const guildOnlyMessage = "Este comando solo funciona dentro de un servidor."

// WithGuildOnly rejects interactions that do not come from a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			s, e, _, ok := interaction(inv)
			if ok && e.GuildID == "" {
				return command.RespondEphemeral(s, e, guildOnlyMessage)
			}
			return c.Run(ctx, inv)
		})
	}
}
