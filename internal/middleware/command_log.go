package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/storage"
	"github.com/keshon/rockola/pkg/cmd"
)

// WithCommandLogger logs every run with a correlation id and appends it to
// the guild's command history.
func WithCommandLogger(clk clock.Clock) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			_, e, svc, ok := interaction(inv)
			if !ok || svc == nil || svc.Log == nil {
				return c.Run(ctx, inv)
			}

			user := command.InteractionUser(e)
			param := invocationParam(e)
			log := svc.Log.With(
				zap.String("request_id", uuid.NewString()),
				zap.String("command", c.Name()),
				zap.String("guild", e.GuildID),
				zap.String("user", user.ID),
			)

			start := clk.Now()
			err := c.Run(ctx, inv)
			fields := []zap.Field{zap.Duration("took", clk.Since(start))}
			if param != "" {
				fields = append(fields, zap.String("param", param))
			}
			if err != nil {
				log.Error("command failed", append(fields, zap.Error(err))...)
			} else {
				log.Info("command handled", fields...)
			}

			if svc.Storage != nil && e.GuildID != "" {
				rec := storage.CommandHistoryRecord{
					ChannelID: e.ChannelID,
					UserID:    user.ID,
					Username:  user.Username,
					Command:   c.Name(),
					Param:     param,
					Datetime:  start.UTC().Truncate(time.Second),
				}
				if herr := svc.Storage.AppendCommandToHistory(e.GuildID, rec); herr != nil {
					log.Warn("failed to store command history", zap.Error(herr))
				}
			}
			return err
		})
	}
}

// invocationParam is the custom id of a button or the first option of a
// slash command.
func invocationParam(e *discordgo.InteractionCreate) string {
	switch e.Type {
	case discordgo.InteractionMessageComponent:
		return e.MessageComponentData().CustomID
	case discordgo.InteractionApplicationCommand:
		opts := e.ApplicationCommandData().Options
		if len(opts) > 0 && opts[0].Value != nil {
			return opts[0].Name + "=" + toString(opts[0].Value)
		}
	}
	return ""
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}
