// Package music holds the Spanish slash commands and buttons that drive
// playback.
package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/playback"
	"github.com/keshon/rockola/pkg/cmd"
)

const category = "🎵 Música"

// Commands returns every music command in registration order.
func Commands() []command.DiscordCommand {
	return []command.DiscordCommand{
		&PlayCommand{},
		&SkipCommand{},
		&StopCommand{},
		&QueueCommand{},
		&RemoveCommand{},
		&PauseCommand{},
		&ResumeCommand{},
		&NowPlayingCommand{},
		&ClearCommand{},
		&ShuffleCommand{},
		&LoopCommand{},
		&TopCommand{},
		&ControlsCommand{},
	}
}

// Register adds the music commands to reg, each behind mws.
func Register(reg *cmd.Registry, mws ...cmd.Middleware) error {
	for _, c := range Commands() {
		if err := command.RegisterCommand(reg, c, mws...); err != nil {
			return err
		}
	}
	return nil
}

// base carries the boilerplate shared by every slash command.
type base struct{}

func (base) Category() string { return category }

func slashContext(data interface{}) (*command.SlashInteractionContext, error) {
	slash, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil, command.ErrWrongContext
	}
	return slash, nil
}

func option(e *discordgo.InteractionCreate, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range e.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func stringOption(e *discordgo.InteractionCreate, name string) string {
	if opt := option(e, name); opt != nil {
		return opt.StringValue()
	}
	return ""
}

// intOption returns 0 when the option was not given.
func intOption(e *discordgo.InteractionCreate, name string) int {
	if opt := option(e, name); opt != nil {
		return int(opt.IntValue())
	}
	return 0
}

// guildPlayer is a shortcut for the player of the interaction's guild.
func guildPlayer(svc *command.Services, e *discordgo.InteractionCreate) (*playback.Player, bool) {
	return svc.Music.Player(e.GuildID)
}

// simple is the shape of most commands: look at the player, reply.
type simple func(ctx context.Context, slash *command.SlashInteractionContext) error

func runSlash(ctx context.Context, data interface{}, fn simple) error {
	slash, err := slashContext(data)
	if err != nil {
		return err
	}
	return fn(ctx, slash)
}

func minValue(v float64) *float64 { return &v }
