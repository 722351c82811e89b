// Package command adapts Discord interactions to the transport-neutral
// commands in pkg/cmd.
package command

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/config"
	"github.com/keshon/rockola/internal/playback"
	"github.com/keshon/rockola/internal/stats"
	"github.com/keshon/rockola/internal/storage"
	"github.com/keshon/rockola/pkg/cmd"
)

// ErrWrongContext is returned when a command receives a context it cannot serve.
var ErrWrongContext = errors.New("wrong context type")

// Session is the part of *discordgo.Session commands talk to.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// VoiceLocator answers voice questions from the gateway state cache.
type VoiceLocator interface {
	// UserVoiceChannel is the voice channel the member is connected to.
	UserVoiceChannel(guildID, userID string) (string, bool)
	// CanJoin reports whether the bot may connect and speak in channelID.
	CanJoin(channelID string) bool
}

// Services are the long-lived dependencies every command may use.
type Services struct {
	Music   *playback.Manager
	Stats   stats.Store
	Storage *storage.Storage
	Voice   VoiceLocator
	Config  *config.Config
	Log     *zap.Logger
}

type SlashInteractionContext struct {
	Session Session
	Event   *discordgo.InteractionCreate
	*Services
}

type ComponentInteractionContext struct {
	Session Session
	Event   *discordgo.InteractionCreate
	*Services
}

// SlashProvider is implemented by commands that register a slash command.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// ComponentInteractionHandler handles button clicks whose custom id starts
// with one of ComponentPrefixes followed by ':'.
type ComponentInteractionHandler interface {
	ComponentPrefixes() []string
	Component(ctx context.Context, c *ComponentInteractionContext) error
}

// DiscordMeta lets middleware read a command's category without knowing its type.
type DiscordMeta interface {
	Category() string
}

// DiscordCommand is what individual Discord commands implement.
type DiscordCommand interface {
	Name() string
	Description() string
	Category() string
	Run(ctx context.Context, data interface{}) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command and exposes the
// provider interfaces of the inner command.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string        { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string { return a.Cmd.Description() }
func (a *DiscordAdapter) Category() string    { return a.Cmd.Category() }

// Run sends component contexts to the component handler so middleware sees
// button clicks the same way it sees slash commands.
func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	if cc, ok := inv.Data.(*ComponentInteractionContext); ok {
		ch, ok := a.Cmd.(ComponentInteractionHandler)
		if !ok {
			return errors.Wrapf(ErrWrongContext, "%s has no component handler", a.Cmd.Name())
		}
		return ch.Component(ctx, cc)
	}
	return a.Cmd.Run(ctx, inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func (a *DiscordAdapter) ComponentPrefixes() []string {
	if ch, ok := a.Cmd.(ComponentInteractionHandler); ok {
		return ch.ComponentPrefixes()
	}
	return nil
}

func (a *DiscordAdapter) Component(ctx context.Context, c *ComponentInteractionContext) error {
	if ch, ok := a.Cmd.(ComponentInteractionHandler); ok {
		return ch.Component(ctx, c)
	}
	return nil
}

// RegisterCommand adds a Discord command to reg behind mws.
func RegisterCommand(reg *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) error {
	return reg.Register(cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...))
}

// Definition returns the slash definition of a registered command, walking
// through middleware.
func Definition(c cmd.Command) *discordgo.ApplicationCommand {
	sp, ok := cmd.Root(c).(SlashProvider)
	if !ok {
		return nil
	}
	def := sp.SlashDefinition()
	if def != nil && def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// Definitions collects the slash definitions of every command in reg.
func Definitions(reg *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range reg.GetAll() {
		if def := Definition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}
