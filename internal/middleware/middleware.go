// Package middleware holds the cmd.Middleware used around every Discord
// command.
package middleware

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/pkg/cmd"
)

// interaction pulls the session and event out of any interaction context.
func interaction(inv *cmd.Invocation) (command.Session, *discordgo.InteractionCreate, *command.Services, bool) {
	switch v := inv.Data.(type) {
	case *command.SlashInteractionContext:
		return v.Session, v.Event, v.Services, true
	case *command.ComponentInteractionContext:
		return v.Session, v.Event, v.Services, true
	}
	return nil, nil, nil, false
}
