package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func playDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "reproducete",
		Description: "Reproduce una canción",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "cancion", Description: "Nombre o URL", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "fuente", Description: "Plataforma", Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "YouTube", Value: "youtube"},
				{Name: "SoundCloud", Value: "soundcloud"},
			}},
		},
	}
}

func TestHashCommandIgnoresDiscordAssignedFields(t *testing.T) {
	a := playDefinition()
	b := playDefinition()
	b.ID = "123"
	b.ApplicationID = "456"
	b.Version = "789"

	assert.Equal(t, hashCommand(a), hashCommand(b))
}

func TestHashCommandIgnoresOptionOrder(t *testing.T) {
	a := playDefinition()
	b := playDefinition()
	b.Options[0], b.Options[1] = b.Options[1], b.Options[0]

	assert.Equal(t, hashCommand(a), hashCommand(b))
}

func TestHashCommandTracksMeaningfulChanges(t *testing.T) {
	base := hashCommand(playDefinition())

	desc := playDefinition()
	desc.Description = "otra"
	assert.NotEqual(t, base, hashCommand(desc))

	req := playDefinition()
	req.Options[1].Required = true
	assert.NotEqual(t, base, hashCommand(req))

	choice := playDefinition()
	choice.Options[1].Choices = choice.Options[1].Choices[:1]
	assert.NotEqual(t, base, hashCommand(choice))

	one := 1.0
	minV := playDefinition()
	minV.Options[0].MinValue = &one
	assert.NotEqual(t, base, hashCommand(minV))
}
