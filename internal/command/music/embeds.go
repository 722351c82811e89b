package music

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/playback"
	"github.com/keshon/rockola/internal/queueview"
	"github.com/keshon/rockola/internal/stats"
)

const (
	colorBlue  = 0x3498db
	colorGreen = 0x57f287
	colorGold  = 0xf1c40f
)

// Channel notices sent outside of an interaction.
const (
	QueueEndedMessage    = "Cola finalizada. Usa `/reproducete` para más música."
	PlaybackErrorMessage = "⚠️ No se pudo reproducir el audio: %s. Saltando a la siguiente pista…"
	KickedMessage        = "Me sacaron del canal de voz, así que la buena, nos pillamos luego. 👋"
	MovedMessage         = "Me movieron de canal de voz, así que paré la música por si acaso aguevao. 🤨"
)

// FormatDuration renders m:ss, minutes unbounded.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// NowPlayingEmbed is posted to the text channel when a track starts.
func NowPlayingEmbed(t playback.Track) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎶 Reproduciendo ahora",
		Description: fmt.Sprintf("**%s**\n👤 Por: %s\n⏱️ Duración: %s",
			t.Title, t.Author, FormatDuration(t.Duration)),
		Color: command.EmbedColor,
	}
	if t.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.ArtworkURL}
	}
	return embed
}

// ControlRow holds the player:* buttons shown under the now playing embed.
func ControlRow() discordgo.ActionsRow {
	button := func(action, label string, style discordgo.ButtonStyle) discordgo.Button {
		return discordgo.Button{CustomID: controlsPrefix + ":" + action, Label: label, Style: style}
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		button(actionPause, "⏸️", discordgo.SecondaryButton),
		button(actionResume, "▶️", discordgo.SecondaryButton),
		button(actionSkip, "⏭️", discordgo.PrimaryButton),
		button(actionShuffle, "🔀", discordgo.SecondaryButton),
		button(actionStop, "🛑", discordgo.DangerButton),
	}}
}

// CurrentEmbed answers /ahora.
func CurrentEmbed(t playback.Track) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Reproduciendo Ahora",
		Description: fmt.Sprintf("**%s**\n👤 Por: %s", t.Title, t.Author),
		Color:       colorBlue,
	}
	if t.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.ArtworkURL}
	}
	return embed
}

// QueuePage builds the /cola embed for the requested page together with the
// navigation row owned by ownerID.
func QueuePage(guildID, ownerID string, tracks []playback.Track, page, pageSize int) (*discordgo.MessageEmbed, discordgo.ActionsRow) {
	view := queueview.Render(tracks, page, pageSize)

	lines := make([]string, 0, len(view.Entries))
	for _, e := range view.Entries {
		author := e.Item.Author
		if author == "" {
			author = "Desconocido"
		}
		lines = append(lines, fmt.Sprintf("%d. **%s** — %s", e.Position, e.Item.Title, author))
	}
	description := strings.Join(lines, "\n")
	if description == "" {
		description = "La cola está vacía."
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📜 Cola de reproducción",
		Description: description,
		Color:       colorGreen,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Página %d/%d • Total: %d canciones", view.CurrentPage, view.TotalPages, view.Total),
		},
	}

	prev, next := queueview.Buttons(guildID, ownerID, view.CurrentPage)
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{CustomID: prev.String(), Label: "⬅️Anterior", Style: discordgo.SecondaryButton, Disabled: !view.HasPrev},
		discordgo.Button{CustomID: next.String(), Label: "Siguiente➡️", Style: discordgo.SecondaryButton, Disabled: !view.HasNext},
	}}
	return embed, row
}

// TopEmbed lists the most played titles of a guild.
func TopEmbed(entries []stats.Entry) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. **%s** — %d reproducciones", i+1, e.Title, e.Count))
	}
	return &discordgo.MessageEmbed{
		Title:       "🏆 Top canciones",
		Description: strings.Join(lines, "\n"),
		Color:       colorGold,
	}
}
