package music

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/queueview"
)

const (
	queueEmpty    = "📜 La cola está vacía."
	queueNotOwner = "Solo la persona que ejecutó `/cola` puede usar estos botones."
)

// QueueCommand shows the upcoming tracks and pages through them with the
// queue:* buttons.
type QueueCommand struct{ base }

func (c *QueueCommand) Name() string        { return "cola" }
func (c *QueueCommand) Description() string { return "Muestra la lista de reproducción." }

func (c *QueueCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "pagina",
				Description: "Página de la cola",
				MinValue:    minValue(1),
			},
		},
	}
}

func (c *QueueCommand) pageSize(svc *command.Services) int {
	if svc.Config != nil && svc.Config.QueuePageSize > 0 {
		return svc.Config.QueuePageSize
	}
	return queueview.DefaultPageSize
}

func (c *QueueCommand) Run(ctx context.Context, data interface{}) error {
	return runSlash(ctx, data, func(_ context.Context, slash *command.SlashInteractionContext) error {
		s, e := slash.Session, slash.Event
		p, ok := guildPlayer(slash.Services, e)
		if !ok || p.QueueLen() == 0 {
			return command.RespondEphemeral(s, e, queueEmpty)
		}

		page := intOption(e, "pagina")
		if page == 0 {
			page = 1
		}
		owner := command.InteractionUser(e).ID
		embed, row := QueuePage(e.GuildID, owner, p.Tracks(), page, c.pageSize(slash.Services))
		return command.RespondEmbed(s, e, embed, row)
	})
}

func (c *QueueCommand) ComponentPrefixes() []string { return []string{queueview.Prefix} }

// Component re-renders the queue message for a navigation button. The page
// is recomputed from the live queue every time.
func (c *QueueCommand) Component(_ context.Context, cc *command.ComponentInteractionContext) error {
	s, e := cc.Session, cc.Event

	nav, err := queueview.ParseNavID(e.MessageComponentData().CustomID)
	if err != nil {
		return err
	}
	if !nav.AllowedFor(command.InteractionUser(e).ID) {
		return command.RespondEphemeral(s, e, queueNotOwner)
	}

	p, ok := cc.Music.Player(nav.GuildID)
	if !ok || p.QueueLen() == 0 {
		return command.UpdateMessageText(s, e, queueEmpty)
	}

	embed, row := QueuePage(nav.GuildID, nav.OwnerID, p.Tracks(), nav.Page, c.pageSize(cc.Services))
	return command.UpdateMessage(s, e, embed, row)
}
