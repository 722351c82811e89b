// Package commandtest provides a recording Discord session for command tests.
package commandtest

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Session records every response instead of calling Discord.
type Session struct {
	mu        sync.Mutex
	Responses []*discordgo.InteractionResponse
	Edits     []*discordgo.WebhookEdit
	Sent      map[string][]*discordgo.MessageSend
	Err       error
}

func NewSession() *Session {
	return &Session{Sent: make(map[string][]*discordgo.MessageSend)}
}

func (s *Session) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, resp)
	return s.Err
}

func (s *Session) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Edits = append(s.Edits, edit)
	return &discordgo.Message{}, s.Err
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent[channelID] = append(s.Sent[channelID], data)
	return &discordgo.Message{ChannelID: channelID}, s.Err
}

// Last returns the most recent interaction response, or nil.
func (s *Session) Last() *discordgo.InteractionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Responses) == 0 {
		return nil
	}
	return s.Responses[len(s.Responses)-1]
}

// LastContent is the text of the latest response or deferred edit.
func (s *Session) LastContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.Edits); n > 0 && s.Edits[n-1].Content != nil {
		return *s.Edits[n-1].Content
	}
	if n := len(s.Responses); n > 0 && s.Responses[n-1].Data != nil {
		return s.Responses[n-1].Data.Content
	}
	return ""
}

// Ephemeral reports whether the latest response was only visible to the caller.
func (s *Session) Ephemeral() bool {
	last := s.Last()
	return last != nil && last.Data != nil && last.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}

// Messages returns what was sent to channelID.
func (s *Session) Messages(channelID string) []*discordgo.MessageSend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*discordgo.MessageSend(nil), s.Sent[channelID]...)
}

// Voice is a VoiceLocator backed by a map of "guild/user" to channel.
// Channels listed in Denied cannot be joined.
type Voice struct {
	Members map[string]string
	Denied  map[string]bool
}

func NewVoice() *Voice {
	return &Voice{Members: make(map[string]string), Denied: make(map[string]bool)}
}

// Join records that userID sits in channelID.
func (v *Voice) Join(guildID, userID, channelID string) {
	v.Members[guildID+"/"+userID] = channelID
}

func (v *Voice) UserVoiceChannel(guildID, userID string) (string, bool) {
	ch, ok := v.Members[guildID+"/"+userID]
	return ch, ok
}

func (v *Voice) CanJoin(channelID string) bool {
	return !v.Denied[channelID]
}

// SlashEvent builds a slash command interaction.
func SlashEvent(guildID, channelID, userID, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: channelID,
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user-" + userID}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        name,
			CommandType: discordgo.ChatApplicationCommand,
			Options:     opts,
		},
	}}
}

// ComponentEvent builds a button interaction.
func ComponentEvent(guildID, channelID, userID, customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction",
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   guildID,
		ChannelID: channelID,
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user-" + userID}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.ButtonComponent,
		},
	}}
}

// StringOpt builds a string option.
func StringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

// IntOpt builds an integer option. Discord sends numbers as float64.
func IntOpt(name string, value int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}
