package discord

import (
	"github.com/bwmarrin/discordgo"
)

const voicePermissions = discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak

// stateVoice answers voice questions from the gateway state cache.
type stateVoice struct {
	state *discordgo.State
}

func (v stateVoice) UserVoiceChannel(guildID, userID string) (string, bool) {
	vs, err := v.state.VoiceState(guildID, userID)
	if err != nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

func (v stateVoice) CanJoin(channelID string) bool {
	if v.state.User == nil {
		return false
	}
	perms, err := v.state.UserChannelPermissions(v.state.User.ID, channelID)
	if err != nil {
		// unknown channel or member not cached yet; let the gateway decide
		return true
	}
	return perms&voicePermissions == voicePermissions
}

// voiceChange is how the bot's own voice state moved.
type voiceChange int

const (
	voiceUnchanged voiceChange = iota
	voiceJoined
	voiceKicked
	voiceMoved
)

// classifyVoiceChange compares the bot's previous and current channel.
func classifyVoiceChange(before, after string) voiceChange {
	switch {
	case before == "" && after != "":
		return voiceJoined
	case before != "" && after == "":
		return voiceKicked
	case before != "" && after != "" && before != after:
		return voiceMoved
	}
	return voiceUnchanged
}
