package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyVoiceChange(t *testing.T) {
	tests := []struct {
		name          string
		before, after string
		want          voiceChange
	}{
		{"join", "", "a", voiceJoined},
		{"kicked", "a", "", voiceKicked},
		{"moved", "a", "b", voiceMoved},
		{"same channel", "a", "a", voiceUnchanged},
		{"nowhere", "", "", voiceUnchanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyVoiceChange(tt.before, tt.after))
		})
	}
}
