package music

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/playback"
)

const (
	controlsPrefix = "player"

	actionPause   = "pause"
	actionResume  = "resume"
	actionSkip    = "skip"
	actionShuffle = "shuffle"
	actionStop    = "stop"
)

// ControlsCommand handles the player:* buttons under the now playing embed.
// Every reply is ephemeral.
type ControlsCommand struct{ base }

func (c *ControlsCommand) Name() string        { return controlsPrefix }
func (c *ControlsCommand) Description() string { return "Botones del reproductor." }

func (c *ControlsCommand) Run(context.Context, interface{}) error {
	return errors.Wrap(command.ErrWrongContext, "player controls only handle buttons")
}

func (c *ControlsCommand) ComponentPrefixes() []string { return []string{controlsPrefix} }

func (c *ControlsCommand) Component(ctx context.Context, cc *command.ComponentInteractionContext) error {
	s, e := cc.Session, cc.Event
	action := strings.TrimPrefix(e.MessageComponentData().CustomID, controlsPrefix+":")

	p, ok := cc.Music.Player(e.GuildID)
	if !ok {
		return command.RespondEphemeral(s, e, "No hay música reproduciéndose.")
	}

	var (
		reply string
		err   error
	)
	switch action {
	case actionPause:
		reply, err = "⏸️ Música pausada.", p.Pause(ctx)
		if errors.Is(err, playback.ErrAlreadyPaused) {
			err = nil
		}
	case actionResume:
		reply, err = "▶️ Música reanudada.", p.Resume(ctx)
		if errors.Is(err, playback.ErrNotPaused) {
			err = nil
		}
	case actionSkip:
		reply, err = "⏭️ Canción saltada.", p.Skip(ctx)
	case actionShuffle:
		if err = p.Shuffle(); errors.Is(err, playback.ErrNotEnoughTracks) {
			return command.RespondEphemeral(s, e, "No hay suficientes canciones para mezclar.")
		}
		reply = "Cola mezclada."
	case actionStop:
		reply = "Música detenida."
		if derr := cc.Music.Destroy(ctx, e.GuildID); derr != nil {
			cc.Log.Warn("destroy player", zap.String("guild", e.GuildID), zap.Error(derr))
		}
	default:
		return errors.Errorf("unknown player action %q", action)
	}

	if errors.Is(err, playback.ErrNothingPlaying) {
		return command.RespondEphemeral(s, e, "No hay música reproduciéndose.")
	}
	if err != nil {
		return err
	}
	return command.RespondEphemeral(s, e, reply)
}
