package middleware

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/internal/command/commandtest"
	"github.com/keshon/rockola/internal/storage"
	"github.com/keshon/rockola/pkg/cmd"
)

type fakeCommand struct {
	runs int
	err  error
	pan  interface{}
}

func (f *fakeCommand) Name() string        { return "cola" }
func (f *fakeCommand) Description() string { return "fake" }
func (f *fakeCommand) Run(context.Context, *cmd.Invocation) error {
	f.runs++
	if f.pan != nil {
		panic(f.pan)
	}
	return f.err
}

func slashInvocation(guildID string, sess *commandtest.Session, svc *command.Services) *cmd.Invocation {
	return &cmd.Invocation{Data: &command.SlashInteractionContext{
		Session:  sess,
		Event:    commandtest.SlashEvent(guildID, "text-1", "user-1", "cola", commandtest.IntOpt("pagina", 2)),
		Services: svc,
	}}
}

func TestGuildOnlyRejectsDirectMessages(t *testing.T) {
	inner := &fakeCommand{}
	c := WithGuildOnly()(inner)
	sess := commandtest.NewSession()

	require.NoError(t, c.Run(context.Background(), slashInvocation("", sess, &command.Services{})))
	assert.Zero(t, inner.runs)
	assert.True(t, sess.Ephemeral())
	assert.Equal(t, guildOnlyMessage, sess.LastContent())

	require.NoError(t, c.Run(context.Background(), slashInvocation("g1", sess, &command.Services{})))
	assert.Equal(t, 1, inner.runs)
}

func TestRecoverRepliesOnPanicAndError(t *testing.T) {
	sess := commandtest.NewSession()
	svc := &command.Services{Log: zap.NewNop()}

	panicky := WithRecover()(&fakeCommand{pan: "boom"})
	err := panicky.Run(context.Background(), slashInvocation("g1", sess, svc))
	require.Error(t, err)
	assert.Contains(t, sess.LastContent(), "❌ Error: panic in /cola: boom")
	assert.True(t, sess.Ephemeral())

	failing := WithRecover()(&fakeCommand{err: errors.Wrap(errors.New("lavalink down"), "search")})
	err = failing.Run(context.Background(), slashInvocation("g1", sess, svc))
	require.Error(t, err)
	assert.Equal(t, "❌ Error: lavalink down", sess.LastContent())
}

func TestCommandLoggerRecordsHistory(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store, err := storage.New(t.Context(), filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clk := clock.NewMock()
	svc := &command.Services{Log: zap.New(core), Storage: store}
	inner := &fakeCommand{}
	c := WithCommandLogger(clk)(inner)

	require.NoError(t, c.Run(context.Background(), slashInvocation("g1", commandtest.NewSession(), svc)))
	assert.Equal(t, 1, inner.runs)

	entries := logs.FilterMessage("command handled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "cola", fields["command"])
	assert.Equal(t, "pagina=2", fields["param"])
	assert.NotEmpty(t, fields["request_id"])

	history, err := store.FetchCommandHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "cola", history[0].Command)
	assert.Equal(t, "user-1", history[0].UserID)
}
