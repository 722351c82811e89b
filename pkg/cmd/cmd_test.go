package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	name string
	runs int
}

func (s *stubCommand) Name() string        { return s.name }
func (s *stubCommand) Description() string { return "stub " + s.name }
func (s *stubCommand) Run(context.Context, *Invocation) error {
	s.runs++
	return nil
}

func TestRegistrySortedAndDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubCommand{name: "top"}))
	require.NoError(t, r.Register(&stubCommand{name: "ahora"}))

	err := r.Register(&stubCommand{name: "top"})
	assert.ErrorIs(t, err, ErrDuplicateCommand)

	all := r.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "ahora", all[0].Name())
	assert.Equal(t, "top", all[1].Name())
	assert.Nil(t, r.Get("missing"))
}

func TestApplyOrderAndRoot(t *testing.T) {
	inner := &stubCommand{name: "cola"}
	var trace []string
	mark := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				trace = append(trace, tag)
				return c.Run(ctx, inv)
			})
		}
	}

	c := Apply(inner, mark("first"), mark("second"))
	require.NoError(t, c.Run(context.Background(), &Invocation{}))

	assert.Equal(t, []string{"second", "first"}, trace)
	assert.Equal(t, 1, inner.runs)
	assert.Same(t, inner, Root(c))
	assert.Equal(t, "cola", c.Name())
	assert.Equal(t, "stub cola", c.Description())
}

func TestRootWithoutMiddleware(t *testing.T) {
	inner := &stubCommand{name: "top"}
	assert.Same(t, inner, Root(inner))
	assert.Same(t, inner, Root(Apply(inner)))
}
