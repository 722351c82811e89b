// Package cmd holds the command core shared by every adapter: a named Run,
// middleware around it, and a registry. The Discord adapter puts its
// interaction context into Invocation.Data.
package cmd

import "context"

type Invocation struct {
	Data interface{}
}

type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Middleware decorates a command; see Wrap.
type Middleware func(Command) Command

// Apply wraps c with mws in order. The last middleware runs first.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

type wrapped struct {
	Command
	run func(ctx context.Context, inv *Invocation) error
}

func (w *wrapped) Run(ctx context.Context, inv *Invocation) error { return w.run(ctx, inv) }

// Wrap returns c with Run replaced by run. Root still reaches c.
func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	return &wrapped{Command: c, run: run}
}

// Root strips every Wrap layer, so adapters can type-assert the command
// itself for SlashProvider and friends.
func Root(c Command) Command {
	for {
		w, ok := c.(*wrapped)
		if !ok {
			return c
		}
		c = w.Command
	}
}
