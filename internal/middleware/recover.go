package middleware

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keshon/rockola/internal/command"
	"github.com/keshon/rockola/pkg/cmd"
)

// WithRecover turns a panic or a returned error into an ephemeral
// "❌ Error: ..." reply. It should be the outermost middleware.
func WithRecover() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) (err error) {
			s, e, svc, ok := interaction(inv)
			if !ok {
				return c.Run(ctx, inv)
			}

			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("panic in /%s: %v", c.Name(), r)
					if svc != nil && svc.Log != nil {
						svc.Log.Error("command panicked", zap.String("command", c.Name()), zap.Any("panic", r), zap.Stack("stack"))
					}
				}
				if err != nil {
					if rerr := command.RespondEphemeral(s, e, fmt.Sprintf("❌ Error: %v", errors.Cause(err))); rerr != nil && svc != nil && svc.Log != nil {
						svc.Log.Debug("error reply not delivered", zap.Error(rerr))
					}
				}
			}()
			return c.Run(ctx, inv)
		})
	}
}
