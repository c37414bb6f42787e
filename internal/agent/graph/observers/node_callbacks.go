package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	logx "github.com/hydrochat-core/server/pkg/logger"
)

type startedAtKey struct{}

// newNodeHandler logs graph and node lifecycle with the node's wall time.
func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			logx.Debug().
				Str("node", info.Name).
				Str("component", string(info.Component)).
				Msg("node start")
			return context.WithValue(ctx, startedAtKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			ev := logx.Debug().
				Str("node", info.Name).
				Str("component", string(info.Component))
			if started, ok := ctx.Value(startedAtKey{}).(time.Time); ok {
				ev = ev.Dur("elapsed", time.Since(started))
			}
			ev.Msg("node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().
				Err(err).
				Str("node", info.Name).
				Str("component", string(info.Component)).
				Msg("node error")
			return ctx
		}).
		Build()
}
