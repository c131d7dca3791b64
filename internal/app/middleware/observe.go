package middleware

import (
	"context"
	"log/slog"
	"time"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/queries"
)

// Observer receives the outcome of every bus call, e.g. to feed metrics.
type Observer func(kind, key string, took time.Duration, err error)

func ObserveCommands(logger *slog.Logger, observe Observer) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			report(logger, observe, "command", cmd.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func ObserveQueries(logger *slog.Logger, observe Observer) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			report(logger, observe, "query", q.Key(), time.Since(start), err)
			return res, err
		})
	}
}

func report(logger *slog.Logger, observe Observer, kind, key string, took time.Duration, err error) {
	if observe != nil {
		observe(kind, key, took, err)
	}
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn(kind+" failed", "key", key, "duration", took, "error", err)
		return
	}
	logger.Debug(kind+" handled", "key", key, "duration", took)
}
