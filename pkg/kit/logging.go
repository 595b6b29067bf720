package kit

import (
	"context"
	"log/slog"
	"time"
)

// Logging wraps an endpoint with per-call structured logging. Failures
// log at Warn with the error; successes at Debug with the duration.
func Logging(logger *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)
			if err != nil {
				logger.Warn("endpoint failed", "endpoint", name,
					"transport", GetTransport(ctx), "duration", time.Since(start), "error", err)
				return nil, err
			}
			logger.Debug("endpoint ok", "endpoint", name,
				"transport", GetTransport(ctx), "duration", time.Since(start))
			return resp, nil
		}
	}
}
