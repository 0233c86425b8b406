package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tipbot/internal/metrics"
	"github.com/mmynk/tipbot/internal/service"
	"github.com/mmynk/tipbot/internal/storage"
)

// Command is one parsed chat command on its way to a handler.
type Command struct {
	Name      string
	UserID    int64
	ChatID    int64
	FirstName string
	Args      []string
}

// HandlerFunc handles a command and returns the reply text.
type HandlerFunc func(ctx context.Context, cmd Command) (string, error)

// Middleware wraps a HandlerFunc.
type Middleware func(HandlerFunc) HandlerFunc

// Chain applies mws so that the first one is the outermost.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestID stores a fresh request id and the sender's user id in the context.
func RequestID() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd Command) (string, error) {
			ctx = context.WithValue(ctx, RequestIDKey, uuid.NewString())
			ctx = context.WithValue(ctx, UserIDKey, cmd.UserID)
			return next(ctx, cmd)
		}
	}
}

// Logging logs every command with its user ID, duration and outcome.
// Usage errors are logged at warn level, everything else at error level with
// a flag telling storage failures apart from other internal errors.
func Logging() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd Command) (string, error) {
			start := time.Now()

			reply, err := next(ctx, cmd)

			duration := time.Since(start).Milliseconds()
			attrs := []any{
				"command", cmd.Name,
				"user_id", cmd.UserID,
				"request_id", GetRequestID(ctx),
				"duration_ms", duration,
			}
			switch {
			case err == nil:
				slog.Info("Command ok", attrs...)
			case service.IsUsageError(err):
				kind, _ := service.KindOf(err)
				slog.Warn("Command rejected", append(attrs, "kind", kind.String(), "error", err)...)
			default:
				slog.Error("Command error", append(attrs, "storage", storage.IsStorageError(err), "error", err)...)
			}

			return reply, err
		}
	}
}

// Metrics records the outcome and duration of every command.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd Command) (string, error) {
			start := time.Now()
			reply, err := next(ctx, cmd)

			outcome := metrics.OutcomeOK
			if err != nil {
				outcome = metrics.OutcomeError
				if service.IsUsageError(err) {
					outcome = metrics.OutcomeUsageError
				}
			}
			m.RecordCommand(cmd.Name, outcome, time.Since(start))

			return reply, err
		}
	}
}

// Recover turns a panic in a handler into an error so one bad update cannot
// take the bot down.
func Recover() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd Command) (reply string, err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Command panicked",
						"command", cmd.Name,
						"user_id", cmd.UserID,
						"panic", r,
						"stack", string(debug.Stack()),
					)
					reply, err = "", fmt.Errorf("panic in %s handler: %v", cmd.Name, r)
				}
			}()
			return next(ctx, cmd)
		}
	}
}
