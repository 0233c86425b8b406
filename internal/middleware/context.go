package middleware

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for the id assigned to one command.
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for the Telegram user id of the sender.
	UserIDKey contextKey = "user_id"
)

// GetRequestID extracts the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetUserID extracts the sender's user ID from the context.
// Returns 0 if not found.
func GetUserID(ctx context.Context) int64 {
	id, _ := ctx.Value(UserIDKey).(int64)
	return id
}
