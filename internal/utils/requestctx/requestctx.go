// Package requestctx carries the request id from the HTTP edge to outbound calls.
package requestctx

import "context"

// Header carries the request id on inbound and outbound requests.
const Header = "X-Request-ID"

type ctxKey int

const (
	requestIDKey ctxKey = iota
)

// WithRequestID returns ctx carrying requestID. A nil ctx is treated as Background.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}
