package assistant

import "context"

type sessionKey struct{}

// WithSessionID attaches the session being served to ctx so processors can
// snapshot it around external calls.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the session attached by WithSessionID.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
