package tools

import (
	"context"

	"github.com/partdesk/server/internal/agent/model"
)

type sessionKey struct{}

// WithSession attaches the turn's session to the context so tools that
// resolve anaphora ("this part") can see what was discussed.
func WithSession(ctx context.Context, s *model.SessionState) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom extracts the session from the context, or nil.
func SessionFrom(ctx context.Context) *model.SessionState {
	s, _ := ctx.Value(sessionKey{}).(*model.SessionState)
	return s
}
