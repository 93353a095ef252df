package model

import "context"

// SessionRepository persists conversation session state between turns.
type SessionRepository interface {
	// Load retrieves the session for a conversation. A conversation that
	// has never been seen yields a fresh empty session, not an error.
	Load(ctx context.Context, conversationID string) (*SessionState, error)

	// Save stores the session, refreshing its TTL.
	Save(ctx context.Context, conversationID string, s *SessionState) error

	// Clear removes all state for a conversation.
	Clear(ctx context.Context, conversationID string) error
}
