package session

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one conversation. The ID is opaque: collaborating
// services only ever echo it back, so nothing may be derived from it.
type Session struct {
	ID        string
	StartedAt time.Time
}

// New creates a session for a fresh conversation. The ID lives for the
// conversation's lifetime and is never regenerated.
func New() Session {
	return Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}
