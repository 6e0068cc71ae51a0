package transcript

import "strings"

// Role is the speaker of a turn, using the wire vocabulary of the
// dialogue model ("user" / "model").
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message in the conversation. Turns are immutable once
// appended; error replies are flagged rather than rewritten.
type Turn struct {
	Role              Role   `json:"role"`
	Text              string `json:"text"`
	HiddenFromDisplay bool   `json:"hidden_from_display,omitempty"`
	IsError           bool   `json:"is_error,omitempty"`
}

// Store is the append-only ordered record of a single conversation.
// It is the single source of truth both for rendering and for
// re-scanning by the extractor. It is not safe for concurrent use;
// the orchestrator serializes all access per session.
type Store struct {
	turns    []Turn
	onChange func()
}

func NewStore() *Store {
	return &Store{}
}

// OnChange registers a notification hook fired after every mutation.
// Display refresh hangs off this; the store itself never renders.
func (s *Store) OnChange(fn func()) {
	s.onChange = fn
}

// Append adds a turn to the end of the conversation.
func (s *Store) Append(t Turn) {
	s.turns = append(s.turns, t)
	s.notify()
}

// All returns a copy of every turn in conversation order, including
// hidden ones.
func (s *Store) All() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Visible returns the turns a user should see.
func (s *Store) Visible() []Turn {
	out := make([]Turn, 0, len(s.turns))
	for _, t := range s.turns {
		if !t.HiddenFromDisplay {
			out = append(out, t)
		}
	}
	return out
}

// Len reports the number of turns, hidden included.
func (s *Store) Len() int {
	return len(s.turns)
}

// ReplacePlaceholder removes every turn whose text equals sentinel and
// appends replacement in one step. It is the only permitted removal:
// swapping a transient working indicator for the real reply.
func (s *Store) ReplacePlaceholder(sentinel string, replacement Turn) {
	kept := s.turns[:0]
	for _, t := range s.turns {
		if t.Text == sentinel {
			continue
		}
		kept = append(kept, t)
	}
	s.turns = append(kept, replacement)
	s.notify()
}

// Text concatenates every turn's text in conversation order. The
// extractor scans this whole string because required fields may have
// been provided several turns before the complaint identifier appears.
func (s *Store) Text() string {
	parts := make([]string, len(s.turns))
	for i, t := range s.turns {
		parts[i] = t.Text
	}
	return strings.Join(parts, "\n")
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
