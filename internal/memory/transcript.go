// Package memory holds the conversation transcript and its persistence.
package memory

import (
	"errors"
	"fmt"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolOutput Role = "tool_output"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleToolOutput:
		return true
	}
	return false
}

// Turn is one entry in the transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ErrSystemTurn is returned when a caller tries to add a system turn
// anywhere but the start of a transcript.
var ErrSystemTurn = errors.New("system turn is fixed at the start of the transcript")

// Transcript is the ordered record of a session. Index 0 always holds
// the system turn given at construction; everything after it is
// append-only until Reset.
//
// A Transcript is owned by a single goroutine and is not safe for
// concurrent use.
type Transcript struct {
	turns []Turn
}

// NewTranscript creates a transcript holding only the system turn.
func NewTranscript(systemPrompt string) *Transcript {
	return &Transcript{turns: []Turn{{Role: RoleSystem, Content: systemPrompt}}}
}

// Append adds a turn to the end of the transcript.
func (t *Transcript) Append(role Role, content string) error {
	if role == RoleSystem {
		return ErrSystemTurn
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	t.turns = append(t.turns, Turn{Role: role, Content: content})
	return nil
}

// Restore appends previously saved turns. System turns and turns with
// unknown roles are dropped and counted in the returned skip total.
func (t *Transcript) Restore(turns []Turn) (skipped int) {
	for _, turn := range turns {
		if turn.Role == RoleSystem || !turn.Role.Valid() {
			skipped++
			continue
		}
		t.turns = append(t.turns, turn)
	}
	return skipped
}

// Reset drops everything but the system turn.
func (t *Transcript) Reset() {
	t.turns = t.turns[:1:1]
}

// Len returns the number of turns, including the system turn.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// System returns the system turn.
func (t *Transcript) System() Turn {
	return t.turns[0]
}

// Turns returns a copy of every turn, system turn first.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// History returns a copy of the turns after the system turn. This is
// what gets persisted.
func (t *Transcript) History() []Turn {
	out := make([]Turn, len(t.turns)-1)
	copy(out, t.turns[1:])
	return out
}

// Last returns the most recent turn.
func (t *Transcript) Last() Turn {
	return t.turns[len(t.turns)-1]
}
