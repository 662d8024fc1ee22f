package models

import "time"

// Turn roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SavedRecord is the summary/learning pair attached to an assistant turn when
// the exchange produced a persisted diary entry.
type SavedRecord struct {
	Summary  string `json:"summary"`
	Learning string `json:"learning"`
}

// ConversationTurn is one message in the session's ordered, append-only turn
// sequence. Turns live in process memory only — they are not persisted.
type ConversationTurn struct {
	ID         string       `json:"id"`
	Role       string       `json:"role"`
	Content    string       `json:"content"`
	SavedEntry *SavedRecord `json:"saved_entry,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
