package model

import (
    "encoding/json"
    "time"
)

// Roles accepted by the messages.role CHECK constraint.
const (
    RoleUser      = "user"
    RoleAssistant = "assistant"
    RoleSystem    = "system"
)

// ValidRole reports whether r is one of the enumerated message roles.
func ValidRole(r string) bool {
    return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Message is one turn in a session's conversation.  Phase is optional:
// messages written before a phase is established carry a nil tag.
type Message struct {
    ID        string          // messages.id
    SessionID string          // messages.session_id (references sessions.id)
    Role      string          // messages.role (user | assistant | system)
    Content   string          // messages.content
    Phase     *string         // messages.phase (nullable, planner | librarian | mentor)
    Metadata  json.RawMessage // messages.metadata (JSON object, never null)
    CreatedAt time.Time       // messages.created_at
}
