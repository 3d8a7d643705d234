package model

import (
    "encoding/json"
    "time"
)

// Phases a conversational session progresses through.  The same values
// constrain sessions.current_phase and messages.phase.
const (
    PhasePlanner   = "planner"
    PhaseLibrarian = "librarian"
    PhaseMentor    = "mentor"
)

// ValidPhase reports whether p is one of the three enumerated phases.
func ValidPhase(p string) bool {
    return p == PhasePlanner || p == PhaseLibrarian || p == PhaseMentor
}

// Session is one conversational engagement within a project.  A session
// starts in the planner phase with empty metadata and owns the messages
// and phase outputs produced during the conversation.
type Session struct {
    ID           string          // sessions.id
    ProjectID    string          // sessions.project_id (references projects.id)
    CurrentPhase string          // sessions.current_phase (planner | librarian | mentor)
    Metadata     json.RawMessage // sessions.metadata (JSON object, never null)
    CreatedAt    time.Time       // sessions.created_at
    UpdatedAt    time.Time       // sessions.updated_at
}
