package model

import "time"

// Project statuses accepted by the projects.status CHECK constraint.
const (
    StatusDraft      = "draft"
    StatusInProgress = "in_progress"
    StatusCompleted  = "completed"
)

// ValidStatus reports whether s is one of the enumerated project statuses.
func ValidStatus(s string) bool {
    return s == StatusDraft || s == StatusInProgress || s == StatusCompleted
}

// Project is a unit of work a user is designing.  Each project belongs to
// a single user and owns zero or more sessions.
type Project struct {
    ID          string    // projects.id
    UserID      string    // projects.user_id (references users.id)
    Name        string    // projects.name
    Description *string   // projects.description (nullable)
    Status      string    // projects.status (draft | in_progress | completed)
    CreatedAt   time.Time // projects.created_at
    UpdatedAt   time.Time // projects.updated_at
}
