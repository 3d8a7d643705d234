// Package queue defines message payloads exchanged over the message broker.
package queue

// PhaseChangedEvent is published when a session moves to another phase.
// It carries enough context for downstream consumers (activity logs,
// notifications, the frontend push channel) to act without querying the
// primary database.
type PhaseChangedEvent struct {
    SessionID string `json:"session_id"`
    ProjectID string `json:"project_id"`
    FromPhase string `json:"from_phase"`
    ToPhase   string `json:"to_phase"`
    ChangedAt string `json:"changed_at"`
}
