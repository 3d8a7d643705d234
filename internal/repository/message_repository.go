package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/architect-sessions/internal/model"
)

const messageColumns = `id, session_id, role, content, phase, metadata, created_at`

// MessageRepo encapsulates all database queries related to messages.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo constructs a MessageRepo with the provided DB handle.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create appends a message to a session's conversation.  Role and phase
// values outside their enumerations are rejected with ErrValidation; a
// missing session answers ErrNotFound, a session owned by someone else
// ErrForbidden.
func (r *MessageRepo) Create(ctx context.Context, sessionID, role, content string, phase *string, metadata json.RawMessage, p model.Principal) (*model.Message, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !model.ValidRole(role) {
		return nil, ErrValidation
	}
	if phase != nil {
		ph := strings.ToLower(strings.TrimSpace(*phase))
		if !model.ValidPhase(ph) {
			return nil, ErrValidation
		}
		phase = &ph
	}

	owner, err := ownerOfSession(ctx, r.db, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, p); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, phase, metadata) VALUES (?, ?, ?, ?, ?, ?)`,
		id, sessionID, role, content, phase, jsonOr(metadata, `{}`))
	if err != nil {
		return nil, classify(err)
	}

	var m model.Message
	var meta []byte
	if err := r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Phase, &meta, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Metadata = meta
	return &m, nil
}

// ListBySession returns a session's messages in conversation order.
func (r *MessageRepo) ListBySession(ctx context.Context, sessionID string, p model.Principal) ([]*model.Message, error) {
	if err := sessionVisible(ctx, r.db, sessionID, p); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE session_id = ? ORDER BY created_at, id`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Message
	for rows.Next() {
		m := new(model.Message)
		var meta []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Phase, &meta, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Metadata = meta
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
