// Session persistence.  A session is created in the planner phase with
// empty metadata and moves through the three phases via UpdatePhase.
// Phase state is an explicit column on the row, never ambient state.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/architect-sessions/internal/model"
)

const sessionColumns = `s.id, s.project_id, s.current_phase, s.metadata, s.created_at, s.updated_at`

// SessionRepo encapsulates all database queries related to sessions.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the provided DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// jsonOr returns raw when non-empty, otherwise the fallback literal.
// JSON columns are NOT NULL, so absent values persist as their empty form.
func jsonOr(raw json.RawMessage, fallback string) []byte {
	if len(raw) == 0 {
		return []byte(fallback)
	}
	return []byte(raw)
}

// Create inserts a session under the given project.  Returns ErrNotFound
// when the project does not exist and ErrForbidden when it belongs to a
// different user than the caller.
func (r *SessionRepo) Create(ctx context.Context, projectID string, p model.Principal) (*model.Session, error) {
	owner, err := ownerOfProject(ctx, r.db, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(owner, p); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, project_id, current_phase, metadata) VALUES (?, ?, ?, ?)`,
		id, projectID, model.PhasePlanner, []byte(`{}`))
	if err != nil {
		return nil, classify(err)
	}
	return r.getByID(ctx, r.db, id)
}

func (r *SessionRepo) getByID(ctx context.Context, q querier, id string) (*model.Session, error) {
	var s model.Session
	var meta []byte
	err := q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id).
		Scan(&s.ID, &s.ProjectID, &s.CurrentPhase, &meta, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	s.Metadata = meta
	return &s, nil
}

// GetByID fetches a session visible to the principal.  Sessions outside
// the caller's ownership chain answer with ErrNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id string, p model.Principal) (*model.Session, error) {
	if err := sessionVisible(ctx, r.db, id, p); err != nil {
		return nil, err
	}
	return r.getByID(ctx, r.db, id)
}

// ListByProject returns the sessions of a project in creation order.
func (r *SessionRepo) ListByProject(ctx context.Context, projectID string, p model.Principal) ([]*model.Session, error) {
	if err := projectVisible(ctx, r.db, projectID, p); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.project_id = ? ORDER BY s.created_at, s.id`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Session
	for rows.Next() {
		s := new(model.Session)
		var meta []byte
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.CurrentPhase, &meta, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Metadata = meta
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePhase moves a session to the given phase and returns the updated
// row together with the phase it left, so callers can publish the
// transition.  Unknown phases are rejected with ErrValidation before the
// row is touched.
func (r *SessionRepo) UpdatePhase(ctx context.Context, id, phase string, p model.Principal) (sess *model.Session, previous string, err error) {
	phase = strings.ToLower(strings.TrimSpace(phase))
	if !model.ValidPhase(phase) {
		return nil, "", ErrValidation
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var owner string
	if err = tx.QueryRowContext(ctx,
		`SELECT p.user_id, s.current_phase FROM sessions s
		 JOIN projects p ON p.id = s.project_id
		 WHERE s.id = ? FOR UPDATE`, id).Scan(&owner, &previous); err != nil {
		err = classify(err)
		return nil, "", err
	}
	if err = authorize(owner, p); err != nil {
		return nil, "", err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE sessions SET current_phase = ? WHERE id = ?`, phase, id); err != nil {
		err = classify(err)
		return nil, "", err
	}
	if sess, err = r.getByID(ctx, tx, id); err != nil {
		return nil, "", err
	}
	return sess, previous, nil
}

// UpdateMetadata replaces a session's metadata document.
func (r *SessionRepo) UpdateMetadata(ctx context.Context, id string, metadata json.RawMessage, p model.Principal) (*model.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var owner string
	if owner, err = ownerOfSession(ctx, tx, id); err != nil {
		return nil, err
	}
	if err = authorize(owner, p); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE sessions SET metadata = ? WHERE id = ?`, jsonOr(metadata, `{}`), id); err != nil {
		err = classify(err)
		return nil, err
	}
	return r.getByID(ctx, tx, id)
}

// Delete removes a session and, through ON DELETE CASCADE, its messages
// and phase outputs in one transaction.
func (r *SessionRepo) Delete(ctx context.Context, id string, p model.Principal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	var owner string
	if owner, err = ownerOfSession(ctx, tx, id); err != nil {
		return err
	}
	if err = authorize(owner, p); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
