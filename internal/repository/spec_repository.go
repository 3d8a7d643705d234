// Technical spec persistence (planner phase output).  The source schema
// left spec versioning unenforced; here versions are assigned inside the
// insert transaction with a locking read, so concurrent writers serialize
// per session and versions are strictly increasing.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/iliyamo/architect-sessions/internal/model"
)

const specColumns = `id, session_id, requirements, architecture, tech_stack, version, created_at`

// SpecRepo encapsulates all database queries related to technical specs.
type SpecRepo struct {
	db *sql.DB
}

// NewSpecRepo constructs a SpecRepo with the provided DB handle.
func NewSpecRepo(db *sql.DB) *SpecRepo {
	return &SpecRepo{db: db}
}

// Create stores a new spec revision for a session.  The version is
// max(version)+1 computed under a lock on the session's existing specs.
func (r *SpecRepo) Create(ctx context.Context, sessionID string, requirements, architecture *string, techStack json.RawMessage, p model.Principal) (*model.TechnicalSpec, error) {
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
	if owner, err = ownerOfSession(ctx, tx, sessionID); err != nil {
		return nil, err
	}
	if err = authorize(owner, p); err != nil {
		return nil, err
	}

	var maxVersion int
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM technical_specs WHERE session_id = ? FOR UPDATE`,
		sessionID).Scan(&maxVersion); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO technical_specs (id, session_id, requirements, architecture, tech_stack, version)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, sessionID, requirements, architecture, jsonOr(techStack, `{}`), maxVersion+1); err != nil {
		err = classify(err)
		return nil, err
	}

	var s model.TechnicalSpec
	var stack []byte
	if err = tx.QueryRowContext(ctx,
		`SELECT `+specColumns+` FROM technical_specs WHERE id = ?`, id).
		Scan(&s.ID, &s.SessionID, &s.Requirements, &s.Architecture, &stack, &s.Version, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.TechStack = stack
	return &s, nil
}

// Latest returns the highest-version spec of a session, ErrNotFound when
// the session has none yet.
func (r *SpecRepo) Latest(ctx context.Context, sessionID string, p model.Principal) (*model.TechnicalSpec, error) {
	if err := sessionVisible(ctx, r.db, sessionID, p); err != nil {
		return nil, err
	}
	var s model.TechnicalSpec
	var stack []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT `+specColumns+` FROM technical_specs
		 WHERE session_id = ? ORDER BY version DESC LIMIT 1`, sessionID).
		Scan(&s.ID, &s.SessionID, &s.Requirements, &s.Architecture, &stack, &s.Version, &s.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	s.TechStack = stack
	return &s, nil
}

// ListBySession returns all spec revisions of a session, newest first.
func (r *SpecRepo) ListBySession(ctx context.Context, sessionID string, p model.Principal) ([]*model.TechnicalSpec, error) {
	if err := sessionVisible(ctx, r.db, sessionID, p); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+specColumns+` FROM technical_specs
		 WHERE session_id = ? ORDER BY version DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TechnicalSpec
	for rows.Next() {
		s := new(model.TechnicalSpec)
		var stack []byte
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Requirements, &s.Architecture, &stack, &s.Version, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.TechStack = stack
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
