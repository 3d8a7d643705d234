package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/iliyamo/architect-sessions/internal/model"
)

const scaffoldColumns = `id, session_id, file_path, content, hints, completed, created_at`

// ScaffoldRepo encapsulates all database queries related to code
// scaffolds (mentor phase output).
type ScaffoldRepo struct {
	db *sql.DB
}

// NewScaffoldRepo constructs a ScaffoldRepo with the provided DB handle.
func NewScaffoldRepo(db *sql.DB) *ScaffoldRepo {
	return &ScaffoldRepo{db: db}
}

// CreateBatch stores a set of scaffolds for a session in one transaction.
// Every scaffold starts with completed = false regardless of input.
func (r *ScaffoldRepo) CreateBatch(ctx context.Context, sessionID string, scaffolds []*model.CodeScaffold, p model.Principal) ([]*model.CodeScaffold, error) {
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

	out := make([]*model.CodeScaffold, 0, len(scaffolds))
	for _, sc := range scaffolds {
		id := uuid.NewString()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO code_scaffolds (id, session_id, file_path, content, hints, completed)
			 VALUES (?, ?, ?, ?, ?, FALSE)`,
			id, sessionID, sc.FilePath, sc.Content, jsonOr(sc.Hints, `[]`)); err != nil {
			err = classify(err)
			return nil, err
		}
		stored, serr := scanScaffold(tx.QueryRowContext(ctx,
			`SELECT `+scaffoldColumns+` FROM code_scaffolds WHERE id = ?`, id))
		if serr != nil {
			err = serr
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

// ListBySession returns a session's scaffolds in creation order.
func (r *ScaffoldRepo) ListBySession(ctx context.Context, sessionID string, p model.Principal) ([]*model.CodeScaffold, error) {
	if err := sessionVisible(ctx, r.db, sessionID, p); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scaffoldColumns+` FROM code_scaffolds
		 WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CodeScaffold
	for rows.Next() {
		sc := new(model.CodeScaffold)
		var hints []byte
		if err := rows.Scan(&sc.ID, &sc.SessionID, &sc.FilePath, &sc.Content,
			&hints, &sc.Completed, &sc.CreatedAt); err != nil {
			return nil, err
		}
		sc.Hints = hints
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCompleted flips the completion flag of a scaffold, the only mutation
// the scaffold lifecycle allows.
func (r *ScaffoldRepo) SetCompleted(ctx context.Context, id string, completed bool, p model.Principal) (*model.CodeScaffold, error) {
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
	if owner, err = ownerOfScaffold(ctx, tx, id); err != nil {
		return nil, err
	}
	if err = authorize(owner, p); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE code_scaffolds SET completed = ? WHERE id = ?`, completed, id); err != nil {
		err = classify(err)
		return nil, err
	}
	var sc *model.CodeScaffold
	if sc, err = scanScaffold(tx.QueryRowContext(ctx,
		`SELECT `+scaffoldColumns+` FROM code_scaffolds WHERE id = ?`, id)); err != nil {
		return nil, err
	}
	return sc, nil
}

func scanScaffold(row *sql.Row) (*model.CodeScaffold, error) {
	sc := new(model.CodeScaffold)
	var hints []byte
	if err := row.Scan(&sc.ID, &sc.SessionID, &sc.FilePath, &sc.Content,
		&hints, &sc.Completed, &sc.CreatedAt); err != nil {
		return nil, err
	}
	sc.Hints = json.RawMessage(hints)
	return sc, nil
}
