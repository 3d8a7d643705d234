// Project persistence.  Reads are scoped to the calling principal; writes
// distinguish missing projects from projects owned by someone else.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/architect-sessions/internal/model"
)

const projectColumns = `id, user_id, name, description, status, created_at, updated_at`

// ProjectRepo encapsulates all database queries related to projects.
type ProjectRepo struct {
	db *sql.DB
}

// NewProjectRepo constructs a ProjectRepo with the provided DB handle.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create inserts a new project owned by p.UserID.  An empty status
// defaults to draft; an unknown status is rejected with ErrValidation
// before the row ever reaches the database.  On success the returned
// project carries the database-assigned timestamps.
func (r *ProjectRepo) Create(ctx context.Context, p model.Principal, ownerID, name string, description *string, status string) (*model.Project, error) {
	if status == "" {
		status = model.StatusDraft
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !model.ValidStatus(status) {
		return nil, ErrValidation
	}
	// Regular callers create projects for themselves; only the service
	// principal may create on behalf of another account.
	if err := authorize(ownerID, p); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, name, description, status) VALUES (?, ?, ?, ?, ?)`,
		id, ownerID, name, description, status)
	if err != nil {
		return nil, classify(err) // missing owner row surfaces as ErrNotFound
	}
	return r.getByID(ctx, id)
}

// getByID fetches a project without ownership scoping.
func (r *ProjectRepo) getByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

// GetByID fetches a project visible to the principal.  Rows outside the
// caller's chain answer with ErrNotFound.
func (r *ProjectRepo) GetByID(ctx context.Context, id string, p model.Principal) (*model.Project, error) {
	proj, err := r.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Service && proj.UserID != p.UserID {
		return nil, ErrNotFound
	}
	return proj, nil
}

// List returns the projects visible to the principal: every project for
// the service identity, the caller's own otherwise.
func (r *ProjectRepo) List(ctx context.Context, p model.Principal) ([]*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at, id`
	args := []any{}
	if !p.Service {
		q = `SELECT ` + projectColumns + ` FROM projects WHERE user_id = ? ORDER BY created_at, id`
		args = append(args, p.UserID)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Project
	for rows.Next() {
		pr := new(model.Project)
		if err := rows.Scan(&pr.ID, &pr.UserID, &pr.Name, &pr.Description, &pr.Status, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches name, description and/or status of a project.  Nil
// arguments leave the column untouched.  updated_at refreshes through
// the schema.  Returns ErrForbidden when the project belongs to another
// user and ErrNotFound when it does not exist.
func (r *ProjectRepo) Update(ctx context.Context, id string, p model.Principal, name, description, status *string) (*model.Project, error) {
	if status != nil {
		s := strings.ToLower(strings.TrimSpace(*status))
		if !model.ValidStatus(s) {
			return nil, ErrValidation
		}
		status = &s
	}

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
	if owner, err = ownerOfProject(ctx, tx, id); err != nil {
		return nil, err
	}
	if err = authorize(owner, p); err != nil {
		return nil, err
	}

	sets := []string{}
	args := []any{}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *description)
	}
	if status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *status)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err = tx.ExecContext(ctx,
			`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			err = classify(err)
			return nil, err
		}
	}

	var proj model.Project
	if err = tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id).
		Scan(&proj.ID, &proj.UserID, &proj.Name, &proj.Description, &proj.Status, &proj.CreatedAt, &proj.UpdatedAt); err != nil {
		return nil, err
	}
	return &proj, nil
}

// Delete removes a project and, through ON DELETE CASCADE, its sessions,
// messages and phase outputs.  The ownership check and the delete run in
// one transaction.  Returns ErrNotFound when the project does not exist
// and ErrForbidden when it belongs to another user.
func (r *ProjectRepo) Delete(ctx context.Context, id string, p model.Principal) error {
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
	if owner, err = ownerOfProject(ctx, tx, id); err != nil {
		return err
	}
	if err = authorize(owner, p); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}
