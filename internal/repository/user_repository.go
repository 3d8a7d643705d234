package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/architect-sessions/internal/model"
)

// UserRepo encapsulates all database queries against the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a generated UUID and returns the stored row.
// Emails are normalized to lower case before insert so the unique
// constraint cannot be dodged by case variation.
func (r *UserRepo) Create(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, email) VALUES (?, ?)`, id, email)
	if err != nil {
		if errors.Is(classify(err), ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, classify(err)
	}
	// Follow-up select to pick up database-assigned timestamps.
	return r.GetByID(ctx, id)
}

// GetByID fetches a user by id.  Returns ErrNotFound when missing.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, created_at, updated_at FROM users WHERE id = ? LIMIT 1`,
		id).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, created_at, updated_at FROM users WHERE email = ? LIMIT 1`,
		email).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// List returns all users ordered by creation time.  Only the service
// principal reaches this method; the handler gates it.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, email, created_at, updated_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u := new(model.User)
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateEmail changes a user's email.  The updated_at column refreshes
// through the schema, not through this statement.  Returns ErrNotFound
// when the user does not exist and ErrEmailExists on a collision.
func (r *UserRepo) UpdateEmail(ctx context.Context, id, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.DB.BeginTx(ctx, nil)
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

	var existing string
	if err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = ? FOR UPDATE`, id).Scan(&existing); err != nil {
		err = classify(err)
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET email = ? WHERE id = ?`, email, id); err != nil {
		if errors.Is(classify(err), ErrConflict) {
			err = ErrEmailExists
			return nil, err
		}
		err = classify(err)
		return nil, err
	}
	var u model.User
	if err = tx.QueryRowContext(ctx,
		`SELECT id, email, created_at, updated_at FROM users WHERE id = ?`,
		id).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes a user and, through ON DELETE CASCADE, every project,
// session, message and phase output transitively owned by them.  The
// existence check and the delete run in one transaction so a concurrent
// reader never observes a partial cascade.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
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

	var existing string
	if err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = ? FOR UPDATE`, id).Scan(&existing); err != nil {
		err = classify(err)
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
