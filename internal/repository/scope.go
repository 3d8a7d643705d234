// Ownership scoping shared by all repositories.  Reads use visibility
// checks that answer with ErrNotFound for rows outside the caller's
// chain, so existence is never leaked.  Writes resolve the owning user
// first and answer with ErrForbidden, so a caller can tell a missing row
// from one owned by someone else.  The service-principal bypass lives in
// authorize() and the visibility helpers and nowhere else.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/architect-sessions/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// authorize returns nil when the principal may write rows owned by the
// given user, ErrForbidden otherwise.
func authorize(ownerID string, p model.Principal) error {
	if p.Service || p.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}

// ownerOfProject resolves the user id owning a project.  Returns
// ErrNotFound when the project does not exist.
func ownerOfProject(ctx context.Context, q querier, projectID string) (string, error) {
	var owner string
	err := q.QueryRowContext(ctx,
		`SELECT user_id FROM projects WHERE id = ?`, projectID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return owner, err
}

// ownerOfSession resolves the user id owning a session through its project.
func ownerOfSession(ctx context.Context, q querier, sessionID string) (string, error) {
	var owner string
	err := q.QueryRowContext(ctx,
		`SELECT p.user_id FROM sessions s
		 JOIN projects p ON p.id = s.project_id
		 WHERE s.id = ?`, sessionID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return owner, err
}

// ownerOfScaffold resolves the user id owning a code scaffold through its
// session and project.
func ownerOfScaffold(ctx context.Context, q querier, scaffoldID string) (string, error) {
	var owner string
	err := q.QueryRowContext(ctx,
		`SELECT p.user_id FROM code_scaffolds cs
		 JOIN sessions s ON s.id = cs.session_id
		 JOIN projects p ON p.id = s.project_id
		 WHERE cs.id = ?`, scaffoldID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return owner, err
}

// projectVisible returns nil when the project exists and is visible to the
// principal, ErrNotFound otherwise.
func projectVisible(ctx context.Context, q querier, projectID string, p model.Principal) error {
	owner, err := ownerOfProject(ctx, q, projectID)
	if err != nil {
		return err
	}
	if !p.Service && owner != p.UserID {
		return ErrNotFound
	}
	return nil
}

// sessionVisible returns nil when the session exists and is visible to the
// principal, ErrNotFound otherwise.
func sessionVisible(ctx context.Context, q querier, sessionID string, p model.Principal) error {
	owner, err := ownerOfSession(ctx, q, sessionID)
	if err != nil {
		return err
	}
	if !p.Service && owner != p.UserID {
		return ErrNotFound
	}
	return nil
}
