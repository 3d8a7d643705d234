package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/architect-sessions/internal/model"
)

const docLinkColumns = `id, session_id, tech_name, doc_url, scraped_content, relevance_score, created_at`

// DocLinkRepo encapsulates all database queries related to documentation
// links (librarian phase output).
type DocLinkRepo struct {
	db *sql.DB
}

// NewDocLinkRepo constructs a DocLinkRepo with the provided DB handle.
func NewDocLinkRepo(db *sql.DB) *DocLinkRepo {
	return &DocLinkRepo{db: db}
}

// CreateBatch stores a set of documentation links for a session in one
// transaction; either every link persists or none does.  The returned
// slice carries the generated ids and timestamps in input order.
func (r *DocLinkRepo) CreateBatch(ctx context.Context, sessionID string, links []*model.DocumentationLink, p model.Principal) ([]*model.DocumentationLink, error) {
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

	out := make([]*model.DocumentationLink, 0, len(links))
	for _, l := range links {
		id := uuid.NewString()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO documentation_links (id, session_id, tech_name, doc_url, scraped_content, relevance_score)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, sessionID, l.TechName, l.DocURL, l.ScrapedContent, l.RelevanceScore); err != nil {
			err = classify(err)
			return nil, err
		}
		stored := new(model.DocumentationLink)
		if err = tx.QueryRowContext(ctx,
			`SELECT `+docLinkColumns+` FROM documentation_links WHERE id = ?`, id).
			Scan(&stored.ID, &stored.SessionID, &stored.TechName, &stored.DocURL,
				&stored.ScrapedContent, &stored.RelevanceScore, &stored.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

// ListBySession returns a session's documentation links ordered by
// relevance, most relevant first.  Unscored links sort last.
func (r *DocLinkRepo) ListBySession(ctx context.Context, sessionID string, p model.Principal) ([]*model.DocumentationLink, error) {
	if err := sessionVisible(ctx, r.db, sessionID, p); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+docLinkColumns+` FROM documentation_links
		 WHERE session_id = ? ORDER BY relevance_score DESC, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DocumentationLink
	for rows.Next() {
		l := new(model.DocumentationLink)
		if err := rows.Scan(&l.ID, &l.SessionID, &l.TechName, &l.DocURL,
			&l.ScrapedContent, &l.RelevanceScore, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
