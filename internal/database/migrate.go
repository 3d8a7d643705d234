package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the record-store schema when it does not exist yet.
// Enum columns are enforced with CHECK constraints, ownership chains with
// ON DELETE CASCADE foreign keys, and updated_at columns refresh through
// ON UPDATE CURRENT_TIMESTAMP so a writer can never supply its own value.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id CHAR(36) NOT NULL PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
			UNIQUE KEY uq_users_email (email)
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id CHAR(36) NOT NULL PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'draft',
			created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
			KEY idx_projects_user (user_id),
			CONSTRAINT chk_projects_status CHECK (status IN ('draft','in_progress','completed')),
			CONSTRAINT fk_projects_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id CHAR(36) NOT NULL PRIMARY KEY,
			project_id CHAR(36) NOT NULL,
			current_phase VARCHAR(20) NOT NULL DEFAULT 'planner',
			metadata JSON NOT NULL,
			created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
			KEY idx_sessions_project (project_id),
			CONSTRAINT chk_sessions_phase CHECK (current_phase IN ('planner','librarian','mentor')),
			CONSTRAINT fk_sessions_project FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id CHAR(36) NOT NULL PRIMARY KEY,
			session_id CHAR(36) NOT NULL,
			role VARCHAR(20) NOT NULL,
			content TEXT NOT NULL,
			phase VARCHAR(20) NULL,
			metadata JSON NOT NULL,
			created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			KEY idx_messages_session_created (session_id, created_at),
			CONSTRAINT chk_messages_role CHECK (role IN ('user','assistant','system')),
			CONSTRAINT chk_messages_phase CHECK (phase IS NULL OR phase IN ('planner','librarian','mentor')),
			CONSTRAINT fk_messages_session FOREIGN KEY (session_id) REFERENCES sessions (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS technical_specs (
			id CHAR(36) NOT NULL PRIMARY KEY,
			session_id CHAR(36) NOT NULL,
			requirements TEXT,
			architecture TEXT,
			tech_stack JSON NOT NULL,
			version INT NOT NULL DEFAULT 1,
			created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			KEY idx_specs_session_version (session_id, version),
			CONSTRAINT fk_specs_session FOREIGN KEY (session_id) REFERENCES sessions (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS documentation_links (
			id CHAR(36) NOT NULL PRIMARY KEY,
			session_id CHAR(36) NOT NULL,
			tech_name VARCHAR(255) NOT NULL,
			doc_url TEXT NOT NULL,
			scraped_content MEDIUMTEXT,
			relevance_score DOUBLE,
			created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			KEY idx_doclinks_session (session_id),
			CONSTRAINT fk_doclinks_session FOREIGN KEY (session_id) REFERENCES sessions (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS code_scaffolds (
			id CHAR(36) NOT NULL PRIMARY KEY,
			session_id CHAR(36) NOT NULL,
			file_path VARCHAR(512) NOT NULL,
			content MEDIUMTEXT NOT NULL,
			hints JSON NOT NULL,
			completed TINYINT(1) NOT NULL DEFAULT 0,
			created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			KEY idx_scaffolds_session (session_id),
			CONSTRAINT fk_scaffolds_session FOREIGN KEY (session_id) REFERENCES sessions (id) ON DELETE CASCADE
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
