package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Migration is one versioned schema step.
type Migration struct {
	Version string
	SQL     string
}

// Migrations lists schema steps in application order. Ownership cascades are performed
// by services, so foreign keys intentionally carry no ON DELETE clause.
var Migrations = []Migration{
	{
		Version: "001_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	full_name VARCHAR(200) NOT NULL,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	},
	{
		Version: "002_catalog",
		SQL: `CREATE TABLE IF NOT EXISTS semesters (
	id BIGSERIAL PRIMARY KEY,
	number INTEGER NOT NULL UNIQUE CHECK (number BETWEEN 1 AND 8),
	name VARCHAR(100) NOT NULL
);
CREATE TABLE IF NOT EXISTS subjects (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(200) NOT NULL,
	code VARCHAR(50) NOT NULL DEFAULT '',
	description VARCHAR(500) NOT NULL DEFAULT '',
	semester_id BIGINT NOT NULL REFERENCES semesters(id)
);
CREATE INDEX IF NOT EXISTS idx_subjects_semester ON subjects(semester_id);`,
	},
	{
		Version: "003_resources",
		SQL: `CREATE TABLE IF NOT EXISTS notes (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	original_file_name VARCHAR(255) NOT NULL,
	stored_file_name VARCHAR(255) NOT NULL UNIQUE,
	file_path VARCHAR(1024) NOT NULL,
	file_size BIGINT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	uploaded_by BIGINT NOT NULL REFERENCES users(id),
	subject_id BIGINT NOT NULL REFERENCES subjects(id)
);
CREATE INDEX IF NOT EXISTS idx_notes_subject ON notes(subject_id, uploaded_at DESC);
CREATE TABLE IF NOT EXISTS question_papers (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	exam_year INTEGER,
	original_file_name VARCHAR(255) NOT NULL,
	stored_file_name VARCHAR(255) NOT NULL UNIQUE,
	file_path VARCHAR(1024) NOT NULL,
	file_size BIGINT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	uploaded_by BIGINT NOT NULL REFERENCES users(id),
	subject_id BIGINT NOT NULL REFERENCES subjects(id)
);
CREATE INDEX IF NOT EXISTS idx_question_papers_subject ON question_papers(subject_id, uploaded_at DESC);
CREATE TABLE IF NOT EXISTS video_links (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	youtube_url VARCHAR(1024) NOT NULL,
	thumbnail_url VARCHAR(1024) NOT NULL,
	embed_url VARCHAR(1024) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	subject_id BIGINT NOT NULL REFERENCES subjects(id),
	added_by BIGINT NOT NULL REFERENCES users(id),
	added_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_video_links_subject ON video_links(subject_id, added_at DESC);`,
	},
}

// Migrate applies every pending migration, each inside its own transaction.
func Migrate(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	const trackingTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := db.ExecContext(ctx, trackingTable); err != nil {
		return fmt.Errorf("create migration tracking table: %w", err)
	}

	for _, m := range Migrations {
		var applied bool
		if err := db.GetContext(ctx, &applied, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version); err != nil {
			return fmt.Errorf("check migration %s: %w", m.Version, err)
		}
		if applied {
			logger.Debug("migration already applied", zap.String("version", m.Version))
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
		logger.Info("migration applied", zap.String("version", m.Version))
	}
	return nil
}

func apply(ctx context.Context, db *sqlx.DB, m Migration) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.Version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("execute migration %s: %w", m.Version, err)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
		return fmt.Errorf("record migration %s: %w", m.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.Version, err)
	}
	return nil
}
