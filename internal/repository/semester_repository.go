package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-studyhub-api/internal/models"
)

// SemesterRepository handles persistence for semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository creates a new repository instance.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns every semester ordered by number.
func (r *SemesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	const query = `SELECT id, number, name FROM semesters ORDER BY number ASC`
	semesters := make([]models.Semester, 0, models.MaxSemesterNumber)
	if err := r.db.SelectContext(ctx, &semesters, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// FindByID returns a semester by id.
func (r *SemesterRepository) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	const query = `SELECT id, number, name FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// FindByNumber returns the semester holding the given number.
func (r *SemesterRepository) FindByNumber(ctx context.Context, number int) (*models.Semester, error) {
	const query = `SELECT id, number, name FROM semesters WHERE number = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, number); err != nil {
		return nil, err
	}
	return &semester, nil
}

// Count returns the number of semesters.
func (r *SemesterRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM semesters`); err != nil {
		return 0, fmt.Errorf("count semesters: %w", err)
	}
	return count, nil
}

// Create persists a semester and assigns its id.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	const query = `INSERT INTO semesters (number, name) VALUES ($1, $2) RETURNING id`
	if err := r.db.GetContext(ctx, &semester.ID, query, semester.Number, semester.Name); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// DeleteCascade removes a semester together with all subjects and resource rows it owns.
// Files are not touched here.
func (r *SemesterRepository) DeleteCascade(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin semester delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const owned = `SELECT id FROM subjects WHERE semester_id = $1`
	for _, stmt := range []struct {
		label string
		query string
	}{
		{"notes", `DELETE FROM notes WHERE subject_id IN (` + owned + `)`},
		{"question papers", `DELETE FROM question_papers WHERE subject_id IN (` + owned + `)`},
		{"video links", `DELETE FROM video_links WHERE subject_id IN (` + owned + `)`},
		{"subjects", `DELETE FROM subjects WHERE semester_id = $1`},
	} {
		if _, err = tx.ExecContext(ctx, stmt.query, id); err != nil {
			return fmt.Errorf("delete semester %s: %w", stmt.label, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM semesters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete semester: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check semester delete rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit semester delete: %w", err)
	}
	return nil
}
