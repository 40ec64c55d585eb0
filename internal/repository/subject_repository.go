package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
)

// SubjectFilter narrows subject listings. Zero values mean "no constraint".
type SubjectFilter struct {
	SemesterID     int64
	SemesterNumber int
	Search         string
}

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// Counts are computed on every read so they always reflect current rows.
const subjectViewSelect = `SELECT s.id, s.name, s.code, s.description, s.semester_id, sem.number AS semester_number,
	(SELECT COUNT(*) FROM notes n WHERE n.subject_id = s.id) AS notes_count,
	(SELECT COUNT(*) FROM question_papers p WHERE p.subject_id = s.id) AS papers_count,
	(SELECT COUNT(*) FROM video_links v WHERE v.subject_id = s.id) AS videos_count
FROM subjects s
JOIN semesters sem ON sem.id = s.semester_id`

// ListViews returns subjects with counts in insertion order.
func (r *SubjectRepository) ListViews(ctx context.Context, filter SubjectFilter) ([]dto.SubjectView, error) {
	var conditions []string
	var args []interface{}

	if filter.SemesterID > 0 {
		args = append(args, filter.SemesterID)
		conditions = append(conditions, fmt.Sprintf("s.semester_id = $%d", len(args)))
	}
	if filter.SemesterNumber > 0 {
		args = append(args, filter.SemesterNumber)
		conditions = append(conditions, fmt.Sprintf("sem.number = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(s.name) LIKE $%d ESCAPE '\\'", len(args)))
	}

	query := subjectViewSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.id ASC"

	subjects := make([]dto.SubjectView, 0)
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// GetView returns one subject with counts.
func (r *SubjectRepository) GetView(ctx context.Context, id int64) (*dto.SubjectView, error) {
	var subject dto.SubjectView
	if err := r.db.GetContext(ctx, &subject, subjectViewSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	const query = `SELECT id, name, code, description, semester_id FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListIDsBySemester returns the ids of subjects owned by a semester.
func (r *SubjectRepository) ListIDsBySemester(ctx context.Context, semesterID int64) ([]int64, error) {
	ids := make([]int64, 0)
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM subjects WHERE semester_id = $1 ORDER BY id`, semesterID); err != nil {
		return nil, fmt.Errorf("list semester subjects: %w", err)
	}
	return ids, nil
}

// Create persists a new subject and assigns its id.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	const query = `INSERT INTO subjects (name, code, description, semester_id) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &subject.ID, query, subject.Name, subject.Code, subject.Description, subject.SemesterID); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject, including re-parenting it to another semester.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	const query = `UPDATE subjects SET name = :name, code = :code, description = :description, semester_id = :semester_id WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, subject)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check subject update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCascade removes a subject and every note, paper and video row it owns in one transaction.
// Files are not touched here.
func (r *SubjectRepository) DeleteCascade(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subject delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"notes", "question_papers", "video_links"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE subject_id = $1", id); err != nil {
			return fmt.Errorf("delete subject %s: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check subject delete rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit subject delete: %w", err)
	}
	return nil
}

func escapeLike(raw string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(raw)
}
