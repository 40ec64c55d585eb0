package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
)

// PaperRepository handles question paper metadata persistence.
type PaperRepository struct {
	db *sqlx.DB
}

// NewPaperRepository constructs the repository.
func NewPaperRepository(db *sqlx.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

const paperViewSelect = `SELECT p.id, p.title, p.exam_year, p.original_file_name, p.file_size, p.uploaded_at, p.uploaded_by,
	u.full_name AS uploaded_by_name, p.subject_id, s.name AS subject_name
FROM question_papers p
JOIN users u ON u.id = p.uploaded_by
JOIN subjects s ON s.id = p.subject_id`

// Create stores metadata for an uploaded paper and assigns its id.
func (r *PaperRepository) Create(ctx context.Context, paper *models.QuestionPaper) error {
	if paper.UploadedAt.IsZero() {
		paper.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO question_papers
	(title, exam_year, original_file_name, stored_file_name, file_path, file_size, uploaded_at, uploaded_by, subject_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.GetContext(ctx, &paper.ID, query,
		paper.Title, paper.ExamYear, paper.OriginalFileName, paper.StoredFileName, paper.FilePath,
		paper.FileSize, paper.UploadedAt, paper.UploadedBy, paper.SubjectID,
	); err != nil {
		return fmt.Errorf("create question paper: %w", err)
	}
	return nil
}

// FindByID retrieves one paper row.
func (r *PaperRepository) FindByID(ctx context.Context, id int64) (*models.QuestionPaper, error) {
	const query = `SELECT id, title, exam_year, original_file_name, stored_file_name, file_path, file_size, uploaded_at, uploaded_by, subject_id
	FROM question_papers WHERE id = $1`
	var paper models.QuestionPaper
	if err := r.db.GetContext(ctx, &paper, query, id); err != nil {
		return nil, err
	}
	return &paper, nil
}

// GetView retrieves one paper with uploader and subject names.
func (r *PaperRepository) GetView(ctx context.Context, id int64) (*dto.PaperView, error) {
	var paper dto.PaperView
	if err := r.db.GetContext(ctx, &paper, paperViewSelect+" WHERE p.id = $1", id); err != nil {
		return nil, err
	}
	return &paper, nil
}

// ListBySubject returns a subject's papers, newest upload first.
func (r *PaperRepository) ListBySubject(ctx context.Context, subjectID int64) ([]dto.PaperView, error) {
	papers := make([]dto.PaperView, 0)
	query := paperViewSelect + " WHERE p.subject_id = $1 ORDER BY p.uploaded_at DESC, p.id DESC"
	if err := r.db.SelectContext(ctx, &papers, query, subjectID); err != nil {
		return nil, fmt.Errorf("list question papers: %w", err)
	}
	return papers, nil
}

// ListFilesBySubject returns the stored file names of a subject's papers.
func (r *PaperRepository) ListFilesBySubject(ctx context.Context, subjectID int64) ([]models.StoredFile, error) {
	files := make([]models.StoredFile, 0)
	if err := r.db.SelectContext(ctx, &files, `SELECT id, stored_file_name FROM question_papers WHERE subject_id = $1`, subjectID); err != nil {
		return nil, fmt.Errorf("list question paper files: %w", err)
	}
	return files, nil
}

// Delete removes a paper row.
func (r *PaperRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM question_papers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question paper: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check question paper delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
