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

// NoteRepository handles note metadata persistence.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs the repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteViewSelect = `SELECT n.id, n.title, n.original_file_name, n.file_size, n.uploaded_at, n.uploaded_by,
	u.full_name AS uploaded_by_name, n.subject_id, s.name AS subject_name
FROM notes n
JOIN users u ON u.id = n.uploaded_by
JOIN subjects s ON s.id = n.subject_id`

// Create stores metadata for an uploaded note file and assigns its id.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.UploadedAt.IsZero() {
		note.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notes
	(title, original_file_name, stored_file_name, file_path, file_size, uploaded_at, uploaded_by, subject_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &note.ID, query,
		note.Title, note.OriginalFileName, note.StoredFileName, note.FilePath,
		note.FileSize, note.UploadedAt, note.UploadedBy, note.SubjectID,
	); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// FindByID retrieves one note row.
func (r *NoteRepository) FindByID(ctx context.Context, id int64) (*models.Note, error) {
	const query = `SELECT id, title, original_file_name, stored_file_name, file_path, file_size, uploaded_at, uploaded_by, subject_id
	FROM notes WHERE id = $1`
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// GetView retrieves one note with uploader and subject names.
func (r *NoteRepository) GetView(ctx context.Context, id int64) (*dto.NoteView, error) {
	var note dto.NoteView
	if err := r.db.GetContext(ctx, &note, noteViewSelect+" WHERE n.id = $1", id); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListBySubject returns a subject's notes, newest first.
func (r *NoteRepository) ListBySubject(ctx context.Context, subjectID int64) ([]dto.NoteView, error) {
	notes := make([]dto.NoteView, 0)
	query := noteViewSelect + " WHERE n.subject_id = $1 ORDER BY n.uploaded_at DESC, n.id DESC"
	if err := r.db.SelectContext(ctx, &notes, query, subjectID); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// ListFilesBySubject returns the stored file names of a subject's notes.
func (r *NoteRepository) ListFilesBySubject(ctx context.Context, subjectID int64) ([]models.StoredFile, error) {
	files := make([]models.StoredFile, 0)
	if err := r.db.SelectContext(ctx, &files, `SELECT id, stored_file_name FROM notes WHERE subject_id = $1`, subjectID); err != nil {
		return nil, fmt.Errorf("list note files: %w", err)
	}
	return files, nil
}

// Delete removes a note row.
func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check note delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
