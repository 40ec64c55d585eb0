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

// VideoRepository handles video link persistence.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository constructs the repository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoViewSelect = `SELECT v.id, v.title, v.youtube_url, v.thumbnail_url, v.embed_url, v.description, v.added_at, v.added_by,
	u.full_name AS added_by_name, v.subject_id, s.name AS subject_name
FROM video_links v
JOIN users u ON u.id = v.added_by
JOIN subjects s ON s.id = v.subject_id`

// Create persists a video link and assigns its id.
func (r *VideoRepository) Create(ctx context.Context, video *models.VideoLink) error {
	if video.AddedAt.IsZero() {
		video.AddedAt = time.Now().UTC()
	}
	const query = `INSERT INTO video_links
	(title, youtube_url, thumbnail_url, embed_url, description, subject_id, added_by, added_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &video.ID, query,
		video.Title, video.YoutubeURL, video.ThumbnailURL, video.EmbedURL,
		video.Description, video.SubjectID, video.AddedBy, video.AddedAt,
	); err != nil {
		return fmt.Errorf("create video link: %w", err)
	}
	return nil
}

// GetView retrieves one video link with names resolved.
func (r *VideoRepository) GetView(ctx context.Context, id int64) (*dto.VideoView, error) {
	var video dto.VideoView
	if err := r.db.GetContext(ctx, &video, videoViewSelect+" WHERE v.id = $1", id); err != nil {
		return nil, err
	}
	return &video, nil
}

// ListBySubject returns a subject's videos, newest first.
func (r *VideoRepository) ListBySubject(ctx context.Context, subjectID int64) ([]dto.VideoView, error) {
	videos := make([]dto.VideoView, 0)
	query := videoViewSelect + " WHERE v.subject_id = $1 ORDER BY v.added_at DESC, v.id DESC"
	if err := r.db.SelectContext(ctx, &videos, query, subjectID); err != nil {
		return nil, fmt.Errorf("list video links: %w", err)
	}
	return videos, nil
}

// Delete removes a video link row.
func (r *VideoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM video_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check video link delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
