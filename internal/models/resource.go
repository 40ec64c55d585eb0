package models

import "time"

// Note is an uploaded lecture note backed by a PDF under notes/.
type Note struct {
	ID               int64     `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	OriginalFileName string    `db:"original_file_name" json:"original_file_name"`
	StoredFileName   string    `db:"stored_file_name" json:"-"`
	FilePath         string    `db:"file_path" json:"-"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploaded_at"`
	UploadedBy       int64     `db:"uploaded_by" json:"uploaded_by"`
	SubjectID        int64     `db:"subject_id" json:"subject_id"`
}

// QuestionPaper is an uploaded exam paper backed by a PDF under papers/.
type QuestionPaper struct {
	ID               int64     `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	ExamYear         *int      `db:"exam_year" json:"exam_year,omitempty"`
	OriginalFileName string    `db:"original_file_name" json:"original_file_name"`
	StoredFileName   string    `db:"stored_file_name" json:"-"`
	FilePath         string    `db:"file_path" json:"-"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploaded_at"`
	UploadedBy       int64     `db:"uploaded_by" json:"uploaded_by"`
	SubjectID        int64     `db:"subject_id" json:"subject_id"`
}

// VideoLink is a curated YouTube link; thumbnail and embed URLs are derived once on creation.
type VideoLink struct {
	ID           int64     `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	YoutubeURL   string    `db:"youtube_url" json:"youtube_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	EmbedURL     string    `db:"embed_url" json:"embed_url"`
	Description  string    `db:"description" json:"description"`
	SubjectID    int64     `db:"subject_id" json:"subject_id"`
	AddedBy      int64     `db:"added_by" json:"added_by"`
	AddedAt      time.Time `db:"added_at" json:"added_at"`
}

// StoredFile is the minimal file reference needed to remove a resource's binary.
type StoredFile struct {
	ID             int64  `db:"id"`
	StoredFileName string `db:"stored_file_name"`
}
