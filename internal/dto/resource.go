package dto

import "time"

// UploadNoteRequest carries the multipart form fields of a note upload.
type UploadNoteRequest struct {
	Title     string `form:"title" validate:"required,max=255"`
	SubjectID int64  `form:"subjectId" validate:"required,gt=0"`
}

// UploadPaperRequest carries the multipart form fields of a question paper upload.
type UploadPaperRequest struct {
	Title     string `form:"title" validate:"required,max=255"`
	SubjectID int64  `form:"subjectId" validate:"required,gt=0"`
	Year      *int   `form:"year" validate:"omitempty,min=1900,max=2100"`
}

// AddVideoRequest registers a YouTube link under a subject.
type AddVideoRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	YoutubeURL  string `json:"youtubeUrl" validate:"required,url"`
	SubjectID   int64  `json:"subjectId" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=1000"`
}

// NoteView is a note with uploader and subject names resolved.
type NoteView struct {
	ID               int64     `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	OriginalFileName string    `db:"original_file_name" json:"originalFileName"`
	FileSize         int64     `db:"file_size" json:"fileSize"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploadedAt"`
	UploadedBy       int64     `db:"uploaded_by" json:"uploadedBy"`
	UploadedByName   string    `db:"uploaded_by_name" json:"uploadedByName"`
	SubjectID        int64     `db:"subject_id" json:"subjectId"`
	SubjectName      string    `db:"subject_name" json:"subjectName"`
}

// PaperView is a question paper with uploader and subject names resolved.
type PaperView struct {
	ID               int64     `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	ExamYear         *int      `db:"exam_year" json:"examYear,omitempty"`
	OriginalFileName string    `db:"original_file_name" json:"originalFileName"`
	FileSize         int64     `db:"file_size" json:"fileSize"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploadedAt"`
	UploadedBy       int64     `db:"uploaded_by" json:"uploadedBy"`
	UploadedByName   string    `db:"uploaded_by_name" json:"uploadedByName"`
	SubjectID        int64     `db:"subject_id" json:"subjectId"`
	SubjectName      string    `db:"subject_name" json:"subjectName"`
}

// VideoView is a video link with the adding user and subject names resolved.
type VideoView struct {
	ID           int64     `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	YoutubeURL   string    `db:"youtube_url" json:"youtubeUrl"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnailUrl"`
	EmbedURL     string    `db:"embed_url" json:"embedUrl"`
	Description  string    `db:"description" json:"description"`
	AddedAt      time.Time `db:"added_at" json:"addedAt"`
	AddedBy      int64     `db:"added_by" json:"addedBy"`
	AddedByName  string    `db:"added_by_name" json:"addedByName"`
	SubjectID    int64     `db:"subject_id" json:"subjectId"`
	SubjectName  string    `db:"subject_name" json:"subjectName"`
}

// DownloadLink is a signed, expiring URL for a note or paper file.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
