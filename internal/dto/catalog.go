package dto

import "github.com/noah-isme/campus-studyhub-api/internal/models"

// CreateSemesterRequest adds a semester; an empty name becomes "Semester <number>".
type CreateSemesterRequest struct {
	Number int    `json:"number" validate:"required,min=1,max=8"`
	Name   string `json:"name" validate:"omitempty,max=100"`
}

// SubjectRequest is shared by subject create and update.
type SubjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Code        string `json:"code" validate:"max=50"`
	Description string `json:"description" validate:"max=500"`
	SemesterID  int64  `json:"semesterId" validate:"required,gt=0"`
}

// SubjectView is a subject with its semester number and live resource counts.
type SubjectView struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Code           string `db:"code" json:"code"`
	Description    string `db:"description" json:"description"`
	SemesterID     int64  `db:"semester_id" json:"semesterId"`
	SemesterNumber int    `db:"semester_number" json:"semesterNumber"`
	NotesCount     int    `db:"notes_count" json:"notesCount"`
	PapersCount    int    `db:"papers_count" json:"papersCount"`
	VideosCount    int    `db:"videos_count" json:"videosCount"`
}

// SubjectDetail is the subject page: the subject plus its resources, newest first.
type SubjectDetail struct {
	Subject SubjectView `json:"subject"`
	Notes   []NoteView  `json:"notes"`
	Papers  []PaperView `json:"papers"`
	Videos  []VideoView `json:"videos"`
}

// SemesterDetail is a semester with the subjects it owns.
type SemesterDetail struct {
	Semester models.Semester `json:"semester"`
	Subjects []SubjectView   `json:"subjects"`
}
