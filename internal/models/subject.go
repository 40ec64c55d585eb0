package models

// Subject is a course offered in exactly one semester.
type Subject struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
	SemesterID  int64  `db:"semester_id" json:"semester_id"`
}
