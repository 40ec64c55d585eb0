package models

import "fmt"

const (
	MinSemesterNumber = 1
	MaxSemesterNumber = 8
)

// Semester groups subjects; its number is unique across the catalog.
type Semester struct {
	ID     int64  `db:"id" json:"id"`
	Number int    `db:"number" json:"number"`
	Name   string `db:"name" json:"name"`
}

// DefaultSemesterName is used when a semester is created without an explicit name.
func DefaultSemesterName(number int) string {
	return fmt.Sprintf("Semester %d", number)
}
