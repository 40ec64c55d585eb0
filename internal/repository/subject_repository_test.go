package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-studyhub-api/internal/models"
)

var subjectViewColumns = []string{"id", "name", "code", "description", "semester_id", "semester_number", "notes_count", "papers_count", "videos_count"}

func TestSubjectRepositoryListViewsBySemesterNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE sem.number = $1 ORDER BY s.id ASC")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(subjectViewColumns).
			AddRow(int64(5), "Data Structures", "CS201", "Arrays", int64(2), 2, 3, 1, 0))

	subjects, err := repo.ListViews(context.Background(), SubjectFilter{SemesterNumber: 2})
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, 3, subjects[0].NotesCount)
	assert.Equal(t, 2, subjects[0].SemesterNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListViewsSearchIsCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(s.name) LIKE $1")).
		WithArgs("%data\\_base%").
		WillReturnRows(sqlmock.NewRows(subjectViewColumns))

	subjects, err := repo.ListViews(context.Background(), SubjectFilter{Search: "DATA_Base"})
	require.NoError(t, err)
	assert.Empty(t, subjects)
	assert.NotNil(t, subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreateAndUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subjects")).
		WithArgs("Operating Systems", "CS302", "Processes", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	subject := &models.Subject{Name: "Operating Systems", Code: "CS302", Description: "Processes", SemesterID: 3}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.Equal(t, int64(11), subject.ID)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	subject.SemesterID = 4
	err := repo.Update(context.Background(), subject)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryDeleteCascade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE subject_id = $1")).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM question_papers WHERE subject_id = $1")).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM video_links WHERE subject_id = $1")).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id = $1")).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 1)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
