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

func TestSemesterRepositoryListOrdersByNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, name FROM semesters ORDER BY number ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "name"}).
			AddRow(int64(1), 1, "Semester 1").
			AddRow(int64(2), 2, "Semester 2"))

	semesters, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, semesters, 2)
	assert.Equal(t, 2, semesters[1].Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO semesters (number, name) VALUES ($1, $2) RETURNING id")).
		WithArgs(3, "Semester 3").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	semester := &models.Semester{Number: 3, Name: "Semester 3"}
	require.NoError(t, repo.Create(context.Background(), semester))
	assert.Equal(t, int64(7), semester.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM semesters")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, count)
}

func TestSemesterRepositoryDeleteCascadeRemovesOwnedRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notes WHERE subject_id IN").WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM question_papers WHERE subject_id IN").WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM video_links WHERE subject_id IN").WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE semester_id = $1")).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM semesters WHERE id = $1")).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryDeleteCascadeMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectBegin()
	for i := 0; i < 4; i++ {
		mock.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM semesters WHERE id = $1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), 99)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSemesterRepositoryDeleteCascadeFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSemesterRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notes").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete semester notes")
	assert.NoError(t, mock.ExpectationsWereMet())
}
