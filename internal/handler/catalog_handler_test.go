package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
)

type catalogServiceMock struct {
	semesters []models.Semester
	subjects  []dto.SubjectView
	subject   *dto.SubjectView
	err       error

	lastQuery     string
	lastNumber    int
	lastPrincipal *models.JWTClaims
	created       *dto.SubjectRequest
	deletedID     int64
}

func (m *catalogServiceMock) GetAllSemesters(_ context.Context, principal *models.JWTClaims) ([]models.Semester, error) {
	m.lastPrincipal = principal
	return m.semesters, m.err
}

func (m *catalogServiceMock) GetSemester(_ context.Context, _ *models.JWTClaims, id int64) (*dto.SemesterDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SemesterDetail{Semester: models.Semester{ID: id, Number: 1}, Subjects: m.subjects}, nil
}

func (m *catalogServiceMock) CreateSemester(_ context.Context, _ *models.JWTClaims, req dto.CreateSemesterRequest) (*models.Semester, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Semester{ID: 9, Number: req.Number, Name: req.Name}, nil
}

func (m *catalogServiceMock) DeleteSemester(_ context.Context, _ *models.JWTClaims, id int64) error {
	m.deletedID = id
	return m.err
}

func (m *catalogServiceMock) ListAllSubjects(context.Context, *models.JWTClaims) ([]dto.SubjectView, error) {
	return m.subjects, m.err
}

func (m *catalogServiceMock) ListBySemester(context.Context, *models.JWTClaims, int64) ([]dto.SubjectView, error) {
	return m.subjects, m.err
}

func (m *catalogServiceMock) ListBySemesterNumber(_ context.Context, _ *models.JWTClaims, number int) ([]dto.SubjectView, error) {
	m.lastNumber = number
	return m.subjects, m.err
}

func (m *catalogServiceMock) SearchSubjects(_ context.Context, _ *models.JWTClaims, query string) ([]dto.SubjectView, error) {
	m.lastQuery = query
	return m.subjects, m.err
}

func (m *catalogServiceMock) GetSubject(context.Context, *models.JWTClaims, int64) (*dto.SubjectView, error) {
	return m.subject, m.err
}

func (m *catalogServiceMock) CreateSubject(_ context.Context, _ *models.JWTClaims, req dto.SubjectRequest) (*models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = &req
	return &models.Subject{ID: 11, Name: req.Name, SemesterID: req.SemesterID}, nil
}

func (m *catalogServiceMock) UpdateSubject(_ context.Context, _ *models.JWTClaims, id int64, req dto.SubjectRequest) (*models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Subject{ID: id, Name: req.Name, SemesterID: req.SemesterID}, nil
}

func (m *catalogServiceMock) DeleteSubject(_ context.Context, _ *models.JWTClaims, id int64) error {
	m.deletedID = id
	return m.err
}

type resourceListerMock struct {
	notes  []dto.NoteView
	papers []dto.PaperView
	videos []dto.VideoView
	err    error
}

func (m resourceListerMock) ListNotesBySubject(context.Context, *models.JWTClaims, int64) ([]dto.NoteView, error) {
	return m.notes, m.err
}

func (m resourceListerMock) ListPapersBySubject(context.Context, *models.JWTClaims, int64) ([]dto.PaperView, error) {
	return m.papers, nil
}

func (m resourceListerMock) ListVideosBySubject(context.Context, *models.JWTClaims, int64) ([]dto.VideoView, error) {
	return m.videos, nil
}

func newCatalogTestHandler(catalog *catalogServiceMock, lister resourceListerMock) *CatalogHandler {
	return NewCatalogHandler(catalog, lister)
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestCatalogHandlerListSubjectsReportsTotal(t *testing.T) {
	catalog := &catalogServiceMock{subjects: []dto.SubjectView{
		{ID: 1, Name: "Physics", SemesterNumber: 1, NotesCount: 2},
		{ID: 2, Name: "Calculus", SemesterNumber: 1},
	}}
	h := newCatalogTestHandler(catalog, resourceListerMock{})
	router := newTestRouter()
	router.GET("/subjects", h.ListSubjects)

	req, _ := http.NewRequest(http.MethodGet, "/subjects", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))
	env := decodeEnvelope(t, resp.Body.Bytes())
	assert.Equal(t, float64(2), env.Meta["total"])

	var subjects []dto.SubjectView
	require.NoError(t, json.Unmarshal(env.Data, &subjects))
	require.Len(t, subjects, 2)
	assert.Equal(t, 2, subjects[0].NotesCount)
}

func TestCatalogHandlerListSemestersPassesPrincipal(t *testing.T) {
	catalog := &catalogServiceMock{semesters: []models.Semester{{ID: 1, Number: 1, Name: "Semester 1"}}}
	router := newTestRouter()
	router.GET("/semesters", newCatalogTestHandler(catalog, resourceListerMock{}).ListSemesters)

	req, _ := http.NewRequest(http.MethodGet, "/semesters", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "42")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, catalog.lastPrincipal)
	assert.Equal(t, int64(42), catalog.lastPrincipal.UserID)
}

func TestCatalogHandlerGetSubjectComposesDetail(t *testing.T) {
	catalog := &catalogServiceMock{subject: &dto.SubjectView{ID: 5, Name: "Data Structures", NotesCount: 1, VideosCount: 1}}
	lister := resourceListerMock{
		notes:  []dto.NoteView{{ID: 3, Title: "Trees", SubjectID: 5}},
		videos: []dto.VideoView{{ID: 4, Title: "Heaps", EmbedURL: "https://www.youtube.com/embed/abc"}},
	}
	router := newTestRouter()
	router.GET("/subjects/:id", newCatalogTestHandler(catalog, lister).GetSubject)

	req, _ := http.NewRequest(http.MethodGet, "/subjects/5", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var detail dto.SubjectDetail
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp.Body.Bytes()).Data, &detail))
	assert.Equal(t, "Data Structures", detail.Subject.Name)
	require.Len(t, detail.Notes, 1)
	assert.Equal(t, "Trees", detail.Notes[0].Title)
	assert.Empty(t, detail.Papers)
	require.Len(t, detail.Videos, 1)
}

func TestCatalogHandlerErrors(t *testing.T) {
	catalog := &catalogServiceMock{}
	h := newCatalogTestHandler(catalog, resourceListerMock{})
	router := newTestRouter()
	router.GET("/subjects/:id", h.GetSubject)
	router.GET("/semesters/number/:number/subjects", h.ListSubjectsBySemesterNumber)
	router.DELETE("/admin/subjects/:id", h.DeleteSubject)

	req, _ := http.NewRequest(http.MethodGet, "/subjects/abc", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, resp.Body.Bytes()).Error.Code)

	req, _ = http.NewRequest(http.MethodGet, "/semesters/number/two/subjects", nil)
	resp = performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	catalog.err = appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	req, _ = http.NewRequest(http.MethodGet, "/subjects/77", nil)
	resp = performRequest(router, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "subject not found", decodeEnvelope(t, resp.Body.Bytes()).Error.Message)

	catalog.err = appErrors.ErrForbidden
	req, _ = http.NewRequest(http.MethodDelete, "/admin/subjects/77", nil)
	resp = performRequest(router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, int64(77), catalog.deletedID)
}

func TestCatalogHandlerSemesterNumberAndSearch(t *testing.T) {
	catalog := &catalogServiceMock{}
	h := newCatalogTestHandler(catalog, resourceListerMock{})
	router := newTestRouter()
	router.GET("/semesters/number/:number/subjects", h.ListSubjectsBySemesterNumber)
	router.GET("/subjects/search", h.SearchSubjects)

	req, _ := http.NewRequest(http.MethodGet, "/semesters/number/3/subjects", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 3, catalog.lastNumber)
	assert.Equal(t, float64(0), decodeEnvelope(t, resp.Body.Bytes()).Meta["total"])

	req, _ = http.NewRequest(http.MethodGet, "/subjects/search?q=data%20str", nil)
	resp = performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "data str", catalog.lastQuery)
}

func TestCatalogHandlerCreateSubject(t *testing.T) {
	catalog := &catalogServiceMock{}
	h := newCatalogTestHandler(catalog, resourceListerMock{})
	router := newTestRouter()
	router.POST("/admin/subjects", h.CreateSubject)
	router.POST("/admin/semesters", h.CreateSemester)

	payload, _ := json.Marshal(dto.SubjectRequest{Name: "Operating Systems", Code: "CS301", SemesterID: 3})
	req, _ := http.NewRequest(http.MethodPost, "/admin/subjects", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, catalog.created)
	assert.Equal(t, "CS301", catalog.created.Code)

	req, _ = http.NewRequest(http.MethodPost, "/admin/subjects", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp = performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	catalog.err = appErrors.Clone(appErrors.ErrConflict, "semester 2 already exists")
	req, _ = http.NewRequest(http.MethodPost, "/admin/semesters", bytes.NewBufferString(`{"number":2}`))
	req.Header.Set("Content-Type", "application/json")
	resp = performRequest(router, req)
	require.Equal(t, http.StatusConflict, resp.Code)
}
