package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/middleware"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
	"github.com/noah-isme/campus-studyhub-api/pkg/response"
)

type catalogService interface {
	GetAllSemesters(ctx context.Context, principal *models.JWTClaims) ([]models.Semester, error)
	GetSemester(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.SemesterDetail, error)
	CreateSemester(ctx context.Context, principal *models.JWTClaims, req dto.CreateSemesterRequest) (*models.Semester, error)
	DeleteSemester(ctx context.Context, principal *models.JWTClaims, id int64) error
	ListAllSubjects(ctx context.Context, principal *models.JWTClaims) ([]dto.SubjectView, error)
	ListBySemester(ctx context.Context, principal *models.JWTClaims, semesterID int64) ([]dto.SubjectView, error)
	ListBySemesterNumber(ctx context.Context, principal *models.JWTClaims, number int) ([]dto.SubjectView, error)
	SearchSubjects(ctx context.Context, principal *models.JWTClaims, query string) ([]dto.SubjectView, error)
	GetSubject(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.SubjectView, error)
	CreateSubject(ctx context.Context, principal *models.JWTClaims, req dto.SubjectRequest) (*models.Subject, error)
	UpdateSubject(ctx context.Context, principal *models.JWTClaims, id int64, req dto.SubjectRequest) (*models.Subject, error)
	DeleteSubject(ctx context.Context, principal *models.JWTClaims, id int64) error
}

type subjectResourceLister interface {
	ListNotesBySubject(ctx context.Context, principal *models.JWTClaims, subjectID int64) ([]dto.NoteView, error)
	ListPapersBySubject(ctx context.Context, principal *models.JWTClaims, subjectID int64) ([]dto.PaperView, error)
	ListVideosBySubject(ctx context.Context, principal *models.JWTClaims, subjectID int64) ([]dto.VideoView, error)
}

// CatalogHandler serves semester and subject endpoints.
type CatalogHandler struct {
	catalog   catalogService
	resources subjectResourceLister
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog catalogService, resources subjectResourceLister) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, resources: resources}
}

// ListSemesters godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *CatalogHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.catalog.GetAllSemesters(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters)
}

// GetSemester godoc
// @Summary Get semester with its subjects
// @Tags Semesters
// @Produce json
// @Param id path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *CatalogHandler) GetSemester(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	semester, err := h.catalog.GetSemester(c.Request.Context(), claimsFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester)
}

// ListSemesterSubjects godoc
// @Summary List subjects of a semester
// @Tags Semesters
// @Produce json
// @Param id path int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{id}/subjects [get]
func (h *CatalogHandler) ListSemesterSubjects(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, err := h.catalog.ListBySemester(c.Request.Context(), claimsFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSubjects(c, subjects)
}

// ListSubjectsBySemesterNumber godoc
// @Summary List subjects of the semester with the given number
// @Tags Semesters
// @Produce json
// @Param number path int true "Semester number (1-8)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /semesters/number/{number}/subjects [get]
func (h *CatalogHandler) ListSubjectsBySemesterNumber(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid semester number"))
		return
	}
	subjects, err := h.catalog.ListBySemesterNumber(c.Request.Context(), claimsFromContext(c), number)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSubjects(c, subjects)
}

// CreateSemester godoc
// @Summary Create semester
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/semesters [post]
func (h *CatalogHandler) CreateSemester(c *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid semester payload"))
		return
	}
	semester, err := h.catalog.CreateSemester(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// DeleteSemester godoc
// @Summary Delete semester with all subjects and resources
// @Tags Admin
// @Param id path int true "Semester ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/semesters/{id} [delete]
func (h *CatalogHandler) DeleteSemester(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.catalog.DeleteSemester(c.Request.Context(), claimsFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubjects godoc
// @Summary List all subjects with resource counts
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.catalog.ListAllSubjects(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSubjects(c, subjects)
}

// SearchSubjects godoc
// @Summary Search subjects by name
// @Tags Subjects
// @Produce json
// @Param q query string true "Case-insensitive name fragment"
// @Success 200 {object} response.Envelope
// @Router /subjects/search [get]
func (h *CatalogHandler) SearchSubjects(c *gin.Context) {
	subjects, err := h.catalog.SearchSubjects(c.Request.Context(), claimsFromContext(c), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondSubjects(c, subjects)
}

// GetSubject godoc
// @Summary Get subject with notes, papers and videos
// @Tags Subjects
// @Produce json
// @Param id path int true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *CatalogHandler) GetSubject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	ctx := c.Request.Context()
	claims := claimsFromContext(c)

	subject, err := h.catalog.GetSubject(ctx, claims, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	notes, err := h.resources.ListNotesBySubject(ctx, claims, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	papers, err := h.resources.ListPapersBySubject(ctx, claims, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	videos, err := h.resources.ListVideosBySubject(ctx, claims, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SubjectDetail{Subject: *subject, Notes: notes, Papers: papers, Videos: videos})
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.SubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req dto.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}
	subject, err := h.catalog.CreateSubject(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// UpdateSubject godoc
// @Summary Update subject
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Subject ID"
// @Param payload body dto.SubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/subjects/{id} [put]
func (h *CatalogHandler) UpdateSubject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject payload"))
		return
	}
	subject, err := h.catalog.UpdateSubject(c.Request.Context(), claimsFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject)
}

// DeleteSubject godoc
// @Summary Delete subject with its resources and files
// @Tags Admin
// @Param id path int true "Subject ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/subjects/{id} [delete]
func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.catalog.DeleteSubject(c.Request.Context(), claimsFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CatalogHandler) respondSubjects(c *gin.Context, subjects []dto.SubjectView) {
	middleware.SetMeta(c, "total", len(subjects))
	response.JSON(c, http.StatusOK, subjects, middleware.ExtractMeta(c))
}
