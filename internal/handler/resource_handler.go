package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	"github.com/noah-isme/campus-studyhub-api/internal/service"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
	"github.com/noah-isme/campus-studyhub-api/pkg/response"
	"github.com/noah-isme/campus-studyhub-api/pkg/storage"
)

type resourceService interface {
	UploadNote(ctx context.Context, principal *models.JWTClaims, req dto.UploadNoteRequest, upload storage.Upload) (*dto.NoteView, error)
	UploadPaper(ctx context.Context, principal *models.JWTClaims, req dto.UploadPaperRequest, upload storage.Upload) (*dto.PaperView, error)
	DeleteNote(ctx context.Context, principal *models.JWTClaims, id int64) error
	DeletePaper(ctx context.Context, principal *models.JWTClaims, id int64) error
	GetNote(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.NoteView, error)
	GetPaper(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.PaperView, error)
	GetVideo(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.VideoView, error)
	AddVideoLink(ctx context.Context, principal *models.JWTClaims, req dto.AddVideoRequest) (*dto.VideoView, error)
	DeleteVideo(ctx context.Context, principal *models.JWTClaims, id int64) error
	DownloadNoteFile(ctx context.Context, principal *models.JWTClaims, id int64) (*service.FileDownload, error)
	DownloadPaperFile(ctx context.Context, principal *models.JWTClaims, id int64) (*service.FileDownload, error)
	IssueDownloadURL(ctx context.Context, principal *models.JWTClaims, kind storage.Kind, id int64) (*dto.DownloadLink, error)
	DownloadWithToken(ctx context.Context, kind storage.Kind, id int64, token string) (*service.FileDownload, error)
}

// multipartOverhead covers form fields and part headers sent alongside the file.
const multipartOverhead int64 = 1 << 20

// ResourceHandler serves note, paper, video and file endpoints.
type ResourceHandler struct {
	service      resourceService
	maxFileSize  int64
	maxBodyBytes int64
}

// NewResourceHandler constructs the handler. Upload bodies are capped at maxFileSize plus
// multipart overhead; a non-positive limit falls back to the file store default.
func NewResourceHandler(service resourceService, maxFileSize int64) *ResourceHandler {
	if maxFileSize <= 0 {
		maxFileSize = storage.DefaultMaxFileSize
	}
	return &ResourceHandler{service: service, maxFileSize: maxFileSize, maxBodyBytes: maxFileSize + multipartOverhead}
}

// UploadNote godoc
// @Summary Upload lecture note (PDF)
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param subjectId formData int true "Subject ID"
// @Param file formData file true "PDF document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /admin/notes [post]
func (h *ResourceHandler) UploadNote(c *gin.Context) {
	if !h.limitBody(c) {
		return
	}
	var req dto.UploadNoteRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, h.bindError(err, "invalid note payload"))
		return
	}
	upload, closeFn, err := uploadFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	note, err := h.service.UploadNote(c.Request.Context(), claimsFromContext(c), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// UploadPaper godoc
// @Summary Upload question paper (PDF)
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param subjectId formData int true "Subject ID"
// @Param year formData int false "Exam year"
// @Param file formData file true "PDF document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /admin/papers [post]
func (h *ResourceHandler) UploadPaper(c *gin.Context) {
	if !h.limitBody(c) {
		return
	}
	var req dto.UploadPaperRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, h.bindError(err, "invalid question paper payload"))
		return
	}
	if req.Year != nil && *req.Year == 0 {
		req.Year = nil
	}
	upload, closeFn, err := uploadFromRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFn()

	paper, err := h.service.UploadPaper(c.Request.Context(), claimsFromContext(c), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, paper)
}

// DeleteNote godoc
// @Summary Delete note and its file
// @Tags Admin
// @Param id path int true "Note ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/notes/{id} [delete]
func (h *ResourceHandler) DeleteNote(c *gin.Context) {
	h.delete(c, h.service.DeleteNote)
}

// DeletePaper godoc
// @Summary Delete question paper and its file
// @Tags Admin
// @Param id path int true "Question paper ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/papers/{id} [delete]
func (h *ResourceHandler) DeletePaper(c *gin.Context) {
	h.delete(c, h.service.DeletePaper)
}

// DeleteVideo godoc
// @Summary Delete video link
// @Tags Admin
// @Param id path int true "Video ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/videos/{id} [delete]
func (h *ResourceHandler) DeleteVideo(c *gin.Context) {
	h.delete(c, h.service.DeleteVideo)
}

// AddVideo godoc
// @Summary Add YouTube video link
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.AddVideoRequest true "Video payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/videos [post]
func (h *ResourceHandler) AddVideo(c *gin.Context) {
	var req dto.AddVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid video payload"))
		return
	}
	video, err := h.service.AddVideoLink(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, video)
}

// GetNote godoc
// @Summary Get note metadata
// @Tags Resources
// @Produce json
// @Param id path int true "Note ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notes/{id} [get]
func (h *ResourceHandler) GetNote(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	note, err := h.service.GetNote(c.Request.Context(), claimsFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note)
}

// GetPaper godoc
// @Summary Get question paper metadata
// @Tags Resources
// @Produce json
// @Param id path int true "Question paper ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /papers/{id} [get]
func (h *ResourceHandler) GetPaper(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	paper, err := h.service.GetPaper(c.Request.Context(), claimsFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper)
}

// GetVideo godoc
// @Summary Get video link
// @Tags Resources
// @Produce json
// @Param id path int true "Video ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /videos/{id} [get]
func (h *ResourceHandler) GetVideo(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	video, err := h.service.GetVideo(c.Request.Context(), claimsFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, video)
}

// DownloadLink godoc
// @Summary Issue a signed download link
// @Tags Files
// @Produce json
// @Param kind path string true "notes or papers"
// @Param id path int true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{kind}/{id}/link [get]
func (h *ResourceHandler) DownloadLink(c *gin.Context) {
	kind, id, err := fileParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.service.IssueDownloadURL(c.Request.Context(), claimsFromContext(c), kind, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// Download godoc
// @Summary Download a note or paper PDF
// @Description Requires a bearer token or a signed token query parameter.
// @Tags Files
// @Produce application/pdf
// @Param kind path string true "notes or papers"
// @Param id path int true "Resource ID"
// @Param token query string false "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{kind}/{id}/download [get]
func (h *ResourceHandler) Download(c *gin.Context) {
	kind, id, err := fileParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var result *service.FileDownload
	if token := strings.TrimSpace(c.Query("token")); token != "" {
		result, err = h.service.DownloadWithToken(c.Request.Context(), kind, id, token)
	} else if kind == storage.KindNotes {
		result, err = h.service.DownloadNoteFile(c.Request.Context(), claimsFromContext(c), id)
	} else {
		result, err = h.service.DownloadPaperFile(c.Request.Context(), claimsFromContext(c), id)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.Content.Close() //nolint:errcheck

	response.Attachment(c, result.Filename, result.MimeType, result.Size, result.Content)
}

func (h *ResourceHandler) delete(c *gin.Context, fn func(context.Context, *models.JWTClaims, int64) error) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := fn(c.Request.Context(), claimsFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// limitBody refuses bodies whose declared length is over the cap and bounds the rest, so an
// oversized upload is cut off before gin spools it to disk.
func (h *ResourceHandler) limitBody(c *gin.Context) bool {
	if c.Request.ContentLength > h.maxBodyBytes {
		response.Error(c, h.tooLarge(nil))
		return false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	return true
}

func (h *ResourceHandler) bindError(err error, message string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return h.tooLarge(err)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

func (h *ResourceHandler) tooLarge(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("file size exceeds maximum allowed size of %d MB", h.maxFileSize/(1024*1024)))
}

// uploadFromRequest reads the "file" form part. A missing part yields an empty upload so
// that the store reports the same validation error as an empty file.
func uploadFromRequest(c *gin.Context) (storage.Upload, func(), error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return storage.Upload{}, func() {}, nil
	}
	src, err := fileHeader.Open()
	if err != nil {
		return storage.Upload{}, nil, appErrors.IO(err, "failed to read uploaded file")
	}
	return storage.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     src,
	}, func() { _ = src.Close() }, nil
}

func fileParams(c *gin.Context) (storage.Kind, int64, error) {
	kind := storage.Kind(c.Param("kind"))
	if !kind.Valid() {
		return "", 0, appErrors.Clone(appErrors.ErrNotFound, "unknown file kind")
	}
	id, err := idParam(c, "id")
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}
