package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-studyhub-api/internal/models"
	"github.com/noah-isme/campus-studyhub-api/internal/service"
	"github.com/noah-isme/campus-studyhub-api/pkg/response"
)

type exportService interface {
	ExportSubjects(ctx context.Context, principal *models.JWTClaims, format string) (*service.ExportResult, error)
}

// ExportHandler serves catalog reports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ExportSubjects godoc
// @Summary Export subject catalog
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/exports/subjects [get]
func (h *ExportHandler) ExportSubjects(c *gin.Context) {
	result, err := h.service.ExportSubjects(c.Request.Context(), claimsFromContext(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
