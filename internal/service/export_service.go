package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
	"github.com/noah-isme/campus-studyhub-api/pkg/export"
)

// Supported catalog export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type subjectRowSource interface {
	ExportRows(ctx context.Context) ([]dto.SubjectView, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// ExportResult is a rendered catalog report.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the subject catalog as CSV or PDF.
type ExportService struct {
	source    subjectRowSource
	renderers map[string]datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the package defaults.
func NewExportService(source subjectRowSource, logger *zap.Logger, csv datasetRenderer, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		source:    source,
		renderers: map[string]datasetRenderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:    logger,
		now:       time.Now,
	}
}

var subjectExportHeaders = []string{"ID", "Semester", "Code", "Name", "Notes", "Papers", "Videos"}

// ExportSubjects renders every subject with its semester and live resource counts.
func (s *ExportService) ExportSubjects(ctx context.Context, principal *models.JWTClaims, format string) (*ExportResult, error) {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	subjects, err := s.source.ExportRows(ctx)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Title: "Subject Catalog", Headers: subjectExportHeaders}
	for _, subject := range subjects {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":       strconv.FormatInt(subject.ID, 10),
			"Semester": strconv.Itoa(subject.SemesterNumber),
			"Code":     subject.Code,
			"Name":     subject.Name,
			"Notes":    strconv.Itoa(subject.NotesCount),
			"Papers":   strconv.Itoa(subject.PapersCount),
			"Videos":   strconv.Itoa(subject.VideosCount),
		})
	}

	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Info("catalog exported", zap.String("format", format), zap.Int("subjects", len(subjects)))
	return &ExportResult{
		Filename:    fmt.Sprintf("subjects-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
