package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	"github.com/noah-isme/campus-studyhub-api/internal/repository"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
	"github.com/noah-isme/campus-studyhub-api/pkg/storage"
)

const semesterCacheKey = "studyhub:semesters:all"

type semesterRepository interface {
	List(ctx context.Context) ([]models.Semester, error)
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
	FindByNumber(ctx context.Context, number int) (*models.Semester, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, semester *models.Semester) error
	DeleteCascade(ctx context.Context, id int64) error
}

type subjectRepository interface {
	ListViews(ctx context.Context, filter repository.SubjectFilter) ([]dto.SubjectView, error)
	GetView(ctx context.Context, id int64) (*dto.SubjectView, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	ListIDsBySemester(ctx context.Context, semesterID int64) ([]int64, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	DeleteCascade(ctx context.Context, id int64) error
}

type storedFileLister interface {
	ListFilesBySubject(ctx context.Context, subjectID int64) ([]models.StoredFile, error)
}

type fileRemover interface {
	Delete(kind storage.Kind, storedName string) (bool, error)
}

type semesterCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// CatalogService manages semesters and subjects, including cascading deletes down to stored files.
type CatalogService struct {
	semesters semesterRepository
	subjects  subjectRepository
	notes     storedFileLister
	papers    storedFileLister
	files     fileRemover
	cache     semesterCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs the catalog service. cache and metrics may be nil.
func NewCatalogService(
	semesters semesterRepository,
	subjects subjectRepository,
	notes storedFileLister,
	papers storedFileLister,
	files fileRemover,
	cache semesterCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{
		semesters: semesters,
		subjects:  subjects,
		notes:     notes,
		papers:    papers,
		files:     files,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// GetAllSemesters returns every semester ordered by number, served from cache when available.
func (s *CatalogService) GetAllSemesters(ctx context.Context, principal *models.JWTClaims) ([]models.Semester, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}

	var cached []models.Semester
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, semesterCacheKey, &cached); hit {
			return cached, nil
		}
	}

	semesters, err := s.semesters.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list semesters")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, semesterCacheKey, semesters, 0)
	}
	return semesters, nil
}

// GetSemester returns a semester with the subjects it owns.
func (s *CatalogService) GetSemester(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.SemesterDetail, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	semester, err := s.loadSemester(ctx, id)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListViews(ctx, repository.SubjectFilter{SemesterID: semester.ID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list semester subjects")
	}
	return &dto.SemesterDetail{Semester: *semester, Subjects: subjects}, nil
}

// CreateSemester adds a semester; number must be 1-8 and unique.
func (s *CatalogService) CreateSemester(ctx context.Context, principal *models.JWTClaims, req dto.CreateSemesterRequest) (*models.Semester, error) {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}

	if _, err := s.semesters.FindByNumber(ctx, req.Number); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("semester %d already exists", req.Number))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check semester number")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = models.DefaultSemesterName(req.Number)
	}
	semester := &models.Semester{Number: req.Number, Name: name}
	if err := s.semesters.Create(ctx, semester); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("semester %d already exists", req.Number))
		}
		return nil, appErrors.Internal(err, "failed to create semester")
	}

	s.invalidateSemesters(ctx)
	s.logger.Info("semester created", zap.Int64("semester_id", semester.ID), zap.Int("number", semester.Number))
	return semester, nil
}

// DeleteSemester removes a semester, cascading through each owned subject.
func (s *CatalogService) DeleteSemester(ctx context.Context, principal *models.JWTClaims, id int64) error {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return err
	}
	semester, err := s.loadSemester(ctx, id)
	if err != nil {
		return err
	}

	subjectIDs, err := s.subjects.ListIDsBySemester(ctx, semester.ID)
	if err != nil {
		return appErrors.Internal(err, "failed to list semester subjects")
	}
	for _, subjectID := range subjectIDs {
		if err := s.removeSubjectFiles(ctx, subjectID); err != nil {
			return err
		}
	}

	if err := s.semesters.DeleteCascade(ctx, semester.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return appErrors.Internal(err, "failed to delete semester")
	}

	s.invalidateSemesters(ctx)
	s.logger.Info("semester deleted", zap.Int64("semester_id", semester.ID), zap.Int("subjects", len(subjectIDs)))
	return nil
}

// ListAllSubjects returns every subject with live resource counts.
func (s *CatalogService) ListAllSubjects(ctx context.Context, principal *models.JWTClaims) ([]dto.SubjectView, error) {
	return s.listSubjects(ctx, principal, repository.SubjectFilter{})
}

// ListBySemester returns the subjects of a semester identified by id.
func (s *CatalogService) ListBySemester(ctx context.Context, principal *models.JWTClaims, semesterID int64) ([]dto.SubjectView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	if _, err := s.loadSemester(ctx, semesterID); err != nil {
		return nil, err
	}
	return s.listSubjects(ctx, principal, repository.SubjectFilter{SemesterID: semesterID})
}

// ListBySemesterNumber returns the subjects of the semester with the given number.
func (s *CatalogService) ListBySemesterNumber(ctx context.Context, principal *models.JWTClaims, number int) ([]dto.SubjectView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	if number < models.MinSemesterNumber || number > models.MaxSemesterNumber {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester number must be between 1 and 8")
	}
	return s.listSubjects(ctx, principal, repository.SubjectFilter{SemesterNumber: number})
}

// SearchSubjects matches subject names case-insensitively. A blank query yields no results.
func (s *CatalogService) SearchSubjects(ctx context.Context, principal *models.JWTClaims, query string) ([]dto.SubjectView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []dto.SubjectView{}, nil
	}
	return s.listSubjects(ctx, principal, repository.SubjectFilter{Search: query})
}

// GetSubject returns one subject with counts.
func (s *CatalogService) GetSubject(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.SubjectView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	view, err := s.subjects.GetView(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	return view, nil
}

// CreateSubject adds a subject under an existing semester.
func (s *CatalogService) CreateSubject(ctx context.Context, principal *models.JWTClaims, req dto.SubjectRequest) (*models.Subject, error) {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return nil, err
	}
	req = normalizeSubjectRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, err := s.loadSemester(ctx, req.SemesterID); err != nil {
		return nil, err
	}

	subject := &models.Subject{Name: req.Name, Code: req.Code, Description: req.Description, SemesterID: req.SemesterID}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Internal(err, "failed to create subject")
	}
	s.logger.Info("subject created", zap.Int64("subject_id", subject.ID), zap.Int64("semester_id", subject.SemesterID))
	return subject, nil
}

// UpdateSubject replaces a subject's fields, re-parenting it when the semester changes.
// Owned resources are untouched.
func (s *CatalogService) UpdateSubject(ctx context.Context, principal *models.JWTClaims, id int64, req dto.SubjectRequest) (*models.Subject, error) {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return nil, err
	}
	req = normalizeSubjectRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.loadSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	if subject.SemesterID != req.SemesterID {
		if _, err := s.loadSemester(ctx, req.SemesterID); err != nil {
			return nil, err
		}
	}

	subject.Name = req.Name
	subject.Code = req.Code
	subject.Description = req.Description
	subject.SemesterID = req.SemesterID
	if err := s.subjects.Update(ctx, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to update subject")
	}
	return subject, nil
}

// DeleteSubject removes stored files first, then all owned rows and the subject in one transaction.
func (s *CatalogService) DeleteSubject(ctx context.Context, principal *models.JWTClaims, id int64) error {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return err
	}
	subject, err := s.loadSubject(ctx, id)
	if err != nil {
		return err
	}
	if err := s.removeSubjectFiles(ctx, subject.ID); err != nil {
		return err
	}
	if err := s.subjects.DeleteCascade(ctx, subject.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Internal(err, "failed to delete subject")
	}
	s.logger.Info("subject deleted", zap.Int64("subject_id", subject.ID))
	return nil
}

// ExportRows returns every subject for reporting.
func (s *CatalogService) ExportRows(ctx context.Context) ([]dto.SubjectView, error) {
	subjects, err := s.subjects.ListViews(ctx, repository.SubjectFilter{})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, nil
}

func (s *CatalogService) listSubjects(ctx context.Context, principal *models.JWTClaims, filter repository.SubjectFilter) ([]dto.SubjectView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListViews(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, nil
}

// removeSubjectFiles deletes the stored files of a subject's notes and papers. Individual file
// failures are logged and skipped; only listing failures abort the cascade.
func (s *CatalogService) removeSubjectFiles(ctx context.Context, subjectID int64) error {
	for _, source := range []struct {
		kind   storage.Kind
		lister storedFileLister
	}{
		{storage.KindNotes, s.notes},
		{storage.KindPapers, s.papers},
	} {
		files, err := source.lister.ListFilesBySubject(ctx, subjectID)
		if err != nil {
			return appErrors.Internal(err, fmt.Sprintf("failed to list %s of subject", source.kind))
		}
		for _, file := range files {
			removeStoredFile(s.files, s.metrics, s.logger, source.kind, file.StoredFileName,
				zap.Int64("subject_id", subjectID), zap.Int64("resource_id", file.ID))
		}
	}
	return nil
}

func (s *CatalogService) loadSemester(ctx context.Context, id int64) (*models.Semester, error) {
	semester, err := s.semesters.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Internal(err, "failed to load semester")
	}
	return semester, nil
}

func (s *CatalogService) loadSubject(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	return subject, nil
}

func (s *CatalogService) invalidateSemesters(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, semesterCacheKey)
}

func normalizeSubjectRequest(req dto.SubjectRequest) dto.SubjectRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	req.Description = strings.TrimSpace(req.Description)
	return req
}

// removeStoredFile deletes a file best-effort. Absence and failures are logged at WARN.
func removeStoredFile(files fileRemover, metrics *MetricsService, logger *zap.Logger, kind storage.Kind, storedName string, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", string(kind)), zap.String("stored_name", storedName))
	removed, err := files.Delete(kind, storedName)
	switch {
	case err != nil:
		metrics.RecordFileDelete(kind, outcomeFailed)
		logger.Warn("failed to delete stored file", append(fields, zap.Error(err))...)
	case !removed:
		metrics.RecordFileDelete(kind, outcomeMissing)
		logger.Warn("stored file already absent", fields...)
	default:
		metrics.RecordFileDelete(kind, outcomeSuccess)
	}
}
