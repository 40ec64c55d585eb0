package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-studyhub-api/internal/dto"
	"github.com/noah-isme/campus-studyhub-api/internal/models"
	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
	"github.com/noah-isme/campus-studyhub-api/pkg/storage"
)

type noteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	FindByID(ctx context.Context, id int64) (*models.Note, error)
	GetView(ctx context.Context, id int64) (*dto.NoteView, error)
	ListBySubject(ctx context.Context, subjectID int64) ([]dto.NoteView, error)
	Delete(ctx context.Context, id int64) error
}

type paperRepository interface {
	Create(ctx context.Context, paper *models.QuestionPaper) error
	FindByID(ctx context.Context, id int64) (*models.QuestionPaper, error)
	GetView(ctx context.Context, id int64) (*dto.PaperView, error)
	ListBySubject(ctx context.Context, subjectID int64) ([]dto.PaperView, error)
	Delete(ctx context.Context, id int64) error
}

type videoRepository interface {
	Create(ctx context.Context, video *models.VideoLink) error
	GetView(ctx context.Context, id int64) (*dto.VideoView, error)
	ListBySubject(ctx context.Context, subjectID int64) ([]dto.VideoView, error)
	Delete(ctx context.Context, id int64) error
}

type subjectFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type resourceFileStore interface {
	Store(kind storage.Kind, upload storage.Upload) (string, int64, error)
	PathFor(kind storage.Kind, storedName string) string
	Delete(kind storage.Kind, storedName string) (bool, error)
	Open(kind storage.Kind, storedName string) (*os.File, error)
}

type downloadSigner interface {
	Generate(ref, storedName string) (string, time.Time, error)
	Parse(token string) (ref, storedName string, expiresAt time.Time, err error)
}

// ResourceConfig tunes link generation.
type ResourceConfig struct {
	APIPrefix string
}

// FileDownload is an open stored file ready to stream. Callers must close Content.
type FileDownload struct {
	Content  io.ReadCloser
	Filename string
	MimeType string
	Size     int64
}

// storedResource is the part of a note or paper needed to serve its file.
type storedResource struct {
	ID           int64
	StoredName   string
	OriginalName string
	Size         int64
}

// ResourceService orchestrates note, paper and video lifecycles against the file store.
type ResourceService struct {
	notes     noteRepository
	papers    paperRepository
	videos    videoRepository
	subjects  subjectFinder
	users     userFinder
	files     resourceFileStore
	signer    downloadSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ResourceConfig
}

// NewResourceService constructs the resource service. signer and metrics may be nil.
func NewResourceService(
	notes noteRepository,
	papers paperRepository,
	videos videoRepository,
	subjects subjectFinder,
	users userFinder,
	files resourceFileStore,
	signer downloadSigner,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ResourceConfig,
) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ResourceService{
		notes:     notes,
		papers:    papers,
		videos:    videos,
		subjects:  subjects,
		users:     users,
		files:     files,
		signer:    signer,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// UploadNote stores a PDF under notes/ and records it against a subject.
func (s *ResourceService) UploadNote(ctx context.Context, principal *models.JWTClaims, req dto.UploadNoteRequest, upload storage.Upload) (*dto.NoteView, error) {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	subject, uploader, err := s.resolveOwnership(ctx, principal, req.SubjectID)
	if err != nil {
		return nil, err
	}

	storedName, size, err := s.store(storage.KindNotes, upload)
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		Title:            req.Title,
		OriginalFileName: upload.Filename,
		StoredFileName:   storedName,
		FilePath:         s.files.PathFor(storage.KindNotes, storedName),
		FileSize:         size,
		UploadedAt:       time.Now().UTC(),
		UploadedBy:       uploader.ID,
		SubjectID:        subject.ID,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		s.logger.Warn("note record not persisted, stored file left orphaned",
			zap.String("stored_name", storedName), zap.Int64("subject_id", subject.ID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save note")
	}

	s.logger.Info("note uploaded", zap.Int64("note_id", note.ID), zap.Int64("subject_id", subject.ID), zap.Int64("size", note.FileSize))
	return &dto.NoteView{
		ID:               note.ID,
		Title:            note.Title,
		OriginalFileName: note.OriginalFileName,
		FileSize:         note.FileSize,
		UploadedAt:       note.UploadedAt,
		UploadedBy:       uploader.ID,
		UploadedByName:   uploader.FullName,
		SubjectID:        subject.ID,
		SubjectName:      subject.Name,
	}, nil
}

// UploadPaper stores a PDF under papers/ and records it with an optional exam year.
func (s *ResourceService) UploadPaper(ctx context.Context, principal *models.JWTClaims, req dto.UploadPaperRequest, upload storage.Upload) (*dto.PaperView, error) {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question paper payload")
	}
	subject, uploader, err := s.resolveOwnership(ctx, principal, req.SubjectID)
	if err != nil {
		return nil, err
	}

	storedName, size, err := s.store(storage.KindPapers, upload)
	if err != nil {
		return nil, err
	}

	paper := &models.QuestionPaper{
		Title:            req.Title,
		ExamYear:         req.Year,
		OriginalFileName: upload.Filename,
		StoredFileName:   storedName,
		FilePath:         s.files.PathFor(storage.KindPapers, storedName),
		FileSize:         size,
		UploadedAt:       time.Now().UTC(),
		UploadedBy:       uploader.ID,
		SubjectID:        subject.ID,
	}
	if err := s.papers.Create(ctx, paper); err != nil {
		s.logger.Warn("question paper record not persisted, stored file left orphaned",
			zap.String("stored_name", storedName), zap.Int64("subject_id", subject.ID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save question paper")
	}

	s.logger.Info("question paper uploaded", zap.Int64("paper_id", paper.ID), zap.Int64("subject_id", subject.ID), zap.Int64("size", paper.FileSize))
	return &dto.PaperView{
		ID:               paper.ID,
		Title:            paper.Title,
		ExamYear:         paper.ExamYear,
		OriginalFileName: paper.OriginalFileName,
		FileSize:         paper.FileSize,
		UploadedAt:       paper.UploadedAt,
		UploadedBy:       uploader.ID,
		UploadedByName:   uploader.FullName,
		SubjectID:        subject.ID,
		SubjectName:      subject.Name,
	}, nil
}

// DeleteNote removes the stored file, then the record.
func (s *ResourceService) DeleteNote(ctx context.Context, principal *models.JWTClaims, id int64) error {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return err
	}
	note, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, "note not found", "failed to load note")
	}
	removeStoredFile(s.files, s.metrics, s.logger, storage.KindNotes, note.StoredFileName, zap.Int64("note_id", note.ID))
	if err := s.notes.Delete(ctx, note.ID); err != nil {
		return notFoundOrInternal(err, "note not found", "failed to delete note")
	}
	s.logger.Info("note deleted", zap.Int64("note_id", note.ID))
	return nil
}

// DeletePaper removes the stored file, then the record.
func (s *ResourceService) DeletePaper(ctx context.Context, principal *models.JWTClaims, id int64) error {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return err
	}
	paper, err := s.papers.FindByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, "question paper not found", "failed to load question paper")
	}
	removeStoredFile(s.files, s.metrics, s.logger, storage.KindPapers, paper.StoredFileName, zap.Int64("paper_id", paper.ID))
	if err := s.papers.Delete(ctx, paper.ID); err != nil {
		return notFoundOrInternal(err, "question paper not found", "failed to delete question paper")
	}
	s.logger.Info("question paper deleted", zap.Int64("paper_id", paper.ID))
	return nil
}

// DownloadNoteFile opens a note's PDF for any authenticated user.
func (s *ResourceService) DownloadNoteFile(ctx context.Context, principal *models.JWTClaims, id int64) (*FileDownload, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	return s.download(ctx, storage.KindNotes, id, "")
}

// DownloadPaperFile opens a paper's PDF for any authenticated user.
func (s *ResourceService) DownloadPaperFile(ctx context.Context, principal *models.JWTClaims, id int64) (*FileDownload, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	return s.download(ctx, storage.KindPapers, id, "")
}

// IssueDownloadURL returns a signed, expiring link to a note or paper file.
func (s *ResourceService) IssueDownloadURL(ctx context.Context, principal *models.JWTClaims, kind storage.Kind, id int64) (*dto.DownloadLink, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download links are not configured")
	}
	resource, err := s.lookupStored(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(downloadRef(kind, id), resource.StoredName)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}
	link := fmt.Sprintf("%s/files/%s/%d/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), kind, id, url.QueryEscape(token))
	return &dto.DownloadLink{URL: link, ExpiresAt: expiresAt.UTC()}, nil
}

// DownloadWithToken serves a file to the holder of a valid signed token, without a principal.
func (s *ResourceService) DownloadWithToken(ctx context.Context, kind storage.Kind, id int64, token string) (*FileDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download links are not configured")
	}
	ref, storedName, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	if ref != downloadRef(kind, id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download token does not match this file")
	}
	return s.download(ctx, kind, id, storedName)
}

// GetNote returns one note.
func (s *ResourceService) GetNote(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.NoteView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	note, err := s.notes.GetView(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "note not found", "failed to load note")
	}
	return note, nil
}

// GetPaper returns one question paper.
func (s *ResourceService) GetPaper(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.PaperView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	paper, err := s.papers.GetView(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "question paper not found", "failed to load question paper")
	}
	return paper, nil
}

// GetVideo returns one video link.
func (s *ResourceService) GetVideo(ctx context.Context, principal *models.JWTClaims, id int64) (*dto.VideoView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	video, err := s.videos.GetView(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "video not found", "failed to load video")
	}
	return video, nil
}

// AddVideoLink records a YouTube link, deriving thumbnail and embed URLs once.
func (s *ResourceService) AddVideoLink(ctx context.Context, principal *models.JWTClaims, req dto.AddVideoRequest) (*dto.VideoView, error) {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.YoutubeURL = strings.TrimSpace(req.YoutubeURL)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid video payload")
	}
	if !isHTTPURL(req.YoutubeURL) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "youtube url must be an absolute http or https url")
	}
	subject, user, err := s.resolveOwnership(ctx, principal, req.SubjectID)
	if err != nil {
		return nil, err
	}

	video := &models.VideoLink{
		Title:        req.Title,
		YoutubeURL:   req.YoutubeURL,
		ThumbnailURL: youtubeThumbnailURL(req.YoutubeURL),
		EmbedURL:     youtubeEmbedURL(req.YoutubeURL),
		Description:  req.Description,
		SubjectID:    subject.ID,
		AddedBy:      user.ID,
		AddedAt:      time.Now().UTC(),
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, appErrors.Internal(err, "failed to save video")
	}

	return &dto.VideoView{
		ID:           video.ID,
		Title:        video.Title,
		YoutubeURL:   video.YoutubeURL,
		ThumbnailURL: video.ThumbnailURL,
		EmbedURL:     video.EmbedURL,
		Description:  video.Description,
		AddedAt:      video.AddedAt,
		AddedBy:      user.ID,
		AddedByName:  user.FullName,
		SubjectID:    subject.ID,
		SubjectName:  subject.Name,
	}, nil
}

// DeleteVideo removes a video link.
func (s *ResourceService) DeleteVideo(ctx context.Context, principal *models.JWTClaims, id int64) error {
	if err := RequireRole(principal, writerRoles...); err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, id); err != nil {
		return notFoundOrInternal(err, "video not found", "failed to delete video")
	}
	return nil
}

// ListNotesBySubject returns a subject's notes, newest first.
func (s *ResourceService) ListNotesBySubject(ctx context.Context, principal *models.JWTClaims, subjectID int64) ([]dto.NoteView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list notes")
	}
	return notes, nil
}

// ListPapersBySubject returns a subject's question papers, newest first.
func (s *ResourceService) ListPapersBySubject(ctx context.Context, principal *models.JWTClaims, subjectID int64) ([]dto.PaperView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	papers, err := s.papers.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list question papers")
	}
	return papers, nil
}

// ListVideosBySubject returns a subject's videos, newest first.
func (s *ResourceService) ListVideosBySubject(ctx context.Context, principal *models.JWTClaims, subjectID int64) ([]dto.VideoView, error) {
	if err := RequireRole(principal, readerRoles...); err != nil {
		return nil, err
	}
	videos, err := s.videos.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list videos")
	}
	return videos, nil
}

// resolveOwnership loads the target subject and the acting user before any file I/O.
func (s *ResourceService) resolveOwnership(ctx context.Context, principal *models.JWTClaims, subjectID int64) (*models.Subject, *models.User, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, nil, notFoundOrInternal(err, "subject not found", "failed to load subject")
	}
	user, err := s.users.FindByEmail(ctx, principal.Email)
	if err != nil {
		return nil, nil, notFoundOrInternal(err, "user not found", "failed to load user")
	}
	return subject, user, nil
}

// store writes the upload and returns its stored name and the size actually written.
func (s *ResourceService) store(kind storage.Kind, upload storage.Upload) (string, int64, error) {
	storedName, written, err := s.files.Store(kind, upload)
	if err != nil {
		outcome := outcomeFailed
		if errors.Is(err, appErrors.ErrValidation) {
			outcome = outcomeRejected
		}
		s.metrics.RecordUpload(kind, outcome, upload.Size)
		if outcome == outcomeFailed {
			s.logger.Error("failed to store upload", zap.String("kind", string(kind)), zap.Error(err))
		}
		return "", 0, err
	}
	s.metrics.RecordUpload(kind, outcomeSuccess, written)
	return storedName, written, nil
}

func (s *ResourceService) lookupStored(ctx context.Context, kind storage.Kind, id int64) (*storedResource, error) {
	switch kind {
	case storage.KindNotes:
		note, err := s.notes.FindByID(ctx, id)
		if err != nil {
			return nil, notFoundOrInternal(err, "note not found", "failed to load note")
		}
		return &storedResource{ID: note.ID, StoredName: note.StoredFileName, OriginalName: note.OriginalFileName, Size: note.FileSize}, nil
	case storage.KindPapers:
		paper, err := s.papers.FindByID(ctx, id)
		if err != nil {
			return nil, notFoundOrInternal(err, "question paper not found", "failed to load question paper")
		}
		return &storedResource{ID: paper.ID, StoredName: paper.StoredFileName, OriginalName: paper.OriginalFileName, Size: paper.FileSize}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown file kind %q", kind))
	}
}

// download opens the record's file. A missing record and a missing file both surface as
// NotFound; the latter is logged. expectedName, when set, must match the record.
func (s *ResourceService) download(ctx context.Context, kind storage.Kind, id int64, expectedName string) (*FileDownload, error) {
	resource, err := s.lookupStored(ctx, kind, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			s.metrics.RecordDownload(kind, outcomeMissing)
		}
		return nil, err
	}
	if expectedName != "" && expectedName != resource.StoredName {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download token does not match this file")
	}

	file, err := s.files.Open(kind, resource.StoredName)
	if err != nil {
		s.metrics.RecordDownload(kind, outcomeMissing)
		s.logger.Warn("stored file missing for existing record",
			zap.String("kind", string(kind)), zap.Int64("id", id), zap.String("stored_name", resource.StoredName), zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", kindNoun(kind)))
	}

	size := resource.Size
	if info, statErr := file.Stat(); statErr == nil {
		size = info.Size()
	}
	s.metrics.RecordDownload(kind, outcomeSuccess)
	return &FileDownload{
		Content:  file,
		Filename: resource.OriginalName,
		MimeType: storage.PDFContentType,
		Size:     size,
	}, nil
}

func downloadRef(kind storage.Kind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func kindNoun(kind storage.Kind) string {
	if kind == storage.KindPapers {
		return "question paper"
	}
	return "note"
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func notFoundOrInternal(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	return appErrors.Internal(err, internalMsg)
}
