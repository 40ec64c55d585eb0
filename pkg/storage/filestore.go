package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/noah-isme/campus-studyhub-api/pkg/errors"
)

// Kind selects the subdirectory a resource file lives in.
type Kind string

const (
	KindNotes  Kind = "notes"
	KindPapers Kind = "papers"
)

// PDFContentType is the only declared content type accepted for uploads.
const PDFContentType = "application/pdf"

// DefaultMaxFileSize is applied when no positive limit is configured.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Valid reports whether k names a known storage subdirectory.
func (k Kind) Valid() bool {
	return k == KindNotes || k == KindPapers
}

// Upload describes an incoming file as declared by the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// FileStore persists note and paper binaries on local disk under opaque, random names.
type FileStore struct {
	baseDir     string
	maxFileSize int64
}

// NewFileStore ensures the base directory and its notes/ and papers/ subdirectories exist.
func NewFileStore(baseDir string, maxFileSize int64) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "uploads"
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	for _, kind := range []Kind{KindNotes, KindPapers} {
		if err := os.MkdirAll(filepath.Join(baseDir, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", kind, err)
		}
	}
	return &FileStore{baseDir: baseDir, maxFileSize: maxFileSize}, nil
}

// MaxFileSize returns the configured upload limit in bytes.
func (s *FileStore) MaxFileSize() int64 {
	return s.maxFileSize
}

// Validate checks the declared upload against the PDF policy without touching disk.
func (s *FileStore) Validate(u Upload) error {
	if u.Content == nil || u.Size <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "please select a file to upload")
	}
	if u.Size > s.maxFileSize {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file size exceeds maximum allowed size of %d MB", s.maxFileSize/(1024*1024)))
	}
	if u.ContentType != PDFContentType {
		return appErrors.Clone(appErrors.ErrValidation, "only PDF files are allowed")
	}
	if !strings.HasSuffix(strings.ToLower(u.Filename), ".pdf") {
		return appErrors.Clone(appErrors.ErrValidation, "file must have .pdf extension")
	}
	return nil
}

// Store validates the upload and writes it under kind/. It returns the generated stored name
// and the number of bytes written, which is authoritative over the declared size.
func (s *FileStore) Store(kind Kind, u Upload) (string, int64, error) {
	if !kind.Valid() {
		return "", 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown storage kind %q", kind))
	}
	if err := s.Validate(u); err != nil {
		return "", 0, err
	}

	storedName := uuid.NewString() + filepath.Ext(u.Filename)
	path := s.PathFor(kind, storedName)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, appErrors.IO(err, "could not store file")
	}
	written, err := io.Copy(file, io.LimitReader(u.Content, s.maxFileSize+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, appErrors.IO(err, "could not store file")
	}
	if written == 0 {
		_ = os.Remove(path)
		return "", 0, appErrors.Clone(appErrors.ErrValidation, "please select a file to upload")
	}
	if written > s.maxFileSize {
		_ = os.Remove(path)
		return "", 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file size exceeds maximum allowed size of %d MB", s.maxFileSize/(1024*1024)))
	}
	return storedName, written, nil
}

// PathFor joins the on-disk location of a stored file. It performs no I/O.
func (s *FileStore) PathFor(kind Kind, storedName string) string {
	return filepath.Join(s.baseDir, string(kind), storedName)
}

// Delete removes a stored file. It reports false with a nil error when nothing was there.
func (s *FileStore) Delete(kind Kind, storedName string) (bool, error) {
	if !safeName(storedName) {
		return false, nil
	}
	if err := os.Remove(s.PathFor(kind, storedName)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, appErrors.IO(err, "could not delete file")
	}
	return true, nil
}

// Open returns a read handle for a stored file, or NotFound when it is missing or unreadable.
func (s *FileStore) Open(kind Kind, storedName string) (*os.File, error) {
	if !safeName(storedName) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	file, err := os.Open(s.PathFor(kind, storedName))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "file not found")
	}
	return file, nil
}

// Stored names are generated here, so anything with a separator did not come from Store.
func safeName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
