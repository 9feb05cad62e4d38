// Package uploads stores request-scoped copies of uploaded images inside a
// sandboxed upload directory.
package uploads

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/logger"
)

// DefaultMIMEType is assumed when neither the client nor the content says otherwise
const DefaultMIMEType = "image/jpeg"

const sniffLen = 512

var safeExt = regexp.MustCompile(`^\.[A-Za-z0-9]{1,8}$`)

// Store writes uploads under generated names. All file operations go through
// os.Root so nothing escapes the upload directory. Safe for concurrent use.
type Store struct {
	dir     string
	root    *os.Root
	maxSize int64 // 0 = unlimited
	log     logger.Logger
}

// Upload is one stored image. Release must be called when the request ends.
type Upload struct {
	Name         string // generated file name inside the store
	OriginalName string
	MIMEType     string
	Size         int64

	store    *Store
	released sync.Once
}

// NewStore opens (creating if needed) dir as the upload directory.
func NewStore(dir string, maxSize int64, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewDiscardLogger()
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to resolve upload directory: %w", err)).
			Component("uploads").
			Category(errors.CategoryFileIO).
			Build()
	}
	if err := os.MkdirAll(absDir, 0o750); err != nil {
		return nil, errors.FileError(fmt.Errorf("failed to create upload directory: %w", err), absDir, 0)
	}
	root, err := os.OpenRoot(absDir)
	if err != nil {
		return nil, errors.FileError(fmt.Errorf("failed to open upload directory: %w", err), absDir, 0)
	}

	return &Store{dir: absDir, root: root, maxSize: maxSize, log: log.Module("uploads")}, nil
}

// Dir returns the absolute upload directory
func (s *Store) Dir() string { return s.dir }

// Save streams r into a new file named <uuid><ext>, where ext comes from
// originalName when it is a plain extension. headerType is the client's
// Content-Type for the part and may be empty. The bytes are not kept in
// memory; read them back with Open.
func (s *Store) Save(r io.Reader, originalName, headerType string) (*Upload, error) {
	name := uuid.New().String() + extension(originalName)

	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}

	// The head is kept for content sniffing
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, s.uploadError(fmt.Errorf("failed to read upload: %w", err), name, 0)
	}
	head = head[:n]

	f, err := s.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, s.uploadError(fmt.Errorf("failed to create upload file: %w", err), name, 0)
	}
	size, err := writeUpload(f, head, r)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close upload file: %w", closeErr)
	}
	if err != nil {
		_ = s.root.Remove(name)
		return nil, s.uploadError(err, name, size)
	}
	if s.maxSize > 0 && size > s.maxSize {
		_ = s.root.Remove(name)
		return nil, errors.Newf("upload exceeds %d bytes", s.maxSize).
			Component("uploads").
			Category(errors.CategoryLimit).
			Context("original_name", originalName).
			Build()
	}

	s.log.Debug("Upload stored",
		logger.String("name", name),
		logger.Int64("size", size))

	return &Upload{
		Name:         name,
		OriginalName: originalName,
		MIMEType:     DetectMIMEType(headerType, head),
		Size:         size,
		store:        s,
	}, nil
}

func writeUpload(f *os.File, head []byte, rest io.Reader) (int64, error) {
	n, err := f.Write(head)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write upload file: %w", err)
	}
	copied, err := io.Copy(f, rest)
	if err != nil {
		return int64(n) + copied, fmt.Errorf("failed to write upload file: %w", err)
	}
	return int64(n) + copied, nil
}

// Open reads a stored upload back from disk
func (s *Store) Open(name string) ([]byte, error) {
	f, err := s.root.Open(name)
	if err != nil {
		return nil, s.uploadError(fmt.Errorf("failed to open upload file: %w", err), name, 0)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, s.uploadError(fmt.Errorf("failed to read upload file: %w", err), name, int64(len(data)))
	}
	return data, nil
}

// Close releases the directory handle
func (s *Store) Close() error {
	return s.root.Close()
}

// Release deletes the stored file. It is safe to call more than once.
func (u *Upload) Release() {
	u.released.Do(func() {
		if err := u.store.root.Remove(u.Name); err != nil && !os.IsNotExist(err) {
			u.store.log.Warn("Failed to remove upload", logger.String("name", u.Name), logger.Error(err))
		}
	})
}

// DetectMIMEType prefers an image type from the multipart header, then
// content sniffing, then DefaultMIMEType.
func DetectMIMEType(headerType string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(headerType); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	if len(data) > 0 {
		sniffed := http.DetectContentType(data[:min(len(data), sniffLen)])
		if strings.HasPrefix(sniffed, "image/") {
			return sniffed
		}
	}
	return DefaultMIMEType
}

func extension(originalName string) string {
	// Browsers on Windows may send full paths
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	if !safeExt.MatchString(ext) {
		return ""
	}
	return ext
}

func (s *Store) uploadError(err error, name string, size int64) error {
	return errors.New(err).
		Component("uploads").
		Category(errors.CategoryUpload).
		FileContext(filepath.Join(s.dir, name), size).
		Build()
}
