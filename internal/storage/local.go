package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BlobStore is the file-storage collaborator: it turns an uploaded part
// into an opaque locator (fileRef). The catalog never inspects contents.
type BlobStore interface {
	Save(file *multipart.FileHeader) (fileRef string, err error)
	Remove(fileRef string) error
}

// LocalStore writes blobs to a directory on disk under a generated name
// and returns a "/uploads/<name>" locator, matching the static mount.
type LocalStore struct {
	dir    string
	prefix string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &LocalStore{dir: dir, prefix: "/uploads/"}, nil
}

func (s *LocalStore) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()

	if err != nil {
		return "", err
	}

	defer src.Close()

	name := uuid.NewString() + sanitizeExt(file.Filename)

	dst, err := os.Create(filepath.Join(s.dir, name))

	if err != nil {
		return "", err
	}

	_, err = io.Copy(dst, src)

	closeErr := dst.Close()

	if err == nil {
		err = closeErr
	}

	if err != nil {
		// do not leave a truncated blob behind
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", err
	}

	return s.prefix + name, nil
}

func (s *LocalStore) Remove(fileRef string) error {
	name := strings.TrimPrefix(fileRef, s.prefix)

	// locators are generated server-side; reject anything path-like
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("invalid file ref %q", fileRef)
	}

	return os.Remove(filepath.Join(s.dir, name))
}

// Dir is the on-disk directory backing the store (for the static mount).
func (s *LocalStore) Dir() string {
	return s.dir
}

// sanitizeExt keeps the original extension if it looks harmless,
// otherwise drops it. The stored name is always server-generated.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))

	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}

	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}

	return ext
}
