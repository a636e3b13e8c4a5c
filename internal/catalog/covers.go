package catalog

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCoverPath is the sentinel used whenever a book has no usable cover.
const DefaultCoverPath = "public/img/books/default-book.jpg"

const (
	coverPrefix       = "public/"
	legacyCoverPrefix = "/images/books/"
	currentCoverDir   = "public/img/books/"
)

var (
	ErrCoverType     = errors.New("cover must be a JPEG, PNG, or WEBP image")
	ErrCoverTooLarge = errors.New("cover exceeds the 5 MiB size limit")
)

// MaxCoverSize is the upload size cap in bytes.
const MaxCoverSize = 5 << 20

// ResolveCoverPath normalizes a stored image path. Historical rows may hold
// the legacy /images/books/ form; anything unrecognized falls back to the
// default cover.
func ResolveCoverPath(imagePath *string) string {
	if imagePath == nil || *imagePath == "" {
		return DefaultCoverPath
	}
	p := *imagePath
	switch {
	case strings.HasPrefix(p, coverPrefix):
		return p
	case strings.HasPrefix(p, legacyCoverPrefix):
		return currentCoverDir + strings.TrimPrefix(p, legacyCoverPrefix)
	default:
		return DefaultCoverPath
	}
}

// CoverURL builds the public URL for a stored image path.
func CoverURL(baseURL string, imagePath *string) string {
	return baseURL + "/" + ResolveCoverPath(imagePath)
}

var coverExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// CoverUpload describes an incoming cover file.
type CoverUpload struct {
	File        multipart.File
	Filename    string
	ContentType string
	Size        int64
}

// CoverStore writes uploaded covers to disk under a single directory.
type CoverStore struct {
	dir string
}

func NewCoverStore(dir string) *CoverStore {
	return &CoverStore{dir: dir}
}

// Save validates the upload and writes it under a collision-resistant name,
// returning the relative path to store on the book row.
func (s *CoverStore) Save(up CoverUpload) (string, error) {
	ext, ok := coverExtensions[up.ContentType]
	if !ok {
		return "", ErrCoverType
	}
	if up.Size > MaxCoverSize {
		return "", ErrCoverTooLarge
	}

	if origExt := strings.ToLower(filepath.Ext(up.Filename)); origExt != "" {
		ext = origExt
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("book_%d_%s%s", time.Now().Unix(), shortID(), ext)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create cover file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(up.File, MaxCoverSize)); err != nil {
		return "", fmt.Errorf("write cover file: %w", err)
	}

	return path.Join(filepath.ToSlash(s.dir), name), nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
