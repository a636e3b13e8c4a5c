package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestResolveCoverPath(t *testing.T) {
	tests := []struct {
		name string
		in   *string
		want string
	}{
		{"nil path", nil, DefaultCoverPath},
		{"empty path", strPtr(""), DefaultCoverPath},
		{"current format unchanged", strPtr("public/x.jpg"), "public/x.jpg"},
		{"current cover dir unchanged", strPtr("public/img/books/a.png"), "public/img/books/a.png"},
		{"legacy format rewritten", strPtr("/images/books/x.jpg"), "public/img/books/x.jpg"},
		{"garbage falls back", strPtr("garbage"), DefaultCoverPath},
		{"absolute unknown falls back", strPtr("/etc/passwd"), DefaultCoverPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCoverPath(tt.in))
			// Total and pure: a second call yields the same result.
			assert.Equal(t, tt.want, ResolveCoverPath(tt.in))
		})
	}
}

func TestCoverURL(t *testing.T) {
	assert.Equal(t, "/public/img/books/x.jpg", CoverURL("", strPtr("public/img/books/x.jpg")))
	assert.Equal(t, "/"+DefaultCoverPath, CoverURL("", nil))
	assert.Equal(t, "/lib/public/a.jpg", CoverURL("/lib", strPtr("public/a.jpg")))
}

type fakeMultipartFile struct {
	*bytes.Reader
}

func (fakeMultipartFile) Close() error { return nil }

func newUpload(name, contentType string, size int) CoverUpload {
	data := bytes.Repeat([]byte{0xAB}, size)
	return CoverUpload{
		File:        fakeMultipartFile{bytes.NewReader(data)},
		Filename:    name,
		ContentType: contentType,
		Size:        int64(size),
	}
}

func TestCoverStoreSave(t *testing.T) {
	t.Run("rejects disallowed type", func(t *testing.T) {
		store := NewCoverStore(t.TempDir())
		_, err := store.Save(newUpload("cover.gif", "image/gif", 10))
		assert.ErrorIs(t, err, ErrCoverType)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		store := NewCoverStore(t.TempDir())
		up := newUpload("cover.jpg", "image/jpeg", 10)
		up.Size = MaxCoverSize + 1
		_, err := store.Save(up)
		assert.ErrorIs(t, err, ErrCoverTooLarge)
	})

	t.Run("stores with generated name", func(t *testing.T) {
		dir := t.TempDir()
		store := NewCoverStore(dir)

		stored, err := store.Save(newUpload("My Cover.JPG", "image/jpeg", 128))
		require.NoError(t, err)

		name := filepath.Base(stored)
		assert.Regexp(t, regexp.MustCompile(`^book_\d+_[0-9a-f]{12}\.jpg$`), name)

		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Len(t, data, 128)
	})

	t.Run("names never collide", func(t *testing.T) {
		store := NewCoverStore(t.TempDir())
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			stored, err := store.Save(newUpload("a.png", "image/png", 8))
			require.NoError(t, err)
			assert.False(t, seen[stored], "duplicate name %s", stored)
			seen[stored] = true
		}
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "covers")
		store := NewCoverStore(dir)

		_, err := store.Save(newUpload("a.webp", "image/webp", 8))
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}
