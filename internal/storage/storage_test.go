package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/realestate-classifieds/internal/config"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1718000000123)

	key, err := ObjectKey("user-1", "Front.JPG", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^user-1/1718000000123_[0-9a-f]{12}\.jpg$`), key)

	other, err := ObjectKey("user-1", "Front.JPG", now)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	noExt, err := ObjectKey("user-1", "blob", now)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(noExt, ".bin"))
}

func TestKeyFromURL(t *testing.T) {
	m := newPrefixMatcher("https://cdn.example.com/storage/v1/object/public/images/")

	tests := []struct {
		url    string
		key    string
		wanted bool
	}{
		{"https://cdn.example.com/storage/v1/object/public/images/u1/1_a.jpg", "u1/1_a.jpg", true},
		{"https://cdn.example.com/storage/v1/object/public/images/u1/1_a.jpg?v=2", "u1/1_a.jpg", true},
		{"https://cdn.example.com/storage/v1/object/public/other/u1/1_a.jpg", "", false},
		{"https://images.example.org/u1/1_a.jpg", "", false},
		{"https://cdn.example.com/storage/v1/object/public/images/", "", false},
		{"https://cdn.example.com/storage/v1/object/public/images/../secret", "", false},
	}
	for _, tt := range tests {
		key, ok := m.KeyFromURL(tt.url)
		assert.Equal(t, tt.wanted, ok, tt.url)
		assert.Equal(t, tt.key, key, tt.url)
	}
}

func TestLocalStore_UploadAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(config.StorageConfig{BasePath: dir, BaseURL: "http://localhost:8080/uploads"})
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "u1/1_a.jpg", strings.NewReader("pixels"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/u1/1_a.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "u1", "1_a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	key, ok := s.KeyFromURL(url)
	require.True(t, ok)
	require.NoError(t, s.Remove(context.Background(), []string{key, "u1/missing.jpg"}))

	_, err = os.Stat(filepath.Join(dir, "u1", "1_a.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
