package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iliyamo/realestate-classifieds/internal/config"
)

// LocalStore keeps objects on the local filesystem.  The HTTP server serves
// BasePath under BaseURL in development.
type LocalStore struct {
	prefixMatcher
	basePath string
}

func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	base := cfg.BasePath
	if base == "" {
		base = "./uploads"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{prefixMatcher: newPrefixMatcher(cfg.BaseURL), basePath: base}, nil
}

// BasePath is the directory objects are written under.
func (s *LocalStore) BasePath() string { return s.basePath }

func (s *LocalStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.publicURL(key), nil
}

func (s *LocalStore) Remove(ctx context.Context, keys []string) error {
	var errs []error
	for _, k := range keys {
		full := filepath.Join(s.basePath, filepath.FromSlash(k))
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
