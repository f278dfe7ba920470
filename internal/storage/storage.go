// Package storage uploads listing images to an object store and removes them
// again.  Every object is addressed by a key; its public URL is the store's
// base URL followed by "/" and the key.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/iliyamo/realestate-classifieds/internal/config"
)

// Store is implemented by the S3 and local filesystem backends.
type Store interface {
	// Upload writes the object and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Remove deletes the objects; missing keys are not an error.
	Remove(ctx context.Context, keys []string) error
	// KeyFromURL returns the key of a URL served by this store.  URLs from
	// any other origin report false.
	KeyFromURL(rawURL string) (string, bool)
}

// New builds the store selected by cfg.Type.
func New(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "s3", "r2":
		return NewS3Store(cfg)
	case "", "local":
		return NewLocalStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// ObjectKey builds "<userID>/<unixMillis>_<random>.<ext>" for an uploaded
// file.  The extension comes from the original file name.
func ObjectKey(userID, filename string, now time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" || strings.ContainsAny(ext, "/\\") {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d_%s.%s", userID, now.UnixMilli(), hex.EncodeToString(buf), ext), nil
}

// prefixMatcher implements KeyFromURL for a base URL.
type prefixMatcher struct {
	prefix string
}

func newPrefixMatcher(baseURL string) prefixMatcher {
	return prefixMatcher{prefix: strings.TrimRight(baseURL, "/") + "/"}
}

func (m prefixMatcher) publicURL(key string) string {
	return m.prefix + key
}

func (m prefixMatcher) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, m.prefix) {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, m.prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	key, err := url.PathUnescape(key)
	if err != nil || key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
