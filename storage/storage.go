// Package storage uploads user media to an object store and hands back public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/config"
	"github.com/princinho/cragbase/utils"
	"go.uber.org/zap"
)

// ObjectStore is a bucket addressed by object keys.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL recovers the object key from a URL returned by Put.
	KeyFromURL(raw string) (string, error)
}

var ErrUploadsDisabled = errors.New("file uploads are not configured")

type disabledStore struct{}

func (disabledStore) Put(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrUploadsDisabled
}
func (disabledStore) Delete(context.Context, string) error { return nil }
func (disabledStore) KeyFromURL(string) (string, error)     { return "", ErrUploadsDisabled }

// New picks the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "r2":
		return NewR2(ctx, cfg)
	case "gcs":
		return NewGCS(ctx, cfg)
	default:
		return disabledStore{}, nil
	}
}

// Media validates uploaded files and stores them under a folder per entity kind.
type Media struct {
	store     ObjectStore
	validator *utils.FileValidator
	log       *zap.Logger
	now       func() time.Time
}

func NewMedia(store ObjectStore, validator *utils.FileValidator, log *zap.Logger) *Media {
	return &Media{store: store, validator: validator, log: log, now: time.Now}
}

// Upload stores files and returns their public URLs in order. A file that
// fails validation aborts the whole upload and removes what was already stored.
func (m *Media) Upload(ctx context.Context, folder string, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		contentType, err := m.validator.ValidateFile(fh)
		if err != nil {
			m.Remove(ctx, urls)
			return nil, apperr.Validation(fmt.Sprintf("%s: %s", fh.Filename, err.Error()))
		}

		url, err := m.put(ctx, folder, fh, contentType)
		if err != nil {
			m.Remove(ctx, urls)
			return nil, apperr.Internal("upload "+fh.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (m *Media) put(ctx context.Context, folder string, fh *multipart.FileHeader, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".bin"
	}
	base := utils.GenerateSlug(strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename)))
	if base == "" {
		base = "file"
	}
	key := fmt.Sprintf("%s/%d-%s-%s%s", folder, m.now().UTC().Unix(), uuid.New().String(), base, ext)

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return m.store.Put(ctx, key, contentType, f)
}

// Remove deletes the objects behind urls. Failures are logged, not returned:
// an orphaned object must not fail the request that dropped it.
func (m *Media) Remove(ctx context.Context, urls []string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		key, err := m.store.KeyFromURL(u)
		if err != nil {
			m.log.Warn("skip media delete", zap.String("url", u), zap.Error(err))
			continue
		}
		if err := m.store.Delete(ctx, key); err != nil {
			m.log.Warn("media delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}
