package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"attendance_server/server/attendance/domain"
	"attendance_server/server/common/apperr"
	"attendance_server/server/common/infra/facerec"
	"attendance_server/server/common/infra/object"
	"attendance_server/server/common/log"
)

const (
	DefaultMaxFileSize = 50 * 1024 * 1024
	DefaultMaxFiles    = 10
)

var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png"}

// FileUpload is one file taken from a multipart request.
type FileUpload struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

func (f FileUpload) ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

type UploadPolicy struct {
	AllowedExtensions []string
	MaxFileSize       int64
	MaxFiles          int
	// Required rejects an empty batch.
	Required bool
}

func DefaultUploadPolicy(required bool) UploadPolicy {
	return UploadPolicy{
		AllowedExtensions: DefaultAllowedExtensions,
		MaxFileSize:       DefaultMaxFileSize,
		MaxFiles:          DefaultMaxFiles,
		Required:          required,
	}
}

// Validate checks the whole batch and stops at the first bad file.
func (p UploadPolicy) Validate(files []FileUpload) error {
	if len(files) == 0 {
		if p.Required {
			return apperr.Validation("At least one image is required")
		}
		return nil
	}
	if p.MaxFiles > 0 && len(files) > p.MaxFiles {
		return apperr.Validation(fmt.Sprintf("Too many files. Maximum is %d.", p.MaxFiles))
	}
	for _, f := range files {
		ext := f.ext()
		if !slices.Contains(p.AllowedExtensions, ext) {
			return apperr.Validation(fmt.Sprintf("Invalid file type: %s. Only image files are allowed.", ext))
		}
		if p.MaxFileSize > 0 && f.Size > p.MaxFileSize {
			return apperr.Validation(fmt.Sprintf("File %s is too large. Maximum size is %dMB.", f.Name, p.MaxFileSize/(1024*1024)))
		}
	}
	return nil
}

// Uploader writes request files to object storage and registers a delete
// for every object it stored.
type Uploader struct {
	store       object.Store
	concurrency int
	now         func() time.Time
}

func NewUploader(store object.Store, concurrency int) *Uploader {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Uploader{store: store, concurrency: concurrency, now: time.Now}
}

// UploadAll stores files under prefix and returns their references in input
// order. After the first failure no new upload starts. Objects that were
// stored are left to comp for removal.
func (u *Uploader) UploadAll(ctx context.Context, comp *Compensator, entity, prefix string, files []FileUpload) ([]domain.StoredFile, error) {
	out := make([]domain.StoredFile, len(files))
	if len(files) == 0 {
		return out, nil
	}

	stamp := u.now().UnixMilli()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		key := path.Join(prefix, fmt.Sprintf("%d_%d%s", stamp, i, f.ext()))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stored, err := u.put(gctx, key, f)
			uploadsTotal.WithLabelValues(entity, result(err)).Inc()
			if err != nil {
				return apperr.Storage("Failed to upload "+f.Name, err)
			}
			uploadBytes.WithLabelValues(entity).Add(float64(f.Size))
			comp.Add("delete "+stored, func(ctx context.Context) error {
				return u.store.Delete(ctx, stored)
			})
			out[i] = domain.StoredFile{
				FileName:   f.Name,
				FileSize:   f.Size,
				Key:        stored,
				URL:        u.store.URL(stored),
				UploadedAt: u.now().UTC(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Uploader) put(ctx context.Context, key string, f FileUpload) (string, error) {
	contentType := f.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(f.Data)
	}
	return u.store.Put(ctx, key, bytes.NewReader(f.Data), int64(len(f.Data)), contentType)
}

// DeleteObjects removes every referenced object concurrently. Failures are
// logged per key and never returned.
func DeleteObjects(ctx context.Context, store object.Store, entity string, files []domain.StoredFile) {
	if len(files) == 0 {
		return
	}
	var g errgroup.Group
	for _, f := range files {
		g.Go(func() error {
			err := store.Delete(ctx, f.Key)
			storageCleanupTotal.WithLabelValues(entity, result(err)).Inc()
			if err != nil {
				log.Errorf("delete %s object %s failed: %v", entity, f.Key, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func toFaceFiles(files []FileUpload, stored []domain.StoredFile) []facerec.File {
	out := make([]facerec.File, 0, len(files))
	for i, f := range files {
		name := f.Name
		if i < len(stored) {
			name = path.Base(stored[i].Key)
		}
		out = append(out, facerec.File{Name: name, Data: f.Data})
	}
	return out
}
