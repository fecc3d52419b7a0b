package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// UploadResult describes the asset created by an image host. URL is filled
// in by the caller from the host's base URL.
type UploadResult struct {
	SourceID string
	URL      string
	Width    *int
	Height   *int
	Size     int64
}

// ImageHost stores the raw image bytes and hands back a stable identifier.
// The gallery document never holds bytes, only source ids.
type ImageHost interface {
	Upload(ctx context.Context, file *multipart.FileHeader, folder string) (UploadResult, error)
	Delete(ctx context.Context, sourceID string) error
	BaseURL() string
}

// LocalImageHost keeps uploads on the local filesystem. The source id is the
// path relative to the base directory.
type LocalImageHost struct {
	baseDir string
	baseURL string
}

func NewLocalImageHost(baseDir, baseURL string) (*LocalImageHost, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalImageHost{
		baseDir: baseDir,
		baseURL: baseURL,
	}, nil
}

func (s *LocalImageHost) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, err
	}

	name := uniqueName(file.Filename)
	relPath := path.Join(folder, name)
	fullPath := filepath.Join(s.baseDir, folder, name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return UploadResult{}, fmt.Errorf("failed to create directories: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(fullPath)
		return UploadResult{}, fmt.Errorf("failed to copy file: %w", err)
	}

	res := UploadResult{SourceID: relPath, Size: size}
	if w, h, err := decodeDimensions(fullPath); err == nil {
		res.Width, res.Height = &w, &h
	}

	return res, nil
}

// Delete removes the stored file. Missing files are not an error so the
// caller's best-effort semantics hold.
func (s *LocalImageHost) Delete(ctx context.Context, sourceID string) error {
	err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(sourceID)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalImageHost) BaseURL() string {
	return s.baseURL
}

func (s *LocalImageHost) BaseDir() string {
	return s.baseDir
}

func decodeDimensions(fullPath string) (int, int, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// uniqueName prefixes the cleaned original name with a timestamp the way the
// deployed uploader names Cloudinary public ids.
func uniqueName(original string) string {
	base := strings.TrimSuffix(original, filepath.Ext(original))
	base = strings.ToLower(strings.Join(strings.Fields(base), "-"))
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), base, strings.ToLower(filepath.Ext(original)))
}
