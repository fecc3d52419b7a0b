package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"timber_threads/internal/lib/logger/sl"
	"timber_threads/internal/storage"
	filestorage "timber_threads/internal/storage/filestorage"
)

const uploadFolder = "timber-threads/gallery"

// MediaService validates an upload and pushes the bytes to the image host.
// No gallery record may exist without a real asset, so any host failure here
// is fatal for the request.
type MediaService struct {
	log     *slog.Logger
	host    filestorage.ImageHost
	maxSize int64
}

func NewMediaService(log *slog.Logger, host filestorage.ImageHost, maxSize int64) *MediaService {
	return &MediaService{
		log:     log,
		host:    host,
		maxSize: maxSize,
	}
}

// Upload stores the file on the image host and returns its source id and
// dimensions.
func (s *MediaService) Upload(ctx context.Context, file *multipart.FileHeader) (filestorage.UploadResult, error) {
	const op = "media_service.Upload"

	log := s.log.With(
		slog.String("op", op),
		slog.String("filename", file.Filename),
		slog.Int64("size", file.Size),
	)

	if file.Size > s.maxSize {
		log.Warn("upload rejected, file too large")
		return filestorage.UploadResult{}, fmt.Errorf("%s: %w", op, storage.ErrFileTooLarge)
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		log.Warn("upload rejected, not an image", slog.String("content_type", contentType))
		return filestorage.UploadResult{}, fmt.Errorf("%s: %w", op, storage.ErrInvalidFileType)
	}

	res, err := s.host.Upload(ctx, file, uploadFolder)
	if err != nil {
		log.Error("failed to upload to image host", sl.Err(err))
		return filestorage.UploadResult{}, fmt.Errorf("%s: %w: %v", op, storage.ErrUpstreamAsset, err)
	}
	res.URL = strings.TrimSuffix(s.host.BaseURL(), "/") + "/" + res.SourceID

	log.Info("media uploaded", slog.String("src", res.SourceID), slog.String("url", res.URL))
	return res, nil
}
