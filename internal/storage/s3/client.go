package s3

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime/multipart"
	"path"
	"strings"
	"time"

	filestorage "timber_threads/internal/storage/filestorage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ImageHost stores gallery uploads in an S3 bucket. The source id is the
// object key.
type ImageHost struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func New(ctx context.Context, region, bucket, accessKeyID, secretAccessKey, baseURL string) (*ImageHost, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &ImageHost{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

func (h *ImageHost) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (filestorage.UploadResult, error) {
	src, err := file.Open()
	if err != nil {
		return filestorage.UploadResult{}, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	var width, height *int
	if cfg, _, err := image.DecodeConfig(src); err == nil {
		w, ht := cfg.Width, cfg.Height
		width, height = &w, &ht
	}
	if _, err := src.Seek(0, 0); err != nil {
		return filestorage.UploadResult{}, fmt.Errorf("failed to rewind source file: %w", err)
	}

	key := path.Join(folder, objectName(file.Filename))

	_, err = h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(h.bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentType:   aws.String(file.Header.Get("Content-Type")),
		ContentLength: aws.Int64(file.Size),
	})
	if err != nil {
		return filestorage.UploadResult{}, fmt.Errorf("failed to upload object: %w", err)
	}

	return filestorage.UploadResult{
		SourceID: key,
		Width:    width,
		Height:   height,
		Size:     file.Size,
	}, nil
}

func (h *ImageHost) Delete(ctx context.Context, sourceID string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(sourceID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (h *ImageHost) BaseURL() string {
	return h.baseURL
}

func objectName(original string) string {
	ext := ""
	if i := strings.LastIndex(original, "."); i >= 0 {
		ext = strings.ToLower(original[i:])
		original = original[:i]
	}
	base := strings.ToLower(strings.Join(strings.Fields(original), "-"))
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), base, ext)
}
