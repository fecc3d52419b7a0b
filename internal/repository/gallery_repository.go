package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"timber_threads/internal/domain/models"
	redisapp "timber_threads/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

// galleryKey is the single key the whole document lives under.
const galleryKey = "gallery"

type RedisGalleryRepo struct {
	Client *redisapp.Client
}

func NewRedisGalleryRepo(client *redisapp.Client) *RedisGalleryRepo {
	return &RedisGalleryRepo{Client: client}
}

// GetDocument loads the gallery document. An absent key is first-time setup,
// not an error: it yields the empty document.
func (r *RedisGalleryRepo) GetDocument(ctx context.Context) (*models.GalleryDocument, error) {
	const op = "repository.RedisGalleryRepo.GetDocument"

	raw, err := r.Client.Get(ctx, galleryKey).Result()
	if err == redis.Nil {
		return models.EmptyGalleryDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var doc rawDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.normalize(), nil
}

// SaveDocument overwrites the whole gallery key.
func (r *RedisGalleryRepo) SaveDocument(ctx context.Context, doc *models.GalleryDocument) error {
	const op = "repository.RedisGalleryRepo.SaveDocument"

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.Client.Set(ctx, galleryKey, data, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// rawDocument tolerates section values written by older schema iterations.
type rawDocument struct {
	ActiveImages  []rawImage `json:"images"`
	DeletedImages []rawImage `json:"deletedImages"`
}

type rawImage struct {
	models.ImageRecord
	Section string `json:"section"`
}

func (d *rawDocument) normalize() *models.GalleryDocument {
	out := models.EmptyGalleryDocument()
	for _, img := range d.ActiveImages {
		out.ActiveImages = append(out.ActiveImages, img.toRecord())
	}
	for _, img := range d.DeletedImages {
		out.DeletedImages = append(out.DeletedImages, img.toRecord())
	}
	return out
}

func (i rawImage) toRecord() models.ImageRecord {
	rec := i.ImageRecord
	if s, ok := models.NormalizeSection(i.Section); ok {
		rec.Section = s
	} else {
		rec.Section = models.SectionFacility
	}
	return rec
}
