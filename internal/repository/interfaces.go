package repository

import (
	"context"
	"time"

	"timber_threads/internal/domain/models"

	"github.com/google/uuid"
)

type GalleryRepository interface {
	GetDocument(ctx context.Context) (*models.GalleryDocument, error)
	SaveDocument(ctx context.Context, doc *models.GalleryDocument) error
}

type TokenRepository interface {
	SaveAdminToken(ctx context.Context, jti string, exp time.Duration) error
	HasAdminToken(ctx context.Context, jti string) (bool, error)
	DeleteAdminToken(ctx context.Context, jti string) error
}

type ContactRepository interface {
	SaveInquiry(ctx context.Context, inquiry models.ContactInquiry) (uuid.UUID, error)
	GetInquiries(ctx context.Context, page, perPage int) ([]models.ContactInquiry, int, error)
}
