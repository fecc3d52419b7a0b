package services

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"testing"
	"time"

	"timber_threads/internal/domain/models"
	"timber_threads/internal/storage"
	filestorage "timber_threads/internal/storage/filestorage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGalleryRepository struct {
	mock.Mock
}

func (m *MockGalleryRepository) GetDocument(ctx context.Context) (*models.GalleryDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GalleryDocument), args.Error(1)
}

func (m *MockGalleryRepository) SaveDocument(ctx context.Context, doc *models.GalleryDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

type MockImageHost struct {
	mock.Mock
}

func (m *MockImageHost) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (filestorage.UploadResult, error) {
	args := m.Called(ctx, file, folder)
	return args.Get(0).(filestorage.UploadResult), args.Error(1)
}

func (m *MockImageHost) Delete(ctx context.Context, sourceID string) error {
	args := m.Called(ctx, sourceID)
	return args.Error(0)
}

func (m *MockImageHost) BaseURL() string {
	args := m.Called()
	return args.String(0)
}

// inMemoryRepo backs multi-step scenario tests with a real document.
type inMemoryRepo struct {
	doc *models.GalleryDocument
}

func (r *inMemoryRepo) GetDocument(ctx context.Context) (*models.GalleryDocument, error) {
	copied := *r.doc
	copied.ActiveImages = append([]models.ImageRecord(nil), r.doc.ActiveImages...)
	copied.DeletedImages = append([]models.ImageRecord(nil), r.doc.DeletedImages...)
	return &copied, nil
}

func (r *inMemoryRepo) SaveDocument(ctx context.Context, doc *models.GalleryDocument) error {
	r.doc = doc
	return nil
}

func facilityDoc(srcs ...string) *models.GalleryDocument {
	doc := models.EmptyGalleryDocument()
	for i, src := range srcs {
		doc.ActiveImages = append(doc.ActiveImages, models.ImageRecord{
			SourceID: src,
			AltText:  src,
			Section:  models.SectionFacility,
			Order:    i + 1,
		})
	}
	return doc
}

func newTestService(repo *MockGalleryRepository, host *MockImageHost) *GalleryService {
	return NewGalleryService(slog.Default(), repo, host)
}

func TestGalleryService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		existing    *models.GalleryDocument
		input       CreateImageInput
		saveErr     error
		wantErr     error
		wantOrder   int
		expectsSave bool
	}{
		{
			name:        "first image in empty section",
			existing:    models.EmptyGalleryDocument(),
			input:       CreateImageInput{SourceID: "a.jpg", Section: models.SectionFacility},
			wantOrder:   1,
			expectsSave: true,
		},
		{
			name:        "appends after existing images",
			existing:    facilityDoc("a.jpg", "b.jpg"),
			input:       CreateImageInput{SourceID: "c.jpg", Section: models.SectionFacility},
			wantOrder:   3,
			expectsSave: true,
		},
		{
			name:     "duplicate source id rejected",
			existing: facilityDoc("a.jpg"),
			input:    CreateImageInput{SourceID: "a.jpg", Section: models.SectionFacility},
			wantErr:  storage.ErrDuplicateSourceID,
		},
		{
			name:     "invalid section rejected",
			existing: models.EmptyGalleryDocument(),
			input:    CreateImageInput{SourceID: "a.jpg", Section: models.Section("Garden")},
			wantErr:  storage.ErrInvalidSection,
		},
		{
			name:        "storage write failure surfaces",
			existing:    models.EmptyGalleryDocument(),
			input:       CreateImageInput{SourceID: "a.jpg", Section: models.SectionFacility},
			saveErr:     errors.New("redis down"),
			wantErr:     nil, // generic wrapped error, checked below
			expectsSave: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockGalleryRepository)
			service := newTestService(mockRepo, new(MockImageHost))

			if tt.input.Section.IsValid() {
				mockRepo.On("GetDocument", ctx).Return(tt.existing, nil).Once()
			}
			if tt.expectsSave {
				mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).
					Return(tt.saveErr).Once()
			}

			record, err := service.Create(ctx, tt.input)

			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, record)
			case tt.saveErr != nil:
				require.Error(t, err)
				assert.Nil(t, record)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantOrder, record.Order)
				assert.Equal(t, tt.input.SourceID, record.SourceID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGalleryService_SoftDelete_RenumbersSection(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := newTestService(mockRepo, new(MockImageHost))

	mockRepo.On("GetDocument", ctx).Return(facilityDoc("a.jpg", "b.jpg", "c.jpg"), nil).Once()

	var saved *models.GalleryDocument
	mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.GalleryDocument)
		}).Return(nil).Once()

	doc, err := service.SoftDelete(ctx, "b.jpg")
	require.NoError(t, err)
	require.NotNil(t, saved)

	// b moved to deleted, stamped
	require.Len(t, saved.DeletedImages, 1)
	assert.Equal(t, "b.jpg", saved.DeletedImages[0].SourceID)
	assert.NotNil(t, saved.DeletedImages[0].DeletedAt)

	// a and c renumbered 1, 2 with relative order preserved
	require.Len(t, saved.ActiveImages, 2)
	assert.Equal(t, "a.jpg", saved.ActiveImages[0].SourceID)
	assert.Equal(t, 1, saved.ActiveImages[0].Order)
	assert.Equal(t, "c.jpg", saved.ActiveImages[1].SourceID)
	assert.Equal(t, 2, saved.ActiveImages[1].Order)

	assert.NoError(t, doc.Validate())
	mockRepo.AssertExpectations(t)
}

func TestGalleryService_SoftDelete_NotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := newTestService(mockRepo, new(MockImageHost))

	mockRepo.On("GetDocument", ctx).Return(facilityDoc("a.jpg"), nil).Once()

	_, err := service.SoftDelete(ctx, "missing.jpg")
	assert.ErrorIs(t, err, storage.ErrImageNotFound)
	mockRepo.AssertNotCalled(t, "SaveDocument", mock.Anything, mock.Anything)
}

func TestGalleryService_Restore_AppendsAtEnd(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := newTestService(mockRepo, new(MockImageHost))

	deletedAt := time.Now().UTC()
	doc := facilityDoc("a.jpg", "c.jpg")
	doc.DeletedImages = append(doc.DeletedImages, models.ImageRecord{
		SourceID:  "b.jpg",
		Section:   models.SectionFacility,
		Order:     2, // stale rank from before deletion
		DeletedAt: &deletedAt,
	})

	mockRepo.On("GetDocument", ctx).Return(doc, nil).Once()

	var saved *models.GalleryDocument
	mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.GalleryDocument)
		}).Return(nil).Once()

	_, err := service.Restore(ctx, "b.jpg")
	require.NoError(t, err)

	require.Len(t, saved.ActiveImages, 3)
	restored := saved.ActiveImages[2]
	assert.Equal(t, "b.jpg", restored.SourceID)
	assert.Equal(t, 3, restored.Order, "restored image is appended, not reinserted")
	assert.Nil(t, restored.DeletedAt)
	assert.Empty(t, saved.DeletedImages)

	assert.NoError(t, saved.Validate())
	mockRepo.AssertExpectations(t)
}

func TestGalleryService_Restore_NotFound(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := newTestService(mockRepo, new(MockImageHost))

	mockRepo.On("GetDocument", ctx).Return(facilityDoc("a.jpg"), nil).Once()

	_, err := service.Restore(ctx, "a.jpg") // active, not deleted
	assert.ErrorIs(t, err, storage.ErrImageNotFound)
}

func TestGalleryService_PermanentlyDelete(t *testing.T) {
	ctx := context.Background()
	deletedAt := time.Now().UTC()

	newDoc := func() *models.GalleryDocument {
		doc := models.EmptyGalleryDocument()
		doc.DeletedImages = append(doc.DeletedImages, models.ImageRecord{
			SourceID:  "b.jpg",
			Section:   models.SectionQuilting,
			DeletedAt: &deletedAt,
		})
		return doc
	}

	t.Run("removes record and asset", func(t *testing.T) {
		mockRepo := new(MockGalleryRepository)
		mockHost := new(MockImageHost)
		service := newTestService(mockRepo, mockHost)

		mockRepo.On("GetDocument", ctx).Return(newDoc(), nil).Once()
		mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).Return(nil).Once()
		mockHost.On("Delete", ctx, "b.jpg").Return(nil).Once()

		doc, err := service.PermanentlyDelete(ctx, "b.jpg")
		require.NoError(t, err)
		assert.Empty(t, doc.DeletedImages)

		mockRepo.AssertExpectations(t)
		mockHost.AssertExpectations(t)
	})

	t.Run("host failure does not block removal", func(t *testing.T) {
		mockRepo := new(MockGalleryRepository)
		mockHost := new(MockImageHost)
		service := newTestService(mockRepo, mockHost)

		mockRepo.On("GetDocument", ctx).Return(newDoc(), nil).Once()
		mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).Return(nil).Once()
		mockHost.On("Delete", ctx, "b.jpg").Return(errors.New("cdn unreachable")).Once()

		doc, err := service.PermanentlyDelete(ctx, "b.jpg")
		require.NoError(t, err)
		assert.Empty(t, doc.DeletedImages)
	})

	t.Run("active image cannot be purged directly", func(t *testing.T) {
		mockRepo := new(MockGalleryRepository)
		mockHost := new(MockImageHost)
		service := newTestService(mockRepo, mockHost)

		mockRepo.On("GetDocument", ctx).Return(facilityDoc("a.jpg"), nil).Once()

		_, err := service.PermanentlyDelete(ctx, "a.jpg")
		assert.ErrorIs(t, err, storage.ErrImageNotFound)
		mockHost.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestGalleryService_UpdateCaption(t *testing.T) {
	ctx := context.Background()
	deletedAt := time.Now().UTC()

	t.Run("updates active image", func(t *testing.T) {
		mockRepo := new(MockGalleryRepository)
		service := newTestService(mockRepo, new(MockImageHost))

		mockRepo.On("GetDocument", ctx).Return(facilityDoc("a.jpg"), nil).Once()

		var saved *models.GalleryDocument
		mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*models.GalleryDocument)
			}).Return(nil).Once()

		_, err := service.UpdateCaption(ctx, "a.jpg", "the long arm room")
		require.NoError(t, err)
		assert.Equal(t, "the long arm room", saved.ActiveImages[0].Caption)
	})

	t.Run("updates deleted image too", func(t *testing.T) {
		mockRepo := new(MockGalleryRepository)
		service := newTestService(mockRepo, new(MockImageHost))

		doc := models.EmptyGalleryDocument()
		doc.DeletedImages = append(doc.DeletedImages, models.ImageRecord{
			SourceID:  "gone.jpg",
			Section:   models.SectionFacility,
			DeletedAt: &deletedAt,
		})
		mockRepo.On("GetDocument", ctx).Return(doc, nil).Once()

		var saved *models.GalleryDocument
		mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*models.GalleryDocument)
			}).Return(nil).Once()

		_, err := service.UpdateCaption(ctx, "gone.jpg", "archived shot")
		require.NoError(t, err)
		assert.Equal(t, "archived shot", saved.DeletedImages[0].Caption)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockGalleryRepository)
		service := newTestService(mockRepo, new(MockImageHost))

		mockRepo.On("GetDocument", ctx).Return(models.EmptyGalleryDocument(), nil).Once()

		_, err := service.UpdateCaption(ctx, "nope.jpg", "x")
		assert.ErrorIs(t, err, storage.ErrImageNotFound)
	})

	t.Run("idempotent", func(t *testing.T) {
		repo := &inMemoryRepo{doc: facilityDoc("a.jpg", "b.jpg")}
		service := NewGalleryService(slog.Default(), repo, new(MockImageHost))

		first, err := service.UpdateCaption(ctx, "a.jpg", "spring view")
		require.NoError(t, err)
		second, err := service.UpdateCaption(ctx, "a.jpg", "spring view")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}

func TestGalleryService_UpdateSection(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := newTestService(mockRepo, new(MockImageHost))

	doc := facilityDoc("a.jpg", "b.jpg", "c.jpg")
	doc.ActiveImages = append(doc.ActiveImages, models.ImageRecord{
		SourceID: "q.jpg",
		Section:  models.SectionQuilting,
		Order:    1,
	})
	mockRepo.On("GetDocument", ctx).Return(doc, nil).Once()

	var saved *models.GalleryDocument
	mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.GalleryDocument)
		}).Return(nil).Once()

	_, err := service.UpdateSection(ctx, "b.jpg", models.SectionQuilting)
	require.NoError(t, err)

	moved := saved.ActiveImages[saved.FindActive("b.jpg")]
	assert.Equal(t, models.SectionQuilting, moved.Section)
	assert.Equal(t, 2, moved.Order, "appended at the end of the destination section")

	// the vacated section is renumbered, no gap left behind
	a := saved.ActiveImages[saved.FindActive("a.jpg")]
	c := saved.ActiveImages[saved.FindActive("c.jpg")]
	assert.Equal(t, 1, a.Order)
	assert.Equal(t, 2, c.Order)

	assert.NoError(t, saved.Validate())
	mockRepo.AssertExpectations(t)
}

// Moving an image to the section it is already in sends it to the end and
// must not leave a hole at its old rank.
func TestGalleryService_UpdateSection_SameSection(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := newTestService(mockRepo, new(MockImageHost))

	mockRepo.On("GetDocument", ctx).Return(facilityDoc("a.jpg", "b.jpg", "c.jpg"), nil).Once()

	var saved *models.GalleryDocument
	mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.GalleryDocument)
		}).Return(nil).Once()

	_, err := service.UpdateSection(ctx, "b.jpg", models.SectionFacility)
	require.NoError(t, err)

	assert.Equal(t, 1, saved.ActiveImages[saved.FindActive("a.jpg")].Order)
	assert.Equal(t, 2, saved.ActiveImages[saved.FindActive("c.jpg")].Order)
	assert.Equal(t, 3, saved.ActiveImages[saved.FindActive("b.jpg")].Order)

	assert.NoError(t, saved.Validate())
	mockRepo.AssertExpectations(t)
}

func TestGalleryService_UpdateSection_DeletedImageNotSupported(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := newTestService(mockRepo, new(MockImageHost))

	deletedAt := time.Now().UTC()
	doc := models.EmptyGalleryDocument()
	doc.DeletedImages = append(doc.DeletedImages, models.ImageRecord{
		SourceID:  "gone.jpg",
		Section:   models.SectionFacility,
		DeletedAt: &deletedAt,
	})
	mockRepo.On("GetDocument", ctx).Return(doc, nil).Once()

	_, err := service.UpdateSection(ctx, "gone.jpg", models.SectionQuilting)
	assert.ErrorIs(t, err, storage.ErrImageNotFound)
}

func TestGalleryService_ReorderSection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		ordered     []string
		wantUnknown []string
		wantMissing []string
		wantOK      bool
	}{
		{
			name:    "valid permutation",
			ordered: []string{"c.jpg", "a.jpg", "b.jpg"},
			wantOK:  true,
		},
		{
			name:        "unknown id",
			ordered:     []string{"c.jpg", "a.jpg", "b.jpg", "x.jpg"},
			wantUnknown: []string{"x.jpg"},
		},
		{
			name:        "missing id",
			ordered:     []string{"c.jpg", "a.jpg"},
			wantMissing: []string{"b.jpg"},
		},
		{
			name:        "duplicate id",
			ordered:     []string{"c.jpg", "a.jpg", "a.jpg"},
			wantUnknown: []string{"a.jpg"},
			wantMissing: []string{"b.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockGalleryRepository)
			service := newTestService(mockRepo, new(MockImageHost))

			mockRepo.On("GetDocument", ctx).Return(facilityDoc("a.jpg", "b.jpg", "c.jpg"), nil).Once()

			if tt.wantOK {
				var saved *models.GalleryDocument
				mockRepo.On("SaveDocument", ctx, mock.AnythingOfType("*models.GalleryDocument")).
					Run(func(args mock.Arguments) {
						saved = args.Get(1).(*models.GalleryDocument)
					}).Return(nil).Once()

				_, err := service.ReorderSection(ctx, models.SectionFacility, tt.ordered)
				require.NoError(t, err)

				for pos, src := range tt.ordered {
					rec := saved.ActiveImages[saved.FindActive(src)]
					assert.Equal(t, pos+1, rec.Order, "position of %s", src)
				}
				assert.NoError(t, saved.Validate())
				return
			}

			_, err := service.ReorderSection(ctx, models.SectionFacility, tt.ordered)
			require.Error(t, err)

			var reorderErr *storage.InvalidReorderError
			require.ErrorAs(t, err, &reorderErr)
			assert.Equal(t, tt.wantUnknown, reorderErr.UnknownIDs)
			assert.Equal(t, tt.wantMissing, reorderErr.MissingIDs)

			mockRepo.AssertNotCalled(t, "SaveDocument", mock.Anything, mock.Anything)
		})
	}
}

func TestGalleryService_ReorderSection_EmptyList(t *testing.T) {
	ctx := context.Background()
	service := newTestService(new(MockGalleryRepository), new(MockImageHost))

	_, err := service.ReorderSection(ctx, models.SectionFacility, nil)

	var reorderErr *storage.InvalidReorderError
	assert.ErrorAs(t, err, &reorderErr)
}

// Delete/restore round trip over a live document: B leaves and comes back at
// the end while the others close ranks.
func TestGalleryService_DeleteRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := &inMemoryRepo{doc: facilityDoc("a.jpg", "b.jpg", "c.jpg")}
	service := NewGalleryService(slog.Default(), repo, new(MockImageHost))

	afterDelete, err := service.SoftDelete(ctx, "b.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, afterDelete.ActiveImages[afterDelete.FindActive("a.jpg")].Order)
	assert.Equal(t, 2, afterDelete.ActiveImages[afterDelete.FindActive("c.jpg")].Order)

	afterRestore, err := service.Restore(ctx, "b.jpg")
	require.NoError(t, err)

	b := afterRestore.ActiveImages[afterRestore.FindActive("b.jpg")]
	assert.Equal(t, 3, b.Order)
	assert.Equal(t, 1, afterRestore.ActiveImages[afterRestore.FindActive("a.jpg")].Order)
	assert.Equal(t, 2, afterRestore.ActiveImages[afterRestore.FindActive("c.jpg")].Order)

	assert.NoError(t, afterRestore.Validate())
}
