package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"timber_threads/internal/domain/models"
	"timber_threads/internal/lib/logger/sl"
	"timber_threads/internal/metrics"
	"timber_threads/internal/repository"
	"timber_threads/internal/storage"
	filestorage "timber_threads/internal/storage/filestorage"
)

// GalleryService is the sole authority over the gallery document. Every
// operation is a read-modify-write of the whole document; mutations are
// serialized through mu so two admin requests hitting the same instance
// cannot silently overwrite each other.
type GalleryService struct {
	log  *slog.Logger
	repo repository.GalleryRepository
	host filestorage.ImageHost

	mu sync.Mutex
}

func NewGalleryService(log *slog.Logger, repo repository.GalleryRepository, host filestorage.ImageHost) *GalleryService {
	return &GalleryService{
		log:  log,
		repo: repo,
		host: host,
	}
}

// CreateImageInput carries everything needed to register an uploaded asset.
type CreateImageInput struct {
	SourceID   string
	AltText    string
	Caption    string
	Section    models.Section
	Width      *int
	Height     *int
	UploadedAt *time.Time
}

// List returns the current document. An uninitialized store yields the empty
// document, never an error.
func (s *GalleryService) List(ctx context.Context) (*models.GalleryDocument, error) {
	const op = "service.GalleryService.List"

	doc, err := s.repo.GetDocument(ctx)
	if err != nil {
		s.log.Error("failed to load gallery document", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

// Create appends a new record to the active images, last in its section.
func (s *GalleryService) Create(ctx context.Context, input CreateImageInput) (*models.ImageRecord, error) {
	const op = "service.GalleryService.Create"
	log := s.log.With(
		slog.String("op", op),
		slog.String("src", input.SourceID),
		slog.String("section", string(input.Section)),
	)

	if !input.Section.IsValid() {
		return nil, fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidSection, input.Section)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.GetDocument(ctx)
	if err != nil {
		log.Error("failed to load gallery document", sl.Err(err))
		return nil, s.fail(op, "create", err)
	}

	if doc.Contains(input.SourceID) {
		log.Warn("source id already exists")
		metrics.GalleryOperationsTotal.WithLabelValues("create", "rejected").Inc()
		return nil, fmt.Errorf("%s: %w", op, storage.ErrDuplicateSourceID)
	}

	record := models.ImageRecord{
		SourceID:   input.SourceID,
		AltText:    input.AltText,
		Caption:    input.Caption,
		Section:    input.Section,
		Order:      doc.MaxOrder(input.Section) + 1,
		Width:      input.Width,
		Height:     input.Height,
		UploadedAt: input.UploadedAt,
	}
	doc.ActiveImages = append(doc.ActiveImages, record)

	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		log.Error("failed to save gallery document", sl.Err(err))
		return nil, s.fail(op, "create", err)
	}

	log.Info("image created", slog.Int("order", record.Order))
	metrics.GalleryOperationsTotal.WithLabelValues("create", "ok").Inc()
	return &record, nil
}

// SoftDelete moves an active record to the deleted set, stamps deleted_at and
// renumbers the vacated section so orders stay contiguous.
func (s *GalleryService) SoftDelete(ctx context.Context, sourceID string) (*models.GalleryDocument, error) {
	const op = "service.GalleryService.SoftDelete"
	log := s.log.With(
		slog.String("op", op),
		slog.String("src", sourceID),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.GetDocument(ctx)
	if err != nil {
		log.Error("failed to load gallery document", sl.Err(err))
		return nil, s.fail(op, "soft_delete", err)
	}

	idx := doc.FindActive(sourceID)
	if idx < 0 {
		log.Warn("image not found for soft delete")
		return nil, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
	}

	record := doc.ActiveImages[idx]
	now := time.Now().UTC()
	record.DeletedAt = &now

	doc.ActiveImages = append(doc.ActiveImages[:idx], doc.ActiveImages[idx+1:]...)
	doc.DeletedImages = append(doc.DeletedImages, record)

	renumberSection(doc, record.Section)

	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		log.Error("failed to save gallery document", sl.Err(err))
		return nil, s.fail(op, "soft_delete", err)
	}

	log.Info("image soft deleted")
	metrics.GalleryOperationsTotal.WithLabelValues("soft_delete", "ok").Inc()
	return doc, nil
}

// Restore moves a deleted record back to the active set, appended at the end
// of its section rather than reinserted at its old position.
func (s *GalleryService) Restore(ctx context.Context, sourceID string) (*models.GalleryDocument, error) {
	const op = "service.GalleryService.Restore"
	log := s.log.With(
		slog.String("op", op),
		slog.String("src", sourceID),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.GetDocument(ctx)
	if err != nil {
		log.Error("failed to load gallery document", sl.Err(err))
		return nil, s.fail(op, "restore", err)
	}

	idx := doc.FindDeleted(sourceID)
	if idx < 0 {
		log.Warn("image not found in deleted items")
		return nil, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
	}

	record := doc.DeletedImages[idx]
	record.DeletedAt = nil
	record.Order = doc.MaxOrder(record.Section) + 1

	doc.DeletedImages = append(doc.DeletedImages[:idx], doc.DeletedImages[idx+1:]...)
	doc.ActiveImages = append(doc.ActiveImages, record)

	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		log.Error("failed to save gallery document", sl.Err(err))
		return nil, s.fail(op, "restore", err)
	}

	log.Info("image restored", slog.Int("order", record.Order))
	metrics.GalleryOperationsTotal.WithLabelValues("restore", "ok").Inc()
	return doc, nil
}

// PermanentlyDelete removes a soft-deleted record for good. The remote asset
// delete is best-effort: a host failure is logged and the document mutation
// proceeds, accepting the storage-orphan risk.
func (s *GalleryService) PermanentlyDelete(ctx context.Context, sourceID string) (*models.GalleryDocument, error) {
	const op = "service.GalleryService.PermanentlyDelete"
	log := s.log.With(
		slog.String("op", op),
		slog.String("src", sourceID),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.GetDocument(ctx)
	if err != nil {
		log.Error("failed to load gallery document", sl.Err(err))
		return nil, s.fail(op, "purge", err)
	}

	idx := doc.FindDeleted(sourceID)
	if idx < 0 {
		log.Warn("image not found in deleted items")
		return nil, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
	}

	doc.DeletedImages = append(doc.DeletedImages[:idx], doc.DeletedImages[idx+1:]...)

	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		log.Error("failed to save gallery document", sl.Err(err))
		return nil, s.fail(op, "purge", err)
	}

	if err := s.host.Delete(ctx, sourceID); err != nil {
		log.Warn("failed to delete remote asset, orphan left behind", sl.Err(err))
	}

	log.Info("image permanently deleted")
	metrics.GalleryOperationsTotal.WithLabelValues("purge", "ok").Inc()
	return doc, nil
}

// UpdateCaption edits the caption wherever the record lives, active or
// deleted.
func (s *GalleryService) UpdateCaption(ctx context.Context, sourceID, caption string) (*models.GalleryDocument, error) {
	const op = "service.GalleryService.UpdateCaption"
	log := s.log.With(
		slog.String("op", op),
		slog.String("src", sourceID),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.GetDocument(ctx)
	if err != nil {
		log.Error("failed to load gallery document", sl.Err(err))
		return nil, s.fail(op, "update_caption", err)
	}

	if idx := doc.FindActive(sourceID); idx >= 0 {
		doc.ActiveImages[idx].Caption = caption
	} else if idx := doc.FindDeleted(sourceID); idx >= 0 {
		doc.DeletedImages[idx].Caption = caption
	} else {
		log.Warn("image not found for caption update")
		return nil, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
	}

	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		log.Error("failed to save gallery document", sl.Err(err))
		return nil, s.fail(op, "update_caption", err)
	}

	log.Info("caption updated")
	metrics.GalleryOperationsTotal.WithLabelValues("update_caption", "ok").Inc()
	return doc, nil
}

// UpdateSection moves an active record to the end of the target section.
// Both the target and the vacated section are renumbered the same way
// SoftDelete does it, so no gap is left behind — a same-section move just
// sends the record to the end.
func (s *GalleryService) UpdateSection(ctx context.Context, sourceID string, newSection models.Section) (*models.GalleryDocument, error) {
	const op = "service.GalleryService.UpdateSection"
	log := s.log.With(
		slog.String("op", op),
		slog.String("src", sourceID),
		slog.String("new_section", string(newSection)),
	)

	if !newSection.IsValid() {
		return nil, fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidSection, newSection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.GetDocument(ctx)
	if err != nil {
		log.Error("failed to load gallery document", sl.Err(err))
		return nil, s.fail(op, "update_section", err)
	}

	idx := doc.FindActive(sourceID)
	if idx < 0 {
		log.Warn("image not found for section update")
		return nil, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
	}

	oldSection := doc.ActiveImages[idx].Section
	// rank past the section max before the record switches sections, so the
	// renumber pass below always sorts it last
	doc.ActiveImages[idx].Order = doc.MaxOrder(newSection) + 1
	doc.ActiveImages[idx].Section = newSection

	renumberSection(doc, newSection)
	if oldSection != newSection {
		renumberSection(doc, oldSection)
	}

	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		log.Error("failed to save gallery document", sl.Err(err))
		return nil, s.fail(op, "update_section", err)
	}

	log.Info("section updated")
	metrics.GalleryOperationsTotal.WithLabelValues("update_section", "ok").Inc()
	return doc, nil
}

// ReorderSection applies a caller-supplied display order. The supplied ids
// must be exactly the active ids of the section; anything extra, missing or
// duplicated fails with InvalidReorderError and leaves the document untouched.
func (s *GalleryService) ReorderSection(ctx context.Context, section models.Section, orderedSourceIDs []string) (*models.GalleryDocument, error) {
	const op = "service.GalleryService.ReorderSection"
	log := s.log.With(
		slog.String("op", op),
		slog.String("section", string(section)),
	)

	if !section.IsValid() {
		return nil, fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidSection, section)
	}
	if len(orderedSourceIDs) == 0 {
		return nil, fmt.Errorf("%s: %w", op, &storage.InvalidReorderError{})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.GetDocument(ctx)
	if err != nil {
		log.Error("failed to load gallery document", sl.Err(err))
		return nil, s.fail(op, "reorder", err)
	}

	current := make(map[string]int)
	for i := range doc.ActiveImages {
		if doc.ActiveImages[i].Section == section {
			current[doc.ActiveImages[i].SourceID] = i
		}
	}

	if reorderErr := checkPermutation(current, orderedSourceIDs); reorderErr != nil {
		log.Warn("reorder is not a permutation of the section", sl.Err(reorderErr))
		metrics.GalleryOperationsTotal.WithLabelValues("reorder", "rejected").Inc()
		return nil, fmt.Errorf("%s: %w", op, reorderErr)
	}

	for pos, src := range orderedSourceIDs {
		doc.ActiveImages[current[src]].Order = pos + 1
	}

	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		log.Error("failed to save gallery document", sl.Err(err))
		return nil, s.fail(op, "reorder", err)
	}

	log.Info("section reordered", slog.Int("count", len(orderedSourceIDs)))
	metrics.GalleryOperationsTotal.WithLabelValues("reorder", "ok").Inc()
	return doc, nil
}

func (s *GalleryService) fail(op, operation string, err error) error {
	metrics.GalleryOperationsTotal.WithLabelValues(operation, "error").Inc()
	return fmt.Errorf("%s: %w", op, err)
}

// renumberSection closes order gaps in a section: remaining active records
// keep their relative order and get reassigned 1..N.
func renumberSection(doc *models.GalleryDocument, section models.Section) {
	var idx []int
	for i := range doc.ActiveImages {
		if doc.ActiveImages[i].Section == section {
			idx = append(idx, i)
		}
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return doc.ActiveImages[idx[a]].Order < doc.ActiveImages[idx[b]].Order
	})

	for rank, i := range idx {
		doc.ActiveImages[i].Order = rank + 1
	}
}

// checkPermutation verifies the supplied ids are exactly the keys of current.
func checkPermutation(current map[string]int, supplied []string) *storage.InvalidReorderError {
	reorderErr := &storage.InvalidReorderError{}

	seen := make(map[string]struct{}, len(supplied))
	for _, src := range supplied {
		if _, dup := seen[src]; dup {
			reorderErr.UnknownIDs = append(reorderErr.UnknownIDs, src)
			continue
		}
		seen[src] = struct{}{}
		if _, ok := current[src]; !ok {
			reorderErr.UnknownIDs = append(reorderErr.UnknownIDs, src)
		}
	}
	for src := range current {
		if _, ok := seen[src]; !ok {
			reorderErr.MissingIDs = append(reorderErr.MissingIDs, src)
		}
	}
	sort.Strings(reorderErr.MissingIDs)

	if len(reorderErr.UnknownIDs) > 0 || len(reorderErr.MissingIDs) > 0 {
		return reorderErr
	}
	return nil
}
