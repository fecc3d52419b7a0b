package models

import (
	"fmt"
	"strings"
	"time"
)

type Section string

const (
	SectionFacility Section = "Facility"
	SectionQuilting Section = "Quilting"
)

// Section values used by older iterations of the persisted schema. Mapped to
// the current set when the document is loaded.
var legacySections = map[string]Section{
	"facility": SectionFacility,
	"quilting": SectionQuilting,
	"projects": SectionQuilting,
	"seasonal": SectionFacility,
}

func (s Section) IsValid() bool {
	switch s {
	case SectionFacility, SectionQuilting:
		return true
	}
	return false
}

// NormalizeSection maps a raw persisted section value onto the closed set.
// Returns false when the value is neither current nor legacy.
func NormalizeSection(raw string) (Section, bool) {
	if s := Section(raw); s.IsValid() {
		return s, true
	}
	if s, ok := legacySections[strings.ToLower(raw)]; ok {
		return s, true
	}
	return "", false
}

// ImageRecord is a single gallery image. SourceID acts as the primary key:
// a relative path on the local image host or an object key on the remote one,
// unique across active and deleted images alike.
type ImageRecord struct {
	SourceID   string     `json:"src"`
	AltText    string     `json:"alt"`
	Caption    string     `json:"caption"`
	Section    Section    `json:"section"`
	Order      int        `json:"order"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
	Width      *int       `json:"width,omitempty"`
	Height     *int       `json:"height,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// GalleryDocument is the whole persisted aggregate. Every mutation reads and
// writes it as a unit under a single key.
type GalleryDocument struct {
	ActiveImages  []ImageRecord `json:"images"`
	DeletedImages []ImageRecord `json:"deletedImages"`
}

// EmptyGalleryDocument returns the document an uninitialized store stands for.
func EmptyGalleryDocument() *GalleryDocument {
	return &GalleryDocument{
		ActiveImages:  []ImageRecord{},
		DeletedImages: []ImageRecord{},
	}
}

// FindActive returns the index of the active record with the given source id,
// or -1.
func (d *GalleryDocument) FindActive(sourceID string) int {
	for i := range d.ActiveImages {
		if d.ActiveImages[i].SourceID == sourceID {
			return i
		}
	}
	return -1
}

// FindDeleted returns the index of the deleted record with the given source
// id, or -1.
func (d *GalleryDocument) FindDeleted(sourceID string) int {
	for i := range d.DeletedImages {
		if d.DeletedImages[i].SourceID == sourceID {
			return i
		}
	}
	return -1
}

// Contains reports whether the source id exists anywhere in the document.
func (d *GalleryDocument) Contains(sourceID string) bool {
	return d.FindActive(sourceID) >= 0 || d.FindDeleted(sourceID) >= 0
}

// MaxOrder returns the highest order among active records of the section,
// zero when the section holds none.
func (d *GalleryDocument) MaxOrder(section Section) int {
	max := 0
	for i := range d.ActiveImages {
		if d.ActiveImages[i].Section == section && d.ActiveImages[i].Order > max {
			max = d.ActiveImages[i].Order
		}
	}
	return max
}

// Validate checks the document invariants: source ids unique across both
// collections, deleted_at set exactly on deleted records, and active orders
// forming a contiguous 1..N per section.
func (d *GalleryDocument) Validate() error {
	seen := make(map[string]struct{}, len(d.ActiveImages)+len(d.DeletedImages))
	for _, img := range d.ActiveImages {
		if _, dup := seen[img.SourceID]; dup {
			return fmt.Errorf("duplicate source id %q", img.SourceID)
		}
		seen[img.SourceID] = struct{}{}
		if img.DeletedAt != nil {
			return fmt.Errorf("active image %q has deleted_at set", img.SourceID)
		}
	}
	for _, img := range d.DeletedImages {
		if _, dup := seen[img.SourceID]; dup {
			return fmt.Errorf("duplicate source id %q", img.SourceID)
		}
		seen[img.SourceID] = struct{}{}
		if img.DeletedAt == nil {
			return fmt.Errorf("deleted image %q has no deleted_at", img.SourceID)
		}
	}

	orders := make(map[Section]map[int]struct{})
	counts := make(map[Section]int)
	for _, img := range d.ActiveImages {
		if orders[img.Section] == nil {
			orders[img.Section] = make(map[int]struct{})
		}
		orders[img.Section][img.Order] = struct{}{}
		counts[img.Section]++
	}
	for section, present := range orders {
		for want := 1; want <= counts[section]; want++ {
			if _, ok := present[want]; !ok {
				return fmt.Errorf("section %s: order sequence has gap or duplicate at %d", section, want)
			}
		}
	}

	return nil
}
