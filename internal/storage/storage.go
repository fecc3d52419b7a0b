package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrImageNotFound     = errors.New("image not found")
	ErrDuplicateSourceID = errors.New("source id already exists")
	ErrInquiryNotFound   = errors.New("inquiry not found")
	ErrInvalidSection    = errors.New("invalid section")
)

var (
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrUpstreamAsset   = errors.New("image host request failed")
)

// InvalidReorderError names the ids that make a reorder request not a
// permutation of the section's active images.
type InvalidReorderError struct {
	UnknownIDs []string // supplied but not active in the section
	MissingIDs []string // active in the section but not supplied
}

func (e *InvalidReorderError) Error() string {
	var parts []string
	if len(e.UnknownIDs) > 0 {
		parts = append(parts, fmt.Sprintf("unknown ids: %s", strings.Join(e.UnknownIDs, ", ")))
	}
	if len(e.MissingIDs) > 0 {
		parts = append(parts, fmt.Sprintf("missing ids: %s", strings.Join(e.MissingIDs, ", ")))
	}
	if len(parts) == 0 {
		return "invalid reorder"
	}
	return "invalid reorder: " + strings.Join(parts, "; ")
}
