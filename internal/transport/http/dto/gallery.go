package dto

import "timber_threads/internal/domain/models"

// Wire names match the deployed admin panel: the source id travels as "src".

type ImageRefRequest struct {
	Src string `json:"src" validate:"required"`
}

type UpdateCaptionRequest struct {
	Src     string `json:"src" validate:"required"`
	Caption string `json:"caption"`
}

type UpdateSectionRequest struct {
	Src        string `json:"src" validate:"required"`
	NewSection string `json:"newSection" validate:"required"`
}

type UpdateOrderRequest struct {
	Section       string   `json:"section" validate:"required"`
	OrderedImages []string `json:"orderedImages" validate:"required,min=1"`
}

type UploadImageResponse struct {
	Message string             `json:"message"`
	URL     string             `json:"url"`
	Image   models.ImageRecord `json:"image"`
}
