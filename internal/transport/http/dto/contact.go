package dto

import "timber_threads/internal/domain/models"

type ContactRequest struct {
	Name      string   `json:"name" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Phone     string   `json:"phone"`
	Message   string   `json:"message" validate:"required"`
	Interests []string `json:"interests"`
}

type ContactListResponse struct {
	Inquiries []models.ContactInquiry `json:"inquiries"`
	Total     int                     `json:"total"`
	Page      int                     `json:"page"`
	PerPage   int                     `json:"per_page"`
}
