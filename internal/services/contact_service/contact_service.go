package services

import (
	"context"
	"fmt"
	"log/slog"

	"timber_threads/internal/domain/models"
	"timber_threads/internal/lib/logger/sl"
	"timber_threads/internal/repository"
	"timber_threads/internal/transport/http/dto"

	"github.com/google/uuid"
)

type ContactService struct {
	log  *slog.Logger
	repo repository.ContactRepository
}

func NewContactService(log *slog.Logger, repo repository.ContactRepository) *ContactService {
	return &ContactService{
		log:  log,
		repo: repo,
	}
}

// Submit stores a contact form submission.
func (s *ContactService) Submit(ctx context.Context, req dto.ContactRequest) (uuid.UUID, error) {
	const op = "service.ContactService.Submit"
	log := s.log.With(
		slog.String("op", op),
		slog.String("email", req.Email),
	)

	inquiry := models.ContactInquiry{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
		Interests: req.Interests,
	}

	id, err := s.repo.SaveInquiry(ctx, inquiry)
	if err != nil {
		log.Error("failed to save inquiry", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("inquiry saved", slog.String("id", id.String()))
	return id, nil
}

// ListInquiries returns a page of submissions for the admin panel.
func (s *ContactService) ListInquiries(ctx context.Context, page, perPage int) (*dto.ContactListResponse, error) {
	const op = "service.ContactService.ListInquiries"
	log := s.log.With(
		slog.String("op", op),
		slog.Int("page", page),
		slog.Int("per_page", perPage),
	)

	inquiries, total, err := s.repo.GetInquiries(ctx, page, perPage)
	if err != nil {
		log.Error("failed to list inquiries", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &dto.ContactListResponse{
		Inquiries: inquiries,
		Total:     total,
		Page:      page,
		PerPage:   perPage,
	}, nil
}
