package repository

import (
	"context"
	"fmt"

	"timber_threads/internal/domain/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

type ContactRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewContactRepo(db *pgxpool.Pool) *ContactRepo {
	return &ContactRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// SaveInquiry stores a contact form submission and returns its id.
func (r *ContactRepo) SaveInquiry(ctx context.Context, inquiry models.ContactInquiry) (uuid.UUID, error) {
	const op = "repository.ContactRepo.SaveInquiry"

	query, args, err := r.sb.Insert("contact_inquiries").
		Columns(
			"name",
			"email",
			"phone",
			"message",
			"interests",
		).
		Values(
			inquiry.Name,
			inquiry.Email,
			inquiry.Phone,
			inquiry.Message,
			pq.Array(inquiry.Interests),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// GetInquiries returns a page of submissions, newest first, and the total
// count.
func (r *ContactRepo) GetInquiries(ctx context.Context, page, perPage int) ([]models.ContactInquiry, int, error) {
	const op = "repository.ContactRepo.GetInquiries"

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").
		From("contact_inquiries").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.sb.Select(
		"id",
		"name",
		"email",
		"phone",
		"message",
		"interests",
		"created_at",
	).
		From("contact_inquiries").
		OrderBy("created_at DESC").
		Limit(uint64(perPage)).
		Offset(uint64((page - 1) * perPage)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var inquiries []models.ContactInquiry
	for rows.Next() {
		var inq models.ContactInquiry
		if err := rows.Scan(
			&inq.ID,
			&inq.Name,
			&inq.Email,
			&inq.Phone,
			&inq.Message,
			pq.Array(&inq.Interests),
			&inq.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		inquiries = append(inquiries, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return inquiries, total, nil
}
