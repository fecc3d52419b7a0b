package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactInquiry is a message submitted through the public contact form.
type ContactInquiry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Message   string    `json:"message" db:"message"`
	Interests []string  `json:"interests,omitempty" db:"interests"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
