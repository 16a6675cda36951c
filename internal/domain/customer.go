package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the read-mostly party referenced by agreements; the reminder
// job needs the phone number, the admin UI the rest.
type Customer struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FullName   string    `json:"full_name" db:"full_name"`
	Phone      string    `json:"phone" db:"phone"`
	NationalID string    `json:"national_id" db:"national_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type CreateCustomerRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	NationalID string `json:"national_id" validate:"omitempty,len=10,numeric"`
}
