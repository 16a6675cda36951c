package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taghsit/installment-engine/internal/domain"
)

// AgreementRepository defines the interface for agreement data operations
type AgreementRepository interface {
	// CreateWithInstallments persists an agreement and its full installment
	// schedule in a single transaction. A schedule is never partially visible.
	CreateWithInstallments(ctx context.Context, agreement *domain.InstallmentAgreement, installments []*domain.Installment) error

	// GetByID retrieves an agreement by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentAgreement, error)

	// GetByOrderID retrieves the agreement created for an order, if any
	GetByOrderID(ctx context.Context, orderID string) (*domain.InstallmentAgreement, error)

	// UpdateStatus updates the agreement status
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	// GetByAgreementID retrieves the schedule ordered by installment number
	GetByAgreementID(ctx context.Context, agreementID uuid.UUID) ([]*domain.Installment, error)

	// GetByNumber retrieves a single installment of an agreement
	GetByNumber(ctx context.Context, agreementID uuid.UUID, number int) (*domain.Installment, error)

	// MarkPaid flips a pending installment to paid. It reports whether a row
	// actually changed so callers can detect double payments.
	MarkPaid(ctx context.Context, agreementID uuid.UUID, number int, paidAt time.Time) (bool, error)

	// CountPending counts installments still pending for an agreement
	CountPending(ctx context.Context, agreementID uuid.UUID) (int, error)

	// GetPendingDueBetween retrieves pending installments with a due date in
	// [from, to], both Jalali ASCII strings, inclusive
	GetPendingDueBetween(ctx context.Context, from, to string) ([]*domain.Installment, error)

	// GetPendingDueBefore retrieves pending installments due strictly before
	// the given Jalali ASCII date
	GetPendingDueBefore(ctx context.Context, date string) ([]*domain.Installment, error)
}

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	// Create creates a new customer
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
}
