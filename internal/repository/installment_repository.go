package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taghsit/installment-engine/internal/domain"
)

type installmentRepository struct {
	db *sqlx.DB
}

func NewInstallmentRepository(db *sqlx.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

const installmentColumns = `
	id, agreement_id, installment_number, due_date, installment_amount,
	interest_amount, principal_amount, remaining_balance, status, paid_at, created_at
`

func (r *installmentRepository) GetByAgreementID(ctx context.Context, agreementID uuid.UUID) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE agreement_id = $1
		ORDER BY installment_number
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, agreementID)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) GetByNumber(ctx context.Context, agreementID uuid.UUID, number int) (*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE agreement_id = $1 AND installment_number = $2
	`

	var installment domain.Installment
	err := r.db.GetContext(ctx, &installment, query, agreementID, number)
	if err != nil {
		return nil, err
	}

	return &installment, nil
}

func (r *installmentRepository) MarkPaid(ctx context.Context, agreementID uuid.UUID, number int, paidAt time.Time) (bool, error) {
	// Guarded update: only a pending row flips, so a concurrent double
	// payment of the same installment loses cleanly.
	query := `
		UPDATE installments
		SET status = $3, paid_at = $4
		WHERE agreement_id = $1 AND installment_number = $2 AND status = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		agreementID, number, domain.InstallmentStatusPaid, paidAt, domain.InstallmentStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *installmentRepository) CountPending(ctx context.Context, agreementID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM installments
		WHERE agreement_id = $1 AND status = $2
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, agreementID, domain.InstallmentStatusPending)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *installmentRepository) GetPendingDueBetween(ctx context.Context, from, to string) ([]*domain.Installment, error) {
	// Due dates are zero-padded Jalali ASCII strings, so text comparison is
	// date comparison.
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE status = $1 AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date, installment_number
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, domain.InstallmentStatusPending, from, to)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) GetPendingDueBefore(ctx context.Context, date string) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE status = $1 AND due_date < $2
		ORDER BY due_date, installment_number
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, domain.InstallmentStatusPending, date)
	if err != nil {
		return nil, err
	}

	return installments, nil
}
