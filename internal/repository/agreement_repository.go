package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taghsit/installment-engine/internal/domain"
)

type agreementRepository struct {
	db *sqlx.DB
}

func NewAgreementRepository(db *sqlx.DB) AgreementRepository {
	return &agreementRepository{db: db}
}

func (r *agreementRepository) CreateWithInstallments(ctx context.Context, agreement *domain.InstallmentAgreement, installments []*domain.Installment) error {
	agreementQuery := `
		INSERT INTO agreements (
			id, order_id, customer_id, total_amount, down_payment, principal_amount,
			annual_rate, monthly_rate, number_of_installments, installment_amount,
			total_interest, total_payment, guarantee_type, agreement_date, status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	installmentQuery := `
		INSERT INTO installments (
			id, agreement_id, installment_number, due_date, installment_amount,
			interest_amount, principal_amount, remaining_balance, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, agreementQuery,
		agreement.ID,
		agreement.OrderID,
		agreement.CustomerID,
		agreement.TotalAmount,
		agreement.DownPayment,
		agreement.PrincipalAmount,
		agreement.AnnualRate,
		agreement.MonthlyRate,
		agreement.NumberOfInstallments,
		agreement.InstallmentAmount,
		agreement.TotalInterest,
		agreement.TotalPayment,
		agreement.GuaranteeType,
		agreement.AgreementDate,
		agreement.Status,
		agreement.CreatedAt,
		agreement.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, installment := range installments {
		_, err = tx.ExecContext(ctx, installmentQuery,
			installment.ID,
			installment.AgreementID,
			installment.Number,
			installment.DueDate,
			installment.InstallmentAmount,
			installment.InterestAmount,
			installment.PrincipalAmount,
			installment.RemainingBalance,
			installment.Status,
			installment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *agreementRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentAgreement, error) {
	query := `
		SELECT id, order_id, customer_id, total_amount, down_payment, principal_amount,
		       annual_rate, monthly_rate, number_of_installments, installment_amount,
		       total_interest, total_payment, guarantee_type, agreement_date, status,
		       created_at, updated_at
		FROM agreements
		WHERE id = $1
	`

	var agreement domain.InstallmentAgreement
	err := r.db.GetContext(ctx, &agreement, query, id)
	if err != nil {
		return nil, err
	}

	return &agreement, nil
}

func (r *agreementRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.InstallmentAgreement, error) {
	query := `
		SELECT id, order_id, customer_id, total_amount, down_payment, principal_amount,
		       annual_rate, monthly_rate, number_of_installments, installment_amount,
		       total_interest, total_payment, guarantee_type, agreement_date, status,
		       created_at, updated_at
		FROM agreements
		WHERE order_id = $1
	`

	var agreement domain.InstallmentAgreement
	err := r.db.GetContext(ctx, &agreement, query, orderID)
	if err != nil {
		return nil, err
	}

	return &agreement, nil
}

func (r *agreementRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE agreements
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, status)
	return err
}
