package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AgreementStatusPending = "pending"
	AgreementStatusSettled = "settled"
)

const (
	GuaranteeCheque = "cheque"
	GuaranteeGold   = "gold"
)

// InstallmentAgreement is the installment-sale contract created when an
// order is approved for credit. It is created atomically together with its
// full set of Installment children and is immutable afterwards except for
// its status.
type InstallmentAgreement struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	OrderID              string          `json:"order_id" db:"order_id"`
	CustomerID           uuid.UUID       `json:"customer_id" db:"customer_id"`
	TotalAmount          decimal.Decimal `json:"total_amount" db:"total_amount"`
	DownPayment          decimal.Decimal `json:"down_payment" db:"down_payment"`
	PrincipalAmount      decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	AnnualRate           decimal.Decimal `json:"annual_rate" db:"annual_rate"`
	MonthlyRate          decimal.Decimal `json:"monthly_rate" db:"monthly_rate"`
	NumberOfInstallments int             `json:"number_of_installments" db:"number_of_installments"`
	InstallmentAmount    decimal.Decimal `json:"installment_amount" db:"installment_amount"`
	TotalInterest        decimal.Decimal `json:"total_interest" db:"total_interest"`
	TotalPayment         decimal.Decimal `json:"total_payment" db:"total_payment"`
	GuaranteeType        string          `json:"guarantee_type" db:"guarantee_type"`
	AgreementDate        string          `json:"agreement_date" db:"agreement_date"` // Jalali, ASCII digits
	Status               string          `json:"status" db:"status"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateAgreementRequest struct {
	OrderID              string          `json:"order_id" validate:"required"`
	CustomerID           uuid.UUID       `json:"customer_id" validate:"required"`
	TotalAmount          decimal.Decimal `json:"total_amount" validate:"gt=0"`
	DownPayment          decimal.Decimal `json:"down_payment" validate:"gte=0"`
	NumberOfInstallments int             `json:"number_of_installments" validate:"required,gte=1,lte=60"`
	AnnualRate           decimal.Decimal `json:"annual_rate" validate:"gte=0"`
	GuaranteeType        string          `json:"guarantee_type" validate:"required,oneof=cheque gold"`
	AgreementDate        string          `json:"agreement_date" validate:"required"`
}

type CreateAgreementResponse struct {
	Agreement    *InstallmentAgreement `json:"agreement"`
	Installments []*Installment        `json:"installments"`
}

type OutstandingResponse struct {
	AgreementID uuid.UUID       `json:"agreement_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Pending     int             `json:"pending_installments"`
}
