package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stored installment states. Only these two are ever written; "overdue" is
// a display status derived at read time from the due date.
const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusOverdue = "overdue"
)

// Installment is one scheduled payment within an agreement. DueDate is a
// Jalali date string with ASCII digits, zero-padded so that strings compare
// in date order.
type Installment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	AgreementID       uuid.UUID       `json:"agreement_id" db:"agreement_id"`
	Number            int             `json:"installment_number" db:"installment_number"`
	DueDate           string          `json:"due_date" db:"due_date"`
	InstallmentAmount decimal.Decimal `json:"installment_amount" db:"installment_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance" db:"remaining_balance"`
	Status            string          `json:"status" db:"status"`
	PaidAt            *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// DisplayStatus maps the stored two-state flag to the three-state view:
// a pending installment whose due date has passed shows as overdue.
func (i *Installment) DisplayStatus(todayJalali string) string {
	if i.Status == InstallmentStatusPending && i.DueDate < todayJalali {
		return InstallmentStatusOverdue
	}
	return i.Status
}

type ScheduleResponse struct {
	AgreementID  uuid.UUID      `json:"agreement_id"`
	Installments []*Installment `json:"installments"`
}
