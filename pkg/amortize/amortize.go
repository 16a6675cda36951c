// Package amortize computes fixed-payment installment schedules for credit
// sales: the annuity payment for a principal over n monthly periods, its
// per-period interest/principal decomposition against a declining balance,
// and Jalali due-date projection for each period.
package amortize

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/taghsit/installment-engine/pkg/jalali"
)

// PaymentDenomination is the currency unit the fixed monthly payment is
// rounded to (nearest, half up) before the schedule is decomposed.
const PaymentDenomination = 100000

// InterestBasis selects which payment value the per-period decomposition
// subtracts interest from. The two call paths in the legacy system disagreed
// on this, so both are kept explicit.
type InterestBasis int

const (
	// BasisRoundedPayment decomposes against the denomination-rounded
	// payment. This is the order-approval path and the default.
	BasisRoundedPayment InterestBasis = iota
	// BasisRawPayment decomposes against the unrounded annuity value while
	// still displaying the rounded payment, as the standalone calculator did.
	BasisRawPayment
)

var (
	ErrInvalidTerms = errors.New("invalid agreement terms")
)

// Terms are the inputs of a schedule computation. AnnualRate is a percent
// (36 means 36%/year) and may be zero. The upper bound on installment count
// is caller policy and is intentionally not enforced here.
type Terms struct {
	TotalAmount          decimal.Decimal
	DownPayment          decimal.Decimal
	NumberOfInstallments int
	AnnualRate           decimal.Decimal
	AgreementDate        string // Jalali "YYYY/MM/DD", ASCII or Persian digits
	InterestBasis        InterestBasis
}

// Line is one period of a schedule.
type Line struct {
	Number            int             `json:"installment_number"`
	DueDate           string          `json:"due_date"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
}

// Schedule is the full computed result: summary aggregates plus the ordered
// per-period lines.
type Schedule struct {
	PrincipalAmount      decimal.Decimal `json:"principal_amount"`
	MonthlyRatePercent   decimal.Decimal `json:"monthly_rate_percent"`
	NumberOfInstallments int             `json:"number_of_installments"`
	InstallmentAmount    decimal.Decimal `json:"installment_amount"`
	TotalInterest        decimal.Decimal `json:"total_interest"`
	TotalPayment         decimal.Decimal `json:"total_payment"`
	Lines                []Line          `json:"installments"`
}

var (
	twelve       = decimal.NewFromInt(12)
	hundred      = decimal.NewFromInt(100)
	one          = decimal.NewFromInt(1)
	denomination = decimal.NewFromInt(PaymentDenomination)
)

// Compute builds the schedule for the given terms. It returns a nil schedule
// with ErrInvalidTerms when the down payment is not smaller than the total,
// the principal comes out non-positive, or the installment count is below 1.
// These are benign "cannot compute" outcomes for the caller to surface.
func Compute(t Terms) (*Schedule, error) {
	if t.NumberOfInstallments < 1 {
		return nil, ErrInvalidTerms
	}
	principal := t.TotalAmount.Sub(t.DownPayment)
	if !principal.IsPositive() {
		return nil, ErrInvalidTerms
	}

	n := t.NumberOfInstallments
	nDec := decimal.NewFromInt(int64(n))
	monthlyRate := t.AnnualRate.Div(twelve).Div(hundred)

	// Annuity formula; straight-line when the rate is zero to avoid 0/0.
	var rawPayment decimal.Decimal
	if monthlyRate.IsZero() {
		rawPayment = principal.Div(nDec)
	} else {
		compound := one.Add(monthlyRate).Pow(nDec)
		rawPayment = principal.Mul(monthlyRate).Mul(compound).Div(compound.Sub(one))
	}
	payment := roundToDenomination(rawPayment)

	basis := payment
	if t.InterestBasis == BasisRawPayment {
		basis = rawPayment
	}

	lines := make([]Line, 0, n)
	balance := principal
	for i := 1; i <= n; i++ {
		interest := balance.Mul(monthlyRate).Round(0)

		var principalPart decimal.Decimal
		if i == n {
			// Last period absorbs all rounding drift: exact remaining
			// balance, never a computed value.
			principalPart = balance
		} else {
			principalPart = basis.Sub(interest)
		}

		balance = balance.Sub(principalPart)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		lines = append(lines, Line{
			Number:            i,
			DueDate:           jalali.InstallmentDueDate(t.AgreementDate, i),
			InstallmentAmount: payment,
			InterestAmount:    interest,
			PrincipalAmount:   principalPart,
			RemainingBalance:  balance,
		})
	}

	totalPayment := payment.Mul(nDec)
	return &Schedule{
		PrincipalAmount:      principal,
		MonthlyRatePercent:   t.AnnualRate.Div(twelve),
		NumberOfInstallments: n,
		InstallmentAmount:    payment,
		TotalInterest:        totalPayment.Sub(principal),
		TotalPayment:         totalPayment,
		Lines:                lines,
	}, nil
}

// roundToDenomination rounds to the nearest multiple of PaymentDenomination,
// halves up.
func roundToDenomination(v decimal.Decimal) decimal.Decimal {
	return v.Div(denomination).Round(0).Mul(denomination)
}
