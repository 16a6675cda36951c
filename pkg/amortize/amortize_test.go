package amortize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terms(total, down int64, n int, rate float64) Terms {
	return Terms{
		TotalAmount:          decimal.NewFromInt(total),
		DownPayment:          decimal.NewFromInt(down),
		NumberOfInstallments: n,
		AnnualRate:           decimal.NewFromFloat(rate),
		AgreementDate:        "1403/01/01",
	}
}

func TestComputeExampleScenario(t *testing.T) {
	schedule, err := Compute(terms(10_000_000, 1_000_000, 12, 36))
	require.NoError(t, err)
	require.NotNil(t, schedule)

	assert.True(t, schedule.PrincipalAmount.Equal(decimal.NewFromInt(9_000_000)))
	assert.True(t, schedule.MonthlyRatePercent.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 12, schedule.NumberOfInstallments)
	require.Len(t, schedule.Lines, 12)

	// The raw annuity payment is ~904,159 and rounds down to 900,000.
	assert.True(t, schedule.InstallmentAmount.Equal(decimal.NewFromInt(900_000)),
		"expected 900000, got %s", schedule.InstallmentAmount)
	assert.True(t, schedule.TotalPayment.Equal(decimal.NewFromInt(10_800_000)))
	assert.True(t, schedule.TotalInterest.Equal(decimal.NewFromInt(1_800_000)))

	// First period: interest on the full principal, principal is the rest.
	first := schedule.Lines[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "1403/02/01", first.DueDate)
	assert.True(t, first.InterestAmount.Equal(decimal.NewFromInt(270_000)))
	assert.True(t, first.PrincipalAmount.Equal(decimal.NewFromInt(630_000)))
	assert.True(t, first.RemainingBalance.Equal(decimal.NewFromInt(8_370_000)))

	// Due dates advance one month per row, numbers are sequential.
	expectedDates := []string{
		"1403/02/01", "1403/03/01", "1403/04/01", "1403/05/01",
		"1403/06/01", "1403/07/01", "1403/08/01", "1403/09/01",
		"1403/10/01", "1403/11/01", "1403/12/01", "1404/01/01",
	}
	for i, line := range schedule.Lines {
		assert.Equal(t, i+1, line.Number)
		assert.Equal(t, expectedDates[i], line.DueDate)
	}

	last := schedule.Lines[11]
	assert.True(t, last.RemainingBalance.IsZero())
}

func TestComputeConservation(t *testing.T) {
	tests := []struct {
		name string
		t    Terms
	}{
		{"example scenario", terms(10_000_000, 1_000_000, 12, 36)},
		{"no down payment", terms(50_000_000, 0, 24, 24)},
		{"single installment", terms(7_000_000, 2_000_000, 1, 36)},
		{"long schedule", terms(120_000_000, 20_000_000, 60, 18)},
		{"zero rate", terms(12_000_000, 0, 12, 0)},
		{"fractional rate", terms(33_000_000, 3_000_000, 18, 21.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := Compute(tt.t)
			require.NoError(t, err)

			principal := tt.t.TotalAmount.Sub(tt.t.DownPayment)

			sum := decimal.Zero
			prev := principal
			for _, line := range schedule.Lines {
				sum = sum.Add(line.PrincipalAmount)
				assert.True(t, line.RemainingBalance.LessThanOrEqual(prev),
					"balance must be non-increasing at period %d", line.Number)
				prev = line.RemainingBalance
			}

			// Sum of per-period principal equals the principal exactly: the
			// last period absorbs all rounding drift.
			assert.True(t, sum.Equal(principal), "expected %s, got %s", principal, sum)
			assert.True(t, schedule.Lines[len(schedule.Lines)-1].RemainingBalance.IsZero())
		})
	}
}

func TestComputePaymentDenomination(t *testing.T) {
	schedule, err := Compute(terms(10_000_000, 1_000_000, 12, 36))
	require.NoError(t, err)

	denom := decimal.NewFromInt(PaymentDenomination)
	for _, line := range schedule.Lines {
		assert.True(t, line.InstallmentAmount.Mod(denom).IsZero(),
			"installment amount %s is not a multiple of %d", line.InstallmentAmount, PaymentDenomination)
	}
}

func TestComputeZeroRate(t *testing.T) {
	schedule, err := Compute(terms(1_200_000, 0, 12, 0))
	require.NoError(t, err)

	assert.True(t, schedule.TotalInterest.IsZero())
	for _, line := range schedule.Lines {
		assert.True(t, line.InterestAmount.IsZero())
		assert.True(t, line.PrincipalAmount.Equal(decimal.NewFromInt(100_000)))
	}
}

func TestComputeInvalidTerms(t *testing.T) {
	tests := []struct {
		name string
		t    Terms
	}{
		{"down payment equals total", terms(5_000_000, 5_000_000, 12, 36)},
		{"down payment exceeds total", terms(5_000_000, 6_000_000, 12, 36)},
		{"zero installments", terms(5_000_000, 1_000_000, 0, 36)},
		{"negative installments", terms(5_000_000, 1_000_000, -3, 36)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := Compute(tt.t)
			assert.Nil(t, schedule)
			assert.ErrorIs(t, err, ErrInvalidTerms)
		})
	}
}

func TestComputeInterestBases(t *testing.T) {
	rounded, err := Compute(terms(10_000_000, 1_000_000, 12, 36))
	require.NoError(t, err)

	rawTerms := terms(10_000_000, 1_000_000, 12, 36)
	rawTerms.InterestBasis = BasisRawPayment
	raw, err := Compute(rawTerms)
	require.NoError(t, err)

	// Both modes display the same rounded payment and conserve the
	// principal; they differ in how the declining balance runs down.
	assert.True(t, raw.InstallmentAmount.Equal(rounded.InstallmentAmount))
	assert.False(t, raw.Lines[0].PrincipalAmount.Equal(rounded.Lines[0].PrincipalAmount))

	for _, schedule := range []*Schedule{rounded, raw} {
		sum := decimal.Zero
		for _, line := range schedule.Lines {
			sum = sum.Add(line.PrincipalAmount)
		}
		assert.True(t, sum.Equal(schedule.PrincipalAmount))
	}
}

func TestComputeSingleInstallment(t *testing.T) {
	// One installment: the single period is also the last, so its principal
	// is the exact remaining balance.
	schedule, err := Compute(terms(7_000_000, 2_000_000, 1, 36))
	require.NoError(t, err)
	require.Len(t, schedule.Lines, 1)

	line := schedule.Lines[0]
	assert.True(t, line.PrincipalAmount.Equal(decimal.NewFromInt(5_000_000)))
	assert.True(t, line.RemainingBalance.IsZero())
	assert.True(t, line.InterestAmount.Equal(decimal.NewFromInt(150_000)))
}
