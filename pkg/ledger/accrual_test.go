package ledger

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvalderas/lendbook/pkg/models"
)

func newTestLoan(principal int64, rate string, freq models.Frequency, indefinite bool, term int, start civil.Date) models.Loan {
	return models.Loan{
		ID:              uuid.New(),
		DebtorID:        uuid.New(),
		Principal:       principal,
		PeriodicRate:    decimal.RequireFromString(rate),
		Frequency:       freq,
		Indefinite:      indefinite,
		TermPeriods:     term,
		StartDate:       start,
		Status:          models.LoanStatusActive,
		RemainingAmount: principal,
		Version:         1,
	}
}

// 500,000.00 at 0.5% per day starting 2024-01-01: ten elapsed days on
// 2024-01-11 accrue 25,000.00.
func TestAccruedInterest_IndefiniteDaily(t *testing.T) {
	loan := newTestLoan(50_000_000, "0.005", models.FrequencyDaily, true, 0, date(2024, time.January, 1))

	got := AccruedInterest(loan, date(2024, time.January, 11))
	if got != 2_500_000 {
		t.Errorf("expected accrued 2500000, got %d", got)
	}
}

func TestAccruedInterest_ZeroAtStartDate(t *testing.T) {
	loans := []models.Loan{
		newTestLoan(50_000_000, "0.005", models.FrequencyDaily, true, 0, date(2024, time.January, 1)),
		newTestLoan(100_000_000, "0.10", models.FrequencyMonthly, false, 12, date(2024, time.March, 15)),
		newTestLoan(100_000, "0.02", models.FrequencyWeekly, true, 0, date(2024, time.June, 3)),
	}
	for _, loan := range loans {
		if got := AccruedInterest(loan, loan.StartDate); got != 0 {
			t.Errorf("%s loan: expected zero accrual at start date, got %d", loan.Frequency, got)
		}
	}
}

func TestAccruedInterest_BeforeStartDate(t *testing.T) {
	loan := newTestLoan(50_000_000, "0.005", models.FrequencyDaily, true, 0, date(2024, time.January, 1))
	if got := AccruedInterest(loan, date(2023, time.December, 31)); got != 0 {
		t.Errorf("expected zero accrual before start date, got %d", got)
	}
}

func TestAccruedInterest_CappedAtTerm(t *testing.T) {
	loan := newTestLoan(100_000_000, "0.10", models.FrequencyMonthly, false, 12, date(2024, time.January, 1))

	atTerm := AccruedInterest(loan, date(2025, time.January, 1))
	wayPast := AccruedInterest(loan, date(2030, time.January, 1))

	if atTerm != 120_000_000 {
		t.Errorf("expected accrued 120000000 at term, got %d", atTerm)
	}
	if wayPast != atTerm {
		t.Errorf("interest kept accruing past the term: %d vs %d", wayPast, atTerm)
	}
}

func TestAccruedInterest_NonPositiveInputs(t *testing.T) {
	zeroPrincipal := newTestLoan(0, "0.10", models.FrequencyDaily, true, 0, date(2024, time.January, 1))
	if got := AccruedInterest(zeroPrincipal, date(2024, time.June, 1)); got != 0 {
		t.Errorf("expected zero accrual for zero principal, got %d", got)
	}

	zeroRate := newTestLoan(50_000_000, "0", models.FrequencyDaily, true, 0, date(2024, time.January, 1))
	if got := AccruedInterest(zeroRate, date(2024, time.June, 1)); got != 0 {
		t.Errorf("expected zero accrual for zero rate, got %d", got)
	}
}

func TestAccruedInterest_Monotonic(t *testing.T) {
	loan := newTestLoan(100_000_000, "0.10", models.FrequencyMonthly, false, 12, date(2024, time.January, 31))

	prev := int64(0)
	asOf := loan.StartDate
	for i := 0; i < 500; i++ {
		got := AccruedInterest(loan, asOf)
		if got < prev {
			t.Fatalf("accrual decreased from %d to %d at %s", prev, got, asOf)
		}
		prev = got
		asOf = asOf.AddDays(3)
	}
}

// 1,000,000.00 at 10% per period over 12 monthly periods: total interest
// 1,200,000.00, total payment 2,200,000.00, installment 183,333.33.
func TestContractSchedule_FixedTerm(t *testing.T) {
	loan := newTestLoan(100_000_000, "0.10", models.FrequencyMonthly, false, 12, date(2024, time.January, 1))

	schedule := ContractSchedule(loan)
	if schedule.TotalInterest != 120_000_000 {
		t.Errorf("expected total interest 120000000, got %d", schedule.TotalInterest)
	}
	if schedule.TotalPayment != 220_000_000 {
		t.Errorf("expected total payment 220000000, got %d", schedule.TotalPayment)
	}
	if schedule.PeriodPayment != 18_333_333 {
		t.Errorf("expected period payment 18333333, got %d", schedule.PeriodPayment)
	}
}

func TestContractSchedule_Indefinite(t *testing.T) {
	loan := newTestLoan(100_000_000, "0.10", models.FrequencyMonthly, true, 0, date(2024, time.January, 1))
	if schedule := ContractSchedule(loan); schedule != (Schedule{}) {
		t.Errorf("expected empty schedule for an indefinite loan, got %+v", schedule)
	}
}

func TestRemainingAmount(t *testing.T) {
	loan := newTestLoan(50_000_000, "0.005", models.FrequencyDaily, true, 0, date(2024, time.January, 1))
	asOf := date(2024, time.January, 11) // accrued 2,500,000

	if got := RemainingAmount(loan, asOf); got != 52_500_000 {
		t.Errorf("expected remaining 52500000, got %d", got)
	}

	loan.PaidInterest = 2_500_000
	loan.PaidCapital = 10_000_000
	loan.PaidAmount = 12_500_000
	if got := RemainingAmount(loan, asOf); got != 40_000_000 {
		t.Errorf("expected remaining 40000000 after payments, got %d", got)
	}

	// Paid interest above current accrual (back-dated as-of) clamps to zero
	// pending interest instead of going negative.
	if got := RemainingAmount(loan, date(2024, time.January, 6)); got != 40_000_000 {
		t.Errorf("expected remaining 40000000 at earlier date, got %d", got)
	}
}
