package ledger

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mvalderas/lendbook/pkg/models"
)

func TestFinalize_FreezesTotals(t *testing.T) {
	loan := newTestLoan(50_000_000, "0.005", models.FrequencyDaily, true, 0, date(2024, time.January, 1))
	asOf := date(2024, time.January, 11)

	next, closeout, err := Finalize(loan, asOf)
	if err != nil {
		t.Fatalf("failed to finalize loan: %v", err)
	}

	if next.Status != models.LoanStatusCompleted {
		t.Errorf("expected status completed, got %s", next.Status)
	}
	if next.TotalInterest != 2_500_000 {
		t.Errorf("expected frozen total interest 2500000, got %d", next.TotalInterest)
	}
	if next.TotalPayment != 52_500_000 {
		t.Errorf("expected frozen total payment 52500000, got %d", next.TotalPayment)
	}
	if next.EndDate == nil || *next.EndDate != asOf {
		t.Errorf("expected end date %s, got %v", asOf, next.EndDate)
	}

	if closeout.FinalInterest != 2_500_000 || closeout.TotalPayment != 52_500_000 || closeout.EndDate != asOf {
		t.Errorf("unexpected closeout: %+v", closeout)
	}
}

func TestFinalize_FixedTermRejected(t *testing.T) {
	loan := newTestLoan(100_000_000, "0.10", models.FrequencyMonthly, false, 12, date(2024, time.January, 1))

	_, _, err := Finalize(loan, date(2024, time.June, 1))
	if !errors.Is(err, ErrNotIndefinite) {
		t.Fatalf("expected ErrNotIndefinite, got %v", err)
	}
	if !errors.Is(err, ErrState) {
		t.Errorf("expected error to match the state class")
	}
}

func TestFinalize_SecondFinalizeRejected(t *testing.T) {
	loan := newTestLoan(50_000_000, "0.005", models.FrequencyDaily, true, 0, date(2024, time.January, 1))

	closed, _, err := Finalize(loan, date(2024, time.January, 11))
	if err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}

	_, _, err = Finalize(closed, date(2024, time.February, 1))
	if !errors.Is(err, ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized, got %v", err)
	}
}

func TestFinalize_NoPaymentsAfterwards(t *testing.T) {
	loan := newTestLoan(50_000_000, "0.005", models.FrequencyDaily, true, 0, date(2024, time.January, 1))

	closed, _, err := Finalize(loan, date(2024, time.January, 11))
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	_, _, err = Allocate(closed, 1_000, models.PaymentTypeCapital, date(2024, time.January, 12))
	if !errors.Is(err, ErrLoanNotActive) {
		t.Fatalf("expected ErrLoanNotActive after finalization, got %v", err)
	}
}

func TestFinalize_Deterministic(t *testing.T) {
	loan := newTestLoan(50_000_000, "0.005", models.FrequencyDaily, true, 0, date(2024, time.January, 1))
	asOf := date(2024, time.January, 11)

	loan1, closeout1, err1 := Finalize(loan, asOf)
	loan2, closeout2, err2 := Finalize(loan, asOf)

	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(loan1, loan2) || closeout1 != closeout2 {
		t.Errorf("identical inputs produced different outputs")
	}
}
