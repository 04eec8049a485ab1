package ledger

import (
	"cloud.google.com/go/civil"

	"github.com/mvalderas/lendbook/pkg/models"
)

// Allocate applies a payment to a loan snapshot and returns the updated
// snapshot plus the payment record the caller must persist alongside it.
// The function is pure: it never mutates its input, and on error the
// returned loan is the zero value, so a failed payment cannot leak partial
// state.
//
// Interest payments may not exceed the interest accrued-but-unpaid as of
// the payment date; capital payments may not exceed the unpaid principal.
// Back-dated payment dates are honored as given, so the accrual snapshot is
// always relative to the stated date, not the wall clock.
func Allocate(loan models.Loan, amount int64, ptype models.PaymentType, date civil.Date) (models.Loan, models.Payment, error) {
	if loan.Status != models.LoanStatusActive {
		return models.Loan{}, models.Payment{}, ErrLoanNotActive
	}
	if amount <= 0 {
		return models.Loan{}, models.Payment{}, ErrInvalidAmount
	}

	accrued := AccruedInterest(loan, date)
	var interestPayment, capitalPayment int64
	switch ptype {
	case models.PaymentTypeInterest:
		if amount > clampAmount(accrued-loan.PaidInterest) {
			return models.Loan{}, models.Payment{}, ErrExceedsPendingInterest
		}
		interestPayment = amount
	case models.PaymentTypeCapital:
		if amount > clampAmount(loan.Principal-loan.PaidCapital) {
			return models.Loan{}, models.Payment{}, ErrExceedsPendingCapital
		}
		capitalPayment = amount
	default:
		return models.Loan{}, models.Payment{}, ErrInvalidAmount
	}

	next := loan
	next.PaidInterest += interestPayment
	next.PaidCapital += capitalPayment
	next.PaidAmount += amount

	pendingInterest := clampAmount(accrued - next.PaidInterest)
	pendingCapital := clampAmount(next.Principal - next.PaidCapital)
	next.RemainingAmount = pendingCapital + pendingInterest
	if next.RemainingAmount <= 0 {
		next.Status = models.LoanStatusCompleted
	}

	payment := models.Payment{
		LoanID:                   loan.ID,
		Amount:                   amount,
		Type:                     ptype,
		PaymentDate:              date,
		InterestPayment:          interestPayment,
		CapitalPayment:           capitalPayment,
		AccruedInterestAtPayment: accrued,
	}
	return next, payment, nil
}
