package ledger

import (
	"cloud.google.com/go/civil"

	"github.com/mvalderas/lendbook/pkg/models"
)

// Closeout is the frozen result of finalizing an indefinite loan.
type Closeout struct {
	FinalInterest int64      `json:"final_interest"`
	TotalPayment  int64      `json:"total_payment"`
	EndDate       civil.Date `json:"end_date"`
}

// Finalize closes an indefinite loan: interest accrued up to asOf becomes
// the loan's contracted total, and the loan moves to completed. Completed
// is terminal; no accrual or payment allocation happens afterwards.
//
// Like Allocate, this is a pure function over the snapshot. Fixed-term
// loans cannot be finalized; they complete by paying down to zero.
func Finalize(loan models.Loan, asOf civil.Date) (models.Loan, Closeout, error) {
	if !loan.Indefinite {
		return models.Loan{}, Closeout{}, ErrNotIndefinite
	}
	if loan.Status != models.LoanStatusActive {
		return models.Loan{}, Closeout{}, ErrAlreadyFinalized
	}

	finalAccrued := AccruedInterest(loan, asOf)
	end := asOf

	next := loan
	next.TotalInterest = finalAccrued
	next.TotalPayment = loan.Principal + finalAccrued
	next.RemainingAmount = RemainingAmount(loan, asOf)
	next.EndDate = &end
	next.Status = models.LoanStatusCompleted

	closeout := Closeout{
		FinalInterest: finalAccrued,
		TotalPayment:  next.TotalPayment,
		EndDate:       end,
	}
	return next, closeout, nil
}
