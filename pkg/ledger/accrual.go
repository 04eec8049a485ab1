package ledger

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/mvalderas/lendbook/pkg/models"
)

// Schedule holds the contract-time quantities of a fixed-term loan. They
// are computed once at origination and treated as constants afterwards.
// The installment is a flat (simple-interest) split of the total payment,
// not a declining-balance amortization.
type Schedule struct {
	TotalInterest int64
	TotalPayment  int64
	PeriodPayment int64
}

// InterestPerPeriod returns the interest charged per whole period, in minor
// units, rounded half away from zero. Non-positive principal or rate
// charges nothing.
func InterestPerPeriod(loan models.Loan) int64 {
	if loan.Principal <= 0 || loan.PeriodicRate.Sign() <= 0 {
		return 0
	}
	return decimal.NewFromInt(loan.Principal).Mul(loan.PeriodicRate).Round(0).IntPart()
}

// AccruedInterest returns the interest accrued as of the given date,
// independent of what has been paid. Fixed-term loans stop accruing once
// the contracted term is exhausted, however late asOf is.
func AccruedInterest(loan models.Loan, asOf civil.Date) int64 {
	perPeriod := InterestPerPeriod(loan)
	if perPeriod == 0 {
		return 0
	}
	periods := ElapsedPeriods(loan.StartDate, asOf, loan.Frequency)
	if !loan.Indefinite && periods > loan.TermPeriods {
		periods = loan.TermPeriods
	}
	return perPeriod * int64(periods)
}

// PendingInterest is accrued-but-unpaid interest as of the given date.
func PendingInterest(loan models.Loan, asOf civil.Date) int64 {
	return clampAmount(AccruedInterest(loan, asOf) - loan.PaidInterest)
}

// PendingCapital is the unpaid part of the principal.
func PendingCapital(loan models.Loan) int64 {
	return clampAmount(loan.Principal - loan.PaidCapital)
}

// RemainingAmount is what the borrower still owes as of the given date:
// pending capital plus pending interest.
func RemainingAmount(loan models.Loan, asOf civil.Date) int64 {
	return PendingCapital(loan) + PendingInterest(loan, asOf)
}

// ContractSchedule computes the fixed-term contract quantities. The period
// payment is the equal installment that settles principal and total
// interest over the term, rounded to the minor unit.
func ContractSchedule(loan models.Loan) Schedule {
	if loan.Indefinite || loan.TermPeriods <= 0 {
		return Schedule{}
	}
	totalInterest := InterestPerPeriod(loan) * int64(loan.TermPeriods)
	totalPayment := loan.Principal + totalInterest
	periodPayment := decimal.NewFromInt(totalPayment).
		Div(decimal.NewFromInt(int64(loan.TermPeriods))).
		Round(0).IntPart()
	return Schedule{
		TotalInterest: totalInterest,
		TotalPayment:  totalPayment,
		PeriodPayment: periodPayment,
	}
}

func clampAmount(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
