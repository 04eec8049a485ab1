package models

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency is the billing interval of a loan. Interest accrues once per
// whole elapsed period.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed" // terminal
)

type PaymentType string

const (
	PaymentTypeInterest PaymentType = "interest"
	PaymentTypeCapital  PaymentType = "capital"
)

// Debtor is the person a loan was made to. Purely descriptive; balances
// live on the loans.
type Debtor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Loan is the aggregate root of the ledger. All monetary fields are int64
// minor units (cents); PeriodicRate is the interest fraction charged per
// period, not annualized.
//
// Principal and StartDate are fixed at origination. The paid accumulators
// only ever grow, and only through payment allocation. Version backs the
// optimistic concurrency check in the store: every successful update
// increments it, and writers must present the version they read.
type Loan struct {
	ID           uuid.UUID       `json:"id"`
	DebtorID     uuid.UUID       `json:"debtor_id"`
	Principal    int64           `json:"principal"`
	PeriodicRate decimal.Decimal `json:"periodic_rate"`
	Frequency    Frequency       `json:"frequency"`
	Indefinite   bool            `json:"indefinite"`
	TermPeriods  int             `json:"term_periods,omitempty"`
	StartDate    civil.Date      `json:"start_date"`
	Status       LoanStatus      `json:"status"`

	PaidInterest    int64 `json:"paid_interest"`
	PaidCapital     int64 `json:"paid_capital"`
	PaidAmount      int64 `json:"paid_amount"`
	RemainingAmount int64 `json:"remaining_amount"`

	// Contract quantities. Fixed-term loans get all three at origination;
	// indefinite loans get TotalInterest and TotalPayment frozen at
	// finalization and never have a PeriodPayment.
	TotalInterest int64 `json:"total_interest"`
	TotalPayment  int64 `json:"total_payment"`
	PeriodPayment int64 `json:"period_payment,omitempty"`

	EndDate   *civil.Date `json:"end_date,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Version   int64       `json:"version"`
}

// Payment is an immutable, append-only event. The interest/capital split
// and the accrued-interest snapshot are recorded for audit and never
// recomputed.
type Payment struct {
	ID                       uuid.UUID   `json:"id"`
	LoanID                   uuid.UUID   `json:"loan_id"`
	Amount                   int64       `json:"amount"`
	Type                     PaymentType `json:"type"`
	PaymentDate              civil.Date  `json:"payment_date"`
	InterestPayment          int64       `json:"interest_payment"`
	CapitalPayment           int64       `json:"capital_payment"`
	AccruedInterestAtPayment int64       `json:"accrued_interest_at_payment"`
	CreatedAt                time.Time   `json:"created_at"`
}

var minorFactor = decimal.NewFromInt(100)

// ToMinor converts a major-unit decimal amount into minor units. Amounts
// with sub-cent precision are rejected rather than silently rounded.
func ToMinor(d decimal.Decimal) (int64, error) {
	scaled := d.Mul(minorFactor)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-cent precision", d)
	}
	return scaled.IntPart(), nil
}

// FromMinor converts minor units back into a major-unit decimal.
func FromMinor(units int64) decimal.Decimal {
	return decimal.NewFromInt(units).Div(minorFactor)
}
