package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvalderas/lendbook/pkg/cache"
	"github.com/mvalderas/lendbook/pkg/models"
	"github.com/mvalderas/lendbook/pkg/store"
)

// Ledger handles the business logic for debtors, loans and payments. The
// accrual and allocation math lives in the pure functions of this package;
// Ledger loads snapshots, runs them, and persists the results.
type Ledger struct {
	storage store.Storage
	cache   cache.Cache
	logger  *slog.Logger
}

// NewLedger creates a new Ledger with the given Storage and statement cache.
func NewLedger(s store.Storage, c cache.Cache, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{storage: s, cache: c, logger: logger}
}

// RegisterDebtor records a new debtor.
func (l *Ledger) RegisterDebtor(name, phone, notes string) (*models.Debtor, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: debtor name is required", ErrValidation)
	}
	debtor := &models.Debtor{
		ID:        uuid.New(),
		Name:      name,
		Phone:     phone,
		Notes:     notes,
		CreatedAt: time.Now(),
	}
	if err := l.storage.CreateDebtor(debtor); err != nil {
		return nil, fmt.Errorf("failed to store debtor: %w", err)
	}
	return debtor, nil
}

// GetDebtor retrieves a debtor by ID.
func (l *Ledger) GetDebtor(id uuid.UUID) (*models.Debtor, error) {
	return l.storage.GetDebtor(id)
}

// GetAllDebtors retrieves all debtors.
func (l *Ledger) GetAllDebtors() ([]*models.Debtor, error) {
	return l.storage.GetAllDebtors()
}

// LoanInput carries the origination parameters of a loan.
type LoanInput struct {
	DebtorID     uuid.UUID
	Principal    int64
	PeriodicRate decimal.Decimal
	Frequency    models.Frequency
	Indefinite   bool
	TermPeriods  int
	StartDate    civil.Date
}

// RegisterLoan originates a new loan. Fixed-term loans get their contract
// schedule (total interest, total payment, installment) computed here, once;
// those numbers are constants for the life of the loan.
func (l *Ledger) RegisterLoan(input LoanInput) (*models.Loan, error) {
	if input.Principal <= 0 {
		return nil, fmt.Errorf("%w: principal must be positive", ErrValidation)
	}
	if input.PeriodicRate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: periodic rate must be positive", ErrValidation)
	}
	if !input.Frequency.Valid() {
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrValidation, input.Frequency)
	}
	if !input.Indefinite && input.TermPeriods <= 0 {
		return nil, fmt.Errorf("%w: term periods required for a fixed-term loan", ErrValidation)
	}
	if !input.StartDate.IsValid() {
		return nil, fmt.Errorf("%w: invalid start date", ErrValidation)
	}
	if _, err := l.storage.GetDebtor(input.DebtorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: debtor %s not found", ErrValidation, input.DebtorID)
		}
		return nil, err
	}

	now := time.Now()
	loan := &models.Loan{
		ID:              uuid.New(),
		DebtorID:        input.DebtorID,
		Principal:       input.Principal,
		PeriodicRate:    input.PeriodicRate,
		Frequency:       input.Frequency,
		Indefinite:      input.Indefinite,
		TermPeriods:     input.TermPeriods,
		StartDate:       input.StartDate,
		Status:          models.LoanStatusActive,
		RemainingAmount: input.Principal,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
	if !loan.Indefinite {
		schedule := ContractSchedule(*loan)
		loan.TotalInterest = schedule.TotalInterest
		loan.TotalPayment = schedule.TotalPayment
		loan.PeriodPayment = schedule.PeriodPayment
	}

	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}
	return loan, nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMissingLoan
		}
		return nil, err
	}
	return loan, nil
}

// GetAllLoans retrieves all loans.
func (l *Ledger) GetAllLoans() ([]*models.Loan, error) {
	return l.storage.GetAllLoans()
}

// GetLoansForDebtor retrieves all loans of one debtor.
func (l *Ledger) GetLoansForDebtor(debtorID uuid.UUID) ([]*models.Loan, error) {
	return l.storage.GetLoansForDebtor(debtorID)
}

// GetPaymentsForLoan retrieves the payment history of a loan.
func (l *Ledger) GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error) {
	return l.storage.GetPaymentsForLoan(loanID)
}

// RecordPayment allocates a payment against a loan as of the given date and
// persists the new loan snapshot together with the payment record in one
// transaction. The payment date drives the accrual snapshot, so back-dated
// payments are valid. A concurrent update of the same loan surfaces as
// store.ErrConflict; the caller decides whether to retry.
func (l *Ledger) RecordPayment(loanID uuid.UUID, amount int64, ptype models.PaymentType, date civil.Date) (*models.Loan, *models.Payment, error) {
	loan, err := l.GetLoan(loanID)
	if err != nil {
		return nil, nil, err
	}

	next, payment, err := Allocate(*loan, amount, ptype, date)
	if err != nil {
		return nil, nil, err
	}

	next.UpdatedAt = time.Now()
	payment.ID = uuid.New()
	payment.CreatedAt = next.UpdatedAt

	if err := l.storage.ApplyPayment(&next, &payment); err != nil {
		return nil, nil, err
	}
	return &next, &payment, nil
}

// FinalizeLoan closes an indefinite loan, freezing its totals as of the
// given date.
func (l *Ledger) FinalizeLoan(loanID uuid.UUID, asOf civil.Date) (*models.Loan, *Closeout, error) {
	loan, err := l.GetLoan(loanID)
	if err != nil {
		return nil, nil, err
	}

	next, closeout, err := Finalize(*loan, asOf)
	if err != nil {
		return nil, nil, err
	}

	next.UpdatedAt = time.Now()
	if err := l.storage.UpdateLoan(&next); err != nil {
		return nil, nil, err
	}
	return &next, &closeout, nil
}

// Statement is a read-only view of a loan's balances as of a date.
type Statement struct {
	LoanID          uuid.UUID         `json:"loan_id"`
	AsOf            civil.Date        `json:"as_of"`
	Status          models.LoanStatus `json:"status"`
	AccruedInterest int64             `json:"accrued_interest"`
	PaidInterest    int64             `json:"paid_interest"`
	PendingInterest int64             `json:"pending_interest"`
	PaidCapital     int64             `json:"paid_capital"`
	PendingCapital  int64             `json:"pending_capital"`
	RemainingAmount int64             `json:"remaining_amount"`
}

// Statement computes a loan's balances as of the given date. Results are
// cached under a key that includes the loan version, so a stale entry can
// never be served after a payment lands. Cache trouble is logged and
// otherwise ignored; the statement is recomputed.
func (l *Ledger) Statement(ctx context.Context, loanID uuid.UUID, asOf civil.Date) (*Statement, error) {
	loan, err := l.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("statement:%s:%s:%d", loan.ID, asOf, loan.Version)
	if l.cache != nil {
		if raw, ok := l.cache.Get(ctx, key); ok {
			var st Statement
			if err := json.Unmarshal([]byte(raw), &st); err == nil {
				return &st, nil
			}
			l.logger.Warn("discarding unreadable cached statement", "key", key)
		}
	}

	st := &Statement{
		LoanID:          loan.ID,
		AsOf:            asOf,
		Status:          loan.Status,
		AccruedInterest: AccruedInterest(*loan, asOf),
		PaidInterest:    loan.PaidInterest,
		PendingInterest: PendingInterest(*loan, asOf),
		PaidCapital:     loan.PaidCapital,
		PendingCapital:  PendingCapital(*loan),
		RemainingAmount: RemainingAmount(*loan, asOf),
	}

	if l.cache != nil {
		raw, err := json.Marshal(st)
		if err == nil {
			err = l.cache.Set(ctx, key, string(raw))
		}
		if err != nil {
			l.logger.Warn("failed to cache statement", "key", key, "error", err)
		}
	}
	return st, nil
}
