package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/mvalderas/lendbook/pkg/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a loan update presents a stale version.
	// The caller must re-read the loan and recompute; the store never
	// applies last-write-wins.
	ErrConflict = errors.New("loan version conflict")
)

// Storage defines the persistence operations for debtors, loans and
// payments. Loan updates are guarded by an optimistic version check, and
// ApplyPayment commits the new loan snapshot together with its payment
// record in a single transaction.
type Storage interface {
	CreateDebtor(debtor *models.Debtor) error
	GetDebtor(id uuid.UUID) (*models.Debtor, error)
	GetAllDebtors() ([]*models.Debtor, error)

	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	GetAllLoans() ([]*models.Loan, error)
	GetLoansForDebtor(debtorID uuid.UUID) ([]*models.Loan, error)
	UpdateLoan(loan *models.Loan) error
	ApplyPayment(loan *models.Loan, payment *models.Payment) error

	GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error)

	Close() error
}
