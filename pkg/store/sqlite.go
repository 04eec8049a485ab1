package store

import (
	"database/sql"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvalderas/lendbook/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the tables if they don't already exist. Monetary
// amounts are INTEGER minor units; rates are TEXT so no precision is lost;
// calendar dates are TEXT in ISO form since they carry no time component.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS debtors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		debtor_id TEXT NOT NULL,
		principal INTEGER NOT NULL,
		periodic_rate TEXT NOT NULL,
		frequency TEXT NOT NULL,
		indefinite INTEGER NOT NULL,
		term_periods INTEGER NOT NULL DEFAULT 0,
		start_date TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_interest INTEGER NOT NULL DEFAULT 0,
		paid_capital INTEGER NOT NULL DEFAULT 0,
		paid_amount INTEGER NOT NULL DEFAULT 0,
		remaining_amount INTEGER NOT NULL DEFAULT 0,
		total_interest INTEGER NOT NULL DEFAULT 0,
		total_payment INTEGER NOT NULL DEFAULT 0,
		period_payment INTEGER NOT NULL DEFAULT 0,
		end_date TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		FOREIGN KEY(debtor_id) REFERENCES debtors(id)
	);
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		type TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		interest_payment INTEGER NOT NULL,
		capital_payment INTEGER NOT NULL,
		accrued_interest_at_payment INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateDebtor inserts a new debtor into the database.
func (s *SQLiteStore) CreateDebtor(debtor *models.Debtor) error {
	_, err := s.db.Exec(
		`INSERT INTO debtors (id, name, phone, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		debtor.ID.String(), debtor.Name, debtor.Phone, debtor.Notes, debtor.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create debtor: %w", err)
	}
	return nil
}

// GetDebtor retrieves a debtor by its ID.
func (s *SQLiteStore) GetDebtor(id uuid.UUID) (*models.Debtor, error) {
	var debtor models.Debtor
	var idStr string
	row := s.db.QueryRow(`SELECT id, name, phone, notes, created_at FROM debtors WHERE id = ?`, id.String())
	if err := row.Scan(&idStr, &debtor.Name, &debtor.Phone, &debtor.Notes, &debtor.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get debtor: %w", err)
	}
	debtor.ID = uuid.MustParse(idStr)
	return &debtor, nil
}

// GetAllDebtors retrieves all debtors.
func (s *SQLiteStore) GetAllDebtors() ([]*models.Debtor, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, notes, created_at FROM debtors ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all debtors: %w", err)
	}
	defer rows.Close()

	var debtors []*models.Debtor
	for rows.Next() {
		var debtor models.Debtor
		var idStr string
		if err := rows.Scan(&idStr, &debtor.Name, &debtor.Phone, &debtor.Notes, &debtor.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan debtor row: %w", err)
		}
		debtor.ID = uuid.MustParse(idStr)
		debtors = append(debtors, &debtor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return debtors, nil
}

const loanColumns = `id, debtor_id, principal, periodic_rate, frequency, indefinite, term_periods, start_date, status,
	paid_interest, paid_capital, paid_amount, remaining_amount, total_interest, total_payment, period_payment,
	end_date, created_at, updated_at, version`

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	var endDate any
	if loan.EndDate != nil {
		endDate = loan.EndDate.String()
	}
	_, err := s.db.Exec(
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.DebtorID.String(), loan.Principal, loan.PeriodicRate.String(), string(loan.Frequency),
		loan.Indefinite, loan.TermPeriods, loan.StartDate.String(), string(loan.Status),
		loan.PaidInterest, loan.PaidCapital, loan.PaidAmount, loan.RemainingAmount,
		loan.TotalInterest, loan.TotalPayment, loan.PeriodPayment,
		endDate, loan.CreatedAt, loan.UpdatedAt, loan.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// GetAllLoans retrieves all loans.
func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all loans: %w", err)
	}
	defer rows.Close()
	return scanLoans(rows)
}

// GetLoansForDebtor retrieves all loans for a given debtor.
func (s *SQLiteStore) GetLoansForDebtor(debtorID uuid.UUID) ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT `+loanColumns+` FROM loans WHERE debtor_id = ? ORDER BY created_at ASC`, debtorID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get loans for debtor %s: %w", debtorID, err)
	}
	defer rows.Close()
	return scanLoans(rows)
}

const updateLoanSQL = `UPDATE loans SET status = ?, paid_interest = ?, paid_capital = ?, paid_amount = ?,
	remaining_amount = ?, total_interest = ?, total_payment = ?, period_payment = ?, end_date = ?,
	updated_at = ?, version = version + 1
	WHERE id = ? AND version = ?`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// updateLoan performs the versioned loan update against either the database
// or an open transaction. On success the in-memory version is bumped to
// match the row.
func (s *SQLiteStore) updateLoan(e execer, loan *models.Loan) error {
	var endDate any
	if loan.EndDate != nil {
		endDate = loan.EndDate.String()
	}
	result, err := e.Exec(updateLoanSQL,
		string(loan.Status), loan.PaidInterest, loan.PaidCapital, loan.PaidAmount,
		loan.RemainingAmount, loan.TotalInterest, loan.TotalPayment, loan.PeriodPayment, endDate,
		loan.UpdatedAt, loan.ID.String(), loan.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the loan is gone or someone updated it first.
		var exists int
		if err := s.db.QueryRow(`SELECT COUNT(1) FROM loans WHERE id = ?`, loan.ID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check loan existence: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	loan.Version++
	return nil
}

// UpdateLoan updates an existing loan, guarded by its version.
func (s *SQLiteStore) UpdateLoan(loan *models.Loan) error {
	return s.updateLoan(s.db, loan)
}

// ApplyPayment commits a loan snapshot and its payment record atomically.
// If the version check fails nothing is written, including the payment.
func (s *SQLiteStore) ApplyPayment(loan *models.Loan, payment *models.Payment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.updateLoan(tx, loan); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO payments (id, loan_id, amount, type, payment_date, interest_payment, capital_payment, accrued_interest_at_payment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID.String(), payment.LoanID.String(), payment.Amount, string(payment.Type), payment.PaymentDate.String(),
		payment.InterestPayment, payment.CapitalPayment, payment.AccruedInterestAtPayment, payment.CreatedAt,
	)
	if err != nil {
		loan.Version-- // roll back the in-memory bump from updateLoan
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		loan.Version--
		return fmt.Errorf("failed to commit payment: %w", err)
	}
	return nil
}

// GetPaymentsForLoan retrieves all payments for a given loan ID, oldest first.
func (s *SQLiteStore) GetPaymentsForLoan(loanID uuid.UUID) ([]*models.Payment, error) {
	rows, err := s.db.Query(
		`SELECT id, loan_id, amount, type, payment_date, interest_payment, capital_payment, accrued_interest_at_payment, created_at
		FROM payments WHERE loan_id = ? ORDER BY created_at ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var payment models.Payment
		var idStr, loanIDStr, ptype, paymentDate string
		if err := rows.Scan(&idStr, &loanIDStr, &payment.Amount, &ptype, &paymentDate,
			&payment.InterestPayment, &payment.CapitalPayment, &payment.AccruedInterestAtPayment, &payment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payment.ID = uuid.MustParse(idStr)
		payment.LoanID = uuid.MustParse(loanIDStr)
		payment.Type = models.PaymentType(ptype)
		date, err := civil.ParseDate(paymentDate)
		if err != nil {
			return nil, fmt.Errorf("invalid payment date %q: %w", paymentDate, err)
		}
		payment.PaymentDate = date
		payments = append(payments, &payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan payments: %w", err)
	}
	return payments, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr, debtorIDStr, rate, frequency, startDate, status string
	var endDate sql.NullString
	err := row.Scan(&idStr, &debtorIDStr, &loan.Principal, &rate, &frequency, &loan.Indefinite, &loan.TermPeriods,
		&startDate, &status, &loan.PaidInterest, &loan.PaidCapital, &loan.PaidAmount, &loan.RemainingAmount,
		&loan.TotalInterest, &loan.TotalPayment, &loan.PeriodPayment, &endDate,
		&loan.CreatedAt, &loan.UpdatedAt, &loan.Version)
	if err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(idStr)
	loan.DebtorID = uuid.MustParse(debtorIDStr)
	loan.PeriodicRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid periodic rate %q: %w", rate, err)
	}
	loan.Frequency = models.Frequency(frequency)
	loan.Status = models.LoanStatus(status)
	loan.StartDate, err = civil.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	if endDate.Valid {
		end, err := civil.ParseDate(endDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", endDate.String, err)
		}
		loan.EndDate = &end
	}
	return &loan, nil
}

func scanLoans(rows *sql.Rows) ([]*models.Loan, error) {
	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}
