package ledger

import (
	"errors"
	"fmt"
)

// Two error classes: validation errors reject the request itself, state
// errors reject it because of where the loan is in its lifecycle. Every
// sentinel below wraps its class, so callers can match either the specific
// error or the class with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrState      = errors.New("invalid loan state")
)

var (
	ErrInvalidAmount          = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrExceedsPendingInterest = fmt.Errorf("%w: payment exceeds pending interest", ErrValidation)
	ErrExceedsPendingCapital  = fmt.Errorf("%w: payment exceeds pending capital", ErrValidation)
	ErrMissingLoan            = fmt.Errorf("%w: loan not found", ErrValidation)

	ErrLoanNotActive    = fmt.Errorf("%w: loan is not active", ErrState)
	ErrNotIndefinite    = fmt.Errorf("%w: loan has a fixed term", ErrState)
	ErrAlreadyFinalized = fmt.Errorf("%w: loan already completed", ErrState)
)
