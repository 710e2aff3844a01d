package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("ledger: not found")
	ErrInvalidInput  = errors.New("ledger: invalid input")
	ErrUnauthorized  = errors.New("ledger: caller is not an operator for the holder")
	ErrNotOwner      = errors.New("ledger: caller is not the owner")
	ErrSelfOperation = errors.New("ledger: holders are always their own operator")
	ErrAlreadySet    = errors.New("ledger: token ledger already bound")
	ErrNotBound      = errors.New("ledger: engine is not bound to a ledger")

	// Token errors
	ErrInvalidAmount       = errors.New("ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrSupplyExceeded      = errors.New("ledger: mint would exceed max supply")

	// Exchange errors
	ErrInsufficientPayment = errors.New("ledger: payment too small to buy any tokens")
	ErrBelowMinimum        = errors.New("ledger: sell amount below minimum")
	ErrReserveExhausted    = errors.New("ledger: reserve cannot cover the payout")
	ErrInvalidFee          = errors.New("ledger: fee must be between 0 and 100 percent")

	// Staking errors
	ErrInvalidStakeSize      = errors.New("ledger: stake size not on the allowed menu")
	ErrStakeLimitExceeded    = errors.New("ledger: staking ceiling reached")
	ErrStakeNotFound         = errors.New("ledger: stake not valid for this holder")
	ErrStakeAlreadyWithdrawn = errors.New("ledger: stake was already withdrawn")
	ErrNoStakes              = errors.New("ledger: holder has no stakes")

	// Lottery errors
	ErrPaused            = errors.New("ledger: lottery is paused")
	ErrNotPaused         = errors.New("ledger: lottery is not paused")
	ErrNotTicketMultiple = errors.New("ledger: amount is not a multiple of the ticket price")
	ErrRoundStillOpen    = errors.New("ledger: current round is still open")
	ErrWinnerNotFound    = errors.New("ledger: no winner recorded for round")

	// Store errors
	ErrStoreClosed       = errors.New("ledger: store is closed")
	ErrTransactionFailed = errors.New("ledger: transaction failed")
	ErrMigrationFailed   = errors.New("ledger: migration failed")

	// Journal errors
	ErrJournalBufferFull = errors.New("ledger: journal buffer full")
)

// ValidationError represents a configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStakeNotFound) ||
		errors.Is(err, ErrWinnerNotFound)
}

// IsAuthorizationError returns true if the error is an operator or
// ownership failure.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrSelfOperation)
}

// IsInsufficientFunds returns true if the error means a balance or reserve
// could not cover the operation.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientPayment) ||
		errors.Is(err, ErrReserveExhausted)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried. A reserve shortfall clears once the paying account is topped
// up; a full journal buffer clears once the flush worker drains it.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrJournalBufferFull) ||
		errors.Is(err, ErrReserveExhausted) ||
		errors.Is(err, ErrTransactionFailed)
}
