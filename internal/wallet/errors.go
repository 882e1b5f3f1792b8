package wallet

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient toonCoin balance")
	ErrWalletLocked         = errors.New("wallet is locked")
	ErrInvalidAmount        = errors.New("amount must be a positive integer")
	ErrDuplicateExternalRef = errors.New("external transaction already recorded")
	ErrAlreadyUnlocked      = errors.New("manga already unlocked")
	ErrContentNotFound      = errors.New("content not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNotReversible        = errors.New("transaction cannot be reversed")
	ErrConcurrentConflict   = errors.New("concurrent wallet update, retry the operation")
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally for one named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsSerializationFailure reports whether err is a Postgres serialization
// failure or deadlock, both of which callers may retry as a whole.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
