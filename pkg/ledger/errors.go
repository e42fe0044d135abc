package ledger

import "errors"

var (
	// ErrUserNotFound means no balance row exists for the user. Recoverable
	// with EnsureBalance.
	ErrUserNotFound = errors.New("user balance not found")

	// ErrInsufficientCredits is terminal for the current request; the balance
	// and ledger are left untouched.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidOrder covers malformed order ids and plan/user mismatches.
	// Treated as a possible tampering attempt and logged as such.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrPaymentVerificationFailed means the payment provider rejected or did
	// not confirm the payment. No ledger mutation happens after this.
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
)
