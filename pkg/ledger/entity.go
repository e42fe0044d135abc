package ledger

import "time"

const (
	// SignupBonusKey is the idempotency key recorded with the one-time signup
	// grant, so concurrent session bootstraps produce a single bonus entry.
	SignupBonusKey = "signup_bonus"

	SignupBonusDescription = "signup bonus"
)

// Balance is the materialized credit balance of a user. Credits never go
// negative; a debit that would overdraw is rejected.
type Balance struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is a single entry in the append-only credit ledger. Amount is
// signed: positive for credits (purchases, grants), negative for debits.
// Entries are never updated or deleted; corrections are compensating entries.
type Transaction struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Amount         int       `json:"amount"`
	Description    string    `json:"description"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	IdempotencyKey string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// DebitResult reports a successful spend.
type DebitResult struct {
	RemainingCredits int `json:"remaining_credits"`
}

// SettleRequest carries the client-reported payment parameters. They are
// never trusted on their own: Settle re-verifies with the payment provider.
type SettleRequest struct {
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id"`
	Amount     int    `json:"amount"`
}

// SettleResult reports a settlement. AlreadyProcessed distinguishes a replay
// (successful no-op) from a first-time settlement.
type SettleResult struct {
	RemainingCredits int    `json:"remaining_credits"`
	AlreadyProcessed bool   `json:"already_processed"`
	PlanID           string `json:"plan_id"`
	CreditsAdded     int    `json:"credits_added"`
}
