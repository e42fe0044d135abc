package ledger

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreditBalanceModel struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Credits   int       `gorm:"not null;default:0;check:credits >= 0" json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CreditBalanceModel) TableName() string {
	return "credit_balances"
}

func (b *CreditBalanceModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

type CreditTransactionModel struct {
	ID          string  `gorm:"type:uuid;primary_key" json:"id"`
	UserID      string  `gorm:"type:uuid;not null;index;uniqueIndex:ux_credit_transactions_user_key,priority:1" json:"user_id"`
	Amount      int     `gorm:"not null" json:"amount"`
	Description string  `gorm:"type:text;not null" json:"description"`
	ReferenceID *string `gorm:"type:uuid" json:"reference_id,omitempty"`
	// IdempotencyKey is the order id for purchases and a fixed marker for the
	// signup grant. NULL for plain debits; Postgres allows repeated NULLs in
	// the unique index.
	IdempotencyKey *string   `gorm:"type:text;uniqueIndex:ux_credit_transactions_user_key,priority:2" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (CreditTransactionModel) TableName() string {
	return "credit_transactions"
}

func (t *CreditTransactionModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
