package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionDeposit TransactionType = "DEPOSIT"
	TransactionPayment TransactionType = "PAYMENT"
	TransactionRefund  TransactionType = "REFUND"
)

// Transaction is one ledger entry against a user's deposit
type Transaction struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string          `json:"user_id" gorm:"not null;index" validate:"required"`
	OrderID       *string         `json:"order_id,omitempty" gorm:"index"`
	Type          TransactionType `json:"type" gorm:"not null" validate:"required"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null" validate:"gte=0"`
	BalanceBefore decimal.Decimal `json:"balance_before" gorm:"type:decimal(10,2);not null"`
	BalanceAfter  decimal.Decimal `json:"balance_after" gorm:"type:decimal(10,2);not null" validate:"gte=0"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return Validate(t)
}
