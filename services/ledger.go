package services

import (
	"context"

	"truebite-api/events"
	"truebite-api/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// isCents reports whether d fits the decimal(10,2) money columns without rounding
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// adjustBalance moves a user's deposit and records the ledger entry.
// Payments are clamped so the deposit never goes below zero. The write
// only lands if nobody else touched the balance since user was read.
func adjustBalance(tx *gorm.DB, user *models.User, typ models.TransactionType, amount decimal.Decimal, orderID *string, description string) (*models.Transaction, error) {
	before := user.Deposit
	var after decimal.Decimal
	switch typ {
	case models.TransactionPayment:
		after = before.Sub(amount)
		if after.IsNegative() {
			after = decimal.Zero
		}
	default:
		after = before.Add(amount)
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"deposit": after,
			"version": gorm.Expr("version + ?", 1),
		})
	if res.Error != nil {
		return nil, storeErr(res.Error, "update deposit")
	}
	if res.RowsAffected == 0 {
		return nil, conflictf("balance of user %s changed concurrently", user.ID)
	}
	user.Deposit = after
	user.Version++

	entry := &models.Transaction{
		UserID:        user.ID,
		OrderID:       orderID,
		Type:          typ,
		Amount:        before.Sub(after).Abs(),
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, storeErr(err, "record transaction")
	}
	return entry, nil
}

// Deposit tops up the caller's prepaid balance
func (s *UserService) Deposit(ctx context.Context, session Session, amount decimal.Decimal) (*models.User, error) {
	if err := session.requireCustomer(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, validationf("deposit amount must be positive")
	}
	if !isCents(amount) {
		return nil, validationf("deposit amount %s has more than 2 decimal places", amount)
	}
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", session.UserID).Error; err != nil {
			return storeErr(err, "user "+session.UserID)
		}
		_, err := adjustBalance(tx, &user, models.TransactionDeposit, amount, nil, "Deposit")
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.DepositAdded,
		ActorID: session.UserID,
		Payload: map[string]interface{}{"amount": amount.StringFixed(2), "balance": user.Deposit.StringFixed(2)},
	})
	return &user, nil
}

// ListTransactions returns the caller's ledger, newest first
func (s *UserService) ListTransactions(ctx context.Context, session Session) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).Where("user_id = ?", session.UserID).
		Order("created_at desc").Find(&txs).Error
	return txs, storeErr(err, "list transactions")
}
