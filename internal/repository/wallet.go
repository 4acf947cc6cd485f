package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditWallet adds a non-negative amount to the user's wallet.
func (r *Repository) CreditWallet(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("credit %s: %w", amount, ErrInvalidArgument)
	}

	defer r.lock()()

	var balance decimal.Decimal
	err := r.withTx(ctx, "credit wallet", func(tx *gorm.DB) error {
		var err error
		balance, err = creditUser(tx, userID, amount)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	r.logger.Infof("Wallet of user %d credited by %s, balance %s", userID, amount.StringFixed(2), balance.StringFixed(2))
	return balance, nil
}

func creditUser(tx *gorm.DB, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	user, err := loadUser(tx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := user.Wallet.Add(amount)
	res := tx.Model(&models.User{}).Where("user_id = ?", userID).Update("wallet", balance)
	if res.Error != nil {
		return decimal.Zero, fmt.Errorf("failed to update wallet of user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return balance, nil
}

// UpsertPaymentMethod stores provider credentials under a unique method name.
func (r *Repository) UpsertPaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	defer r.lock()()

	return r.withTx(ctx, "upsert payment method", func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "method_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"admin_id", "username", "token_keys_client_id", "secret_keys", "activated"}),
		}).Create(method).Error
		if err != nil {
			return fmt.Errorf("failed to upsert payment method %q: %w", method.MethodName, err)
		}
		return nil
	})
}

// GetActivePaymentMethod returns the method with its secret keys stripped.
func (r *Repository) GetActivePaymentMethod(ctx context.Context, name string) (*models.PaymentMethod, error) {
	defer r.lock()()

	var method models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("method_name = ? AND activated = ?", name, true).
		First(&method).
		Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		r.logger.Errorf("failed to get payment method %q: %v", name, err)
		return nil, fmt.Errorf("failed to get payment method %q: %w", name, err)
	}

	method.SecretKeys = ""
	return &method, nil
}
