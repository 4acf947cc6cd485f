package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (r *Repository) CreateTopUp(ctx context.Context, topUp *models.TopUp) error {
	if topUp.AmountMinor <= 0 {
		return fmt.Errorf("top-up amount %d: %w", topUp.AmountMinor, ErrInvalidArgument)
	}

	defer r.lock()()

	return r.withTx(ctx, "create top-up", func(tx *gorm.DB) error {
		if topUp.Status == "" {
			topUp.Status = models.TopUpStatusPending
		}
		if err := tx.Create(topUp).Error; err != nil {
			return fmt.Errorf("failed to create top-up for user %d: %w", topUp.UserID, err)
		}
		return nil
	})
}

func (r *Repository) GetTopUp(ctx context.Context, payload string) (*models.TopUp, error) {
	defer r.lock()()

	var topUp models.TopUp
	err := r.db.WithContext(ctx).Where("payload = ?", payload).First(&topUp).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		r.logger.Errorf("failed to get top-up %q: %v", payload, err)
		return nil, fmt.Errorf("failed to get top-up: %w", err)
	}
	return &topUp, nil
}

// ApplyPayment records the payment id in the ledger and credits the wallet in
// one transaction. A payment id seen before yields ErrAlreadyProcessed.
func (r *Repository) ApplyPayment(ctx context.Context, p models.SuccessfulPayment) (decimal.Decimal, error) {
	if p.PaymentID == "" || p.Credit.IsNegative() {
		return decimal.Zero, fmt.Errorf("payment %q: %w", p.PaymentID, ErrInvalidArgument)
	}

	defer r.lock()()

	log := r.logger.WithField("payment_id", p.PaymentID)

	var balance decimal.Decimal
	err := r.withTx(ctx, "apply payment", func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&models.ProcessedPayment{}).Where("payment_id = ?", p.PaymentID).Count(&seen).Error; err != nil {
			return fmt.Errorf("failed to check payment ledger: %w", err)
		}
		if seen > 0 {
			return fmt.Errorf("payment %s: %w", p.PaymentID, ErrAlreadyProcessed)
		}

		entry := &models.ProcessedPayment{
			PaymentID:   p.PaymentID,
			UserID:      p.UserID,
			Payload:     p.Payload,
			AmountMinor: p.AmountMinor,
			Currency:    p.Currency,
			Credited:    p.Credit,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		if err := markTopUpPaid(tx, p.Payload); err != nil {
			return err
		}

		var err error
		balance, err = creditUser(tx, p.UserID, p.Credit)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	log.Infof("Payment applied: user %d credited %s", p.UserID, p.Credit.StringFixed(2))
	return balance, nil
}

func markTopUpPaid(tx *gorm.DB, payload string) error {
	if payload == "" {
		return nil
	}

	var topUp models.TopUp
	err := tx.Where("payload = ?", payload).First(&topUp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load top-up: %w", err)
	}
	if topUp.Status == models.TopUpStatusPaid {
		return nil
	}

	now := time.Now()
	err = tx.Model(&models.TopUp{}).
		Where("id = ?", topUp.ID).
		Updates(map[string]interface{}{"status": models.TopUpStatusPaid, "paid_at": now}).
		Error
	if err != nil {
		return fmt.Errorf("failed to mark top-up paid: %w", err)
	}
	return nil
}
