package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/Fi44er/shop_bot/internal/repository"
	"github.com/Fi44er/shop_bot/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentsDisabled        = errors.New("no active payment method")
	ErrUnknownTopUp            = errors.New("unknown top-up")
	ErrTopUpMismatch           = errors.New("top-up does not match the invoice")
	ErrPaymentAlreadyProcessed = repository.ErrAlreadyProcessed
)

const topUpPayloadPrefix = "topup:"

type Invoice struct {
	Title         string
	Description   string
	Currency      string
	AmountMinor   int64
	Payload       string
	ProviderToken string
}

type PreCheckout struct {
	QueryID     string
	FromID      int64
	Currency    string
	TotalAmount int64
	Payload     string
}

type PaymentConfirmation struct {
	UserID      int64
	PaymentID   string
	Currency    string
	TotalAmount int64
	Payload     string
}

// CreateTopUp registers a pending top-up and returns the invoice to send.
func (s *Service) CreateTopUp(ctx context.Context, userID int64, amount decimal.Decimal) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, utils.ErrInvalidAmount
	}
	minor, err := utils.UnitsToMinor(amount, s.config.CurrencyExponent)
	if err != nil {
		return nil, err
	}

	method, err := s.repo.GetActivePaymentMethod(ctx, s.config.PaymentMethodName)
	if err != nil {
		return nil, err
	}
	if method == nil || method.TokenKeysClientID == "" {
		return nil, ErrPaymentsDisabled
	}

	topUp := &models.TopUp{
		Payload:     topUpPayloadPrefix + uuid.NewString(),
		UserID:      userID,
		AmountMinor: minor,
		Currency:    s.config.StoreCurrency,
	}
	if err := s.repo.CreateTopUp(ctx, topUp); err != nil {
		s.countError("top_up")
		return nil, err
	}

	return &Invoice{
		Title:         "Wallet top-up",
		Description:   fmt.Sprintf("Add %s to your store wallet", utils.FormatMoney(amount, s.config.StoreCurrency)),
		Currency:      topUp.Currency,
		AmountMinor:   topUp.AmountMinor,
		Payload:       topUp.Payload,
		ProviderToken: method.TokenKeysClientID,
	}, nil
}

// ValidatePreCheckout approves only invoices this bot issued and that are still unpaid.
func (s *Service) ValidatePreCheckout(ctx context.Context, q PreCheckout) error {
	topUp, err := s.repo.GetTopUp(ctx, q.Payload)
	if err != nil {
		return err
	}
	if topUp == nil {
		s.observePayment("rejected")
		return fmt.Errorf("payload %q: %w", q.Payload, ErrUnknownTopUp)
	}

	switch {
	case topUp.Status != models.TopUpStatusPending:
		err = fmt.Errorf("top-up already %s: %w", topUp.Status, ErrTopUpMismatch)
	case topUp.UserID != q.FromID:
		err = fmt.Errorf("top-up belongs to %d, not %d: %w", topUp.UserID, q.FromID, ErrTopUpMismatch)
	case topUp.AmountMinor != q.TotalAmount:
		err = fmt.Errorf("amount %d, expected %d: %w", q.TotalAmount, topUp.AmountMinor, ErrTopUpMismatch)
	case !strings.EqualFold(topUp.Currency, q.Currency):
		err = fmt.Errorf("currency %s, expected %s: %w", q.Currency, topUp.Currency, ErrTopUpMismatch)
	}
	if err != nil {
		s.observePayment("rejected")
		return err
	}
	return nil
}

// ConfirmPayment credits the wallet once per payment id and returns the new balance.
// A redelivered confirmation returns ErrPaymentAlreadyProcessed and credits nothing.
func (s *Service) ConfirmPayment(ctx context.Context, p PaymentConfirmation) (decimal.Decimal, decimal.Decimal, error) {
	credit := utils.MinorToUnits(p.TotalAmount, s.config.CurrencyExponent)

	balance, err := s.repo.ApplyPayment(ctx, models.SuccessfulPayment{
		PaymentID:   p.PaymentID,
		UserID:      p.UserID,
		Payload:     p.Payload,
		AmountMinor: p.TotalAmount,
		Currency:    p.Currency,
		Credit:      credit,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			s.observePayment("duplicate")
			s.logger.WithField("payment_id", p.PaymentID).Warn("Duplicate payment confirmation ignored")
			return decimal.Zero, decimal.Zero, ErrPaymentAlreadyProcessed
		}
		s.observePayment("error")
		s.countError("payment")
		return decimal.Zero, decimal.Zero, err
	}

	s.observePayment("credited")
	if s.metrics != nil {
		s.metrics.WalletCredited.Add(credit.InexactFloat64())
	}
	return credit, balance, nil
}

func (s *Service) observePayment(status string) {
	if s.metrics != nil {
		s.metrics.Payments.WithLabelValues(status).Inc()
	}
}
