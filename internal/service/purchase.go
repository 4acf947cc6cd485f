package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/Fi44er/shop_bot/internal/repository"
	"github.com/shopspring/decimal"
)

// Purchase completes an order paid from the wallet. Debit, stock and order
// are committed together by the repository.
func (s *Service) Purchase(ctx context.Context, buyerID, productNumber int64) (*models.Order, error) {
	product, err := s.repo.GetProduct(ctx, productNumber)
	if err != nil {
		return nil, err
	}
	if product == nil {
		s.observeOrder(repository.ErrNotFound)
		return nil, fmt.Errorf("product %d: %w", productNumber, repository.ErrNotFound)
	}

	order, err := s.repo.Purchase(ctx, buyerID, productNumber)
	s.observeOrder(err)
	if err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx, product.ProductCategory)
	return order, nil
}

func (s *Service) observeOrder(err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrInsufficientFunds):
		status = "insufficient_funds"
	case errors.Is(err, repository.ErrOutOfStock):
		status = "out_of_stock"
	case errors.Is(err, repository.ErrNotFound):
		status = "not_found"
	default:
		status = "error"
	}
	s.metrics.Orders.WithLabelValues(status).Inc()
}

func (s *Service) ListOrders(ctx context.Context, buyerID int64) ([]models.Order, error) {
	orders, err := s.repo.ListOrders(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CreditWallet is the manual admin adjustment; payments go through ConfirmPayment.
func (s *Service) CreditWallet(ctx context.Context, adminID, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !s.IsAdmin(adminID) {
		return decimal.Zero, fmt.Errorf("user %d is not on the admin list", adminID)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("credit %s: %w", amount, repository.ErrInvalidArgument)
	}

	balance, err := s.repo.CreditWallet(ctx, userID, amount)
	if err != nil {
		s.countError("credit_wallet")
		return decimal.Zero, err
	}
	s.logger.Infof("Admin %d credited user %d with %s", adminID, userID, amount.StringFixed(2))
	return balance, nil
}
