package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/shop_bot/internal/models"
	"gorm.io/gorm"
)

// Purchase debits the buyer, decrements stock and writes the order in one
// transaction. Any failure leaves wallet, stock and orders untouched.
func (r *Repository) Purchase(ctx context.Context, buyerID, productNumber int64) (*models.Order, error) {
	defer r.lock()()

	var order *models.Order
	err := r.withTx(ctx, "purchase", func(tx *gorm.DB) error {
		user, err := loadUser(tx, buyerID)
		if err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, "product_number = ?", productNumber).Error; err != nil {
			if notFound(err) {
				return fmt.Errorf("product %d: %w", productNumber, ErrNotFound)
			}
			return fmt.Errorf("failed to load product %d: %w", productNumber, err)
		}

		if !product.InStock() {
			return fmt.Errorf("product %d: %w", productNumber, ErrOutOfStock)
		}
		if user.Wallet.LessThan(product.ProductPrice) {
			return fmt.Errorf("user %d has %s, needs %s: %w",
				buyerID, user.Wallet.StringFixed(2), product.ProductPrice.StringFixed(2), ErrInsufficientFunds)
		}

		err = tx.Model(&models.User{}).
			Where("user_id = ?", buyerID).
			Update("wallet", user.Wallet.Sub(product.ProductPrice)).
			Error
		if err != nil {
			return fmt.Errorf("failed to debit user %d: %w", buyerID, err)
		}

		err = tx.Model(&models.Product{}).
			Where("product_number = ?", productNumber).
			Update("product_quantity", product.ProductQuantity-1).
			Error
		if err != nil {
			return fmt.Errorf("failed to decrement product %d: %w", productNumber, err)
		}

		order = &models.Order{
			BuyerID:             buyerID,
			BuyerUsername:       user.Username,
			ProductNumber:       product.ProductNumber,
			ProductName:         product.ProductName,
			ProductPrice:        product.ProductPrice,
			PaidMethod:          models.PaidMethodWallet,
			ProductDownloadLink: product.ProductDownloadLink,
			ProductKeys:         product.ProductKeysFile,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.WithField("product_number", productNumber).
		Infof("Order %s placed by user %d", order.OrderNumber, buyerID)
	return order, nil
}

func (r *Repository) ListOrders(ctx context.Context, buyerID int64) ([]models.Order, error) {
	defer r.lock()()

	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("order_date DESC, id DESC").
		Find(&orders).
		Error
	if err != nil {
		r.logger.Errorf("failed to list orders of user %d: %v", buyerID, err)
		return nil, fmt.Errorf("failed to list orders of user %d: %w", buyerID, err)
	}
	return orders, nil
}

func (r *Repository) CountOrders(ctx context.Context, productNumber int64) (int64, error) {
	defer r.lock()()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("product_number = ?", productNumber).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders of product %d: %w", productNumber, err)
	}
	return count, nil
}
