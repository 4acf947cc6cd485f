package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type NewProduct struct {
	AdminID     int64
	Username    string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Category    string
	ImageRef    string
}

// AddProduct allocates a product number that is not yet taken and inserts the row
// in the same locked transaction, so two concurrent adds can never collide.
func (r *Repository) AddProduct(ctx context.Context, p NewProduct) (*models.Product, error) {
	if p.Price.IsNegative() || p.Quantity < 0 || strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("product %q: %w", p.Name, ErrInvalidArgument)
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	defer r.lock()()

	var product *models.Product
	err := r.withTx(ctx, "add product", func(tx *gorm.DB) error {
		number, err := r.freeProductNumber(tx)
		if err != nil {
			return err
		}

		product = &models.Product{
			ProductNumber:      number,
			AdminID:            p.AdminID,
			Username:           p.Username,
			ProductName:        p.Name,
			ProductDescription: p.Description,
			ProductPrice:       p.Price,
			ProductImageLink:   p.ImageRef,
			ProductQuantity:    p.Quantity,
			ProductCategory:    category,
		}
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.Name, err)
		}

		return ensureCategory(tx, category)
	})
	if err != nil {
		return nil, err
	}

	r.logger.WithField("product_number", product.ProductNumber).Infof("Product added: %s", product.ProductName)
	return product, nil
}

func (r *Repository) freeProductNumber(tx *gorm.DB) (int64, error) {
	for i := 0; i < productNumberAttempts; i++ {
		number := r.productNumber()

		var count int64
		if err := tx.Model(&models.Product{}).Where("product_number = ?", number).Count(&count).Error; err != nil {
			return 0, fmt.Errorf("failed to check product number: %w", err)
		}
		if count == 0 {
			return number, nil
		}
		r.logger.Warnf("Product number %d already taken, regenerating", number)
	}
	return 0, ErrProductNumberExhausted
}

func ensureCategory(tx *gorm.DB, name string) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("category_name = ?", name).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	if count > 0 {
		return nil
	}

	var next int64
	if err := tx.Model(&models.Category{}).Select("COALESCE(MAX(category_number), 0)").Scan(&next).Error; err != nil {
		return fmt.Errorf("failed to number category %q: %w", name, err)
	}

	category := &models.Category{CategoryNumber: next + 1, CategoryName: name}
	if err := tx.Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, productNumber int64) (*models.Product, error) {
	defer r.lock()()

	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "product_number = ?", productNumber).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		r.logger.Errorf("failed to get product %d: %v", productNumber, err)
		return nil, fmt.Errorf("failed to get product %d: %w", productNumber, err)
	}
	return &product, nil
}

// ListProducts returns every product, sold out ones included.
func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	defer r.lock()()

	var products []models.Product
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&products).Error; err != nil {
		r.logger.Errorf("failed to list products: %v", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *Repository) ListProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	defer r.lock()()

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("product_category = ?", category).
		Order("created_at ASC, id ASC").
		Find(&products).
		Error
	if err != nil {
		r.logger.Errorf("failed to list products of %q: %v", category, err)
		return nil, fmt.Errorf("failed to list products of %q: %w", category, err)
	}
	return products, nil
}

// ListCategories returns the distinct categories used by products.
func (r *Repository) ListCategories(ctx context.Context) ([]string, error) {
	defer r.lock()()

	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("product_category").
		Order("product_category ASC").
		Pluck("product_category", &categories).
		Error
	if err != nil {
		r.logger.Errorf("failed to list categories: %v", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *Repository) UpdateProductQuantity(ctx context.Context, productNumber int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity %d: %w", quantity, ErrInvalidArgument)
	}

	defer r.lock()()

	return r.withTx(ctx, "update product quantity", func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("product_number = ?", productNumber).
			Update("product_quantity", quantity)
		if res.Error != nil {
			return fmt.Errorf("failed to update quantity of product %d: %w", productNumber, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product %d: %w", productNumber, ErrNotFound)
		}
		return nil
	})
}

// UpdateProduct applies an admin edit of name, price and quantity.
func (r *Repository) UpdateProduct(ctx context.Context, productNumber int64, name string, price decimal.Decimal, quantity int) (*models.Product, error) {
	if price.IsNegative() || quantity < 0 || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("product %d: %w", productNumber, ErrInvalidArgument)
	}

	defer r.lock()()

	var product models.Product
	err := r.withTx(ctx, "update product", func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("product_number = ?", productNumber).
			Updates(map[string]interface{}{
				"product_name":     name,
				"product_price":    price,
				"product_quantity": quantity,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update product %d: %w", productNumber, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product %d: %w", productNumber, ErrNotFound)
		}
		return tx.First(&product, "product_number = ?", productNumber).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}
