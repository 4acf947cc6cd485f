package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Fi44er/shop_bot/internal/cache"
	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/Fi44er/shop_bot/internal/repository"
	"github.com/Fi44er/shop_bot/utils"
	"github.com/shopspring/decimal"
)

var ErrInvalidEditLine = errors.New("expected name,price,quantity")

const (
	cacheKeyCategories      = "catalog:categories"
	cacheKeyCategoryPrefix  = "catalog:category:"
	cacheKeyAllProductsList = "catalog:all"
)

type ProductInput struct {
	AdminID  int64
	Username string
	Name     string
	Price    decimal.Decimal
	Quantity int
	ImageRef string
}

func (s *Service) AddProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	admin, err := s.repo.GetAdmin(ctx, in.AdminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		if err := s.RegisterAdmin(ctx, in.AdminID, in.Username); err != nil {
			return nil, err
		}
	}

	product, err := s.repo.AddProduct(ctx, repository.NewProduct{
		AdminID:     in.AdminID,
		Username:    utils.SanitizeUsername(in.Username),
		Name:        in.Name,
		Description: in.Name,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Category:    models.DefaultCategory,
		ImageRef:    in.ImageRef,
	})
	if err != nil {
		s.countError("add_product")
		return nil, err
	}

	s.invalidateCatalog(ctx, product.ProductCategory)
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, productNumber int64) (*models.Product, error) {
	return s.repo.GetProduct(ctx, productNumber)
}

// ParseEditLine reads the fixed "name,price,quantity" format.
func ParseEditLine(line string) (string, decimal.Decimal, int, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return "", decimal.Zero, 0, ErrInvalidEditLine
	}

	name := utils.SanitizeText(parts[0])
	if name == "" {
		return "", decimal.Zero, 0, ErrInvalidEditLine
	}
	price, err := utils.ParsePrice(parts[1])
	if err != nil {
		return "", decimal.Zero, 0, fmt.Errorf("%w: %v", ErrInvalidEditLine, err)
	}
	qty, err := utils.ParseQuantity(parts[2])
	if err != nil {
		return "", decimal.Zero, 0, fmt.Errorf("%w: %v", ErrInvalidEditLine, err)
	}
	return name, price, qty, nil
}

func (s *Service) EditProduct(ctx context.Context, productNumber int64, line string) (*models.Product, error) {
	name, price, qty, err := ParseEditLine(line)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.UpdateProduct(ctx, productNumber, name, price, qty)
	if err != nil {
		s.countError("edit_product")
		return nil, err
	}

	s.invalidateCatalog(ctx, product.ProductCategory)
	return product, nil
}

func (s *Service) SetStock(ctx context.Context, productNumber int64, quantity int) error {
	product, err := s.repo.GetProduct(ctx, productNumber)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("product %d: %w", productNumber, repository.ErrNotFound)
	}
	if err := s.repo.UpdateProductQuantity(ctx, productNumber, quantity); err != nil {
		return err
	}
	s.invalidateCatalog(ctx, product.ProductCategory)
	return nil
}

func (s *Service) SoldCount(ctx context.Context, productNumber int64) (int64, error) {
	return s.repo.CountOrders(ctx, productNumber)
}

// AvailableCategories lists categories that have at least one product in stock.
func (s *Service) AvailableCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if s.cacheGet(ctx, cacheKeyCategories, &categories) {
		return categories, nil
	}

	all, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.AvailableProducts(ctx, "")
	if err != nil {
		return nil, err
	}

	stocked := make(map[string]bool, len(products))
	for _, p := range products {
		stocked[p.ProductCategory] = true
	}
	categories = make([]string, 0, len(all))
	for _, c := range all {
		if stocked[c] {
			categories = append(categories, c)
		}
	}

	s.cacheSet(ctx, cacheKeyCategories, categories)
	return categories, nil
}

// AvailableProducts returns products with quantity > 0; an empty category means all.
func (s *Service) AvailableProducts(ctx context.Context, category string) ([]models.Product, error) {
	key := cacheKeyAllProductsList
	if category != "" {
		key = cacheKeyCategoryPrefix + category
	}

	var products []models.Product
	if s.cacheGet(ctx, key, &products) {
		return products, nil
	}

	var (
		all []models.Product
		err error
	)
	if category == "" {
		all, err = s.repo.ListProducts(ctx)
	} else {
		all, err = s.repo.ListProductsByCategory(ctx, category)
	}
	if err != nil {
		return nil, err
	}

	products = make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.InStock() {
			products = append(products, p)
		}
	}

	s.cacheSet(ctx, key, products)
	return products, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := cache.GetJSON(ctx, s.cache, key, dest)
	if err != nil {
		s.logger.Warnf("catalog cache read %s: %v", key, err)
		s.countError("cache")
		return false
	}
	return ok
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.config.CatalogCacheTTL); err != nil {
		s.logger.Warnf("catalog cache write %s: %v", key, err)
		s.countError("cache")
	}
}

func (s *Service) invalidateCatalog(ctx context.Context, category string) {
	if s.cache == nil {
		return
	}
	err := s.cache.Delete(ctx, cacheKeyCategories, cacheKeyAllProductsList, cacheKeyCategoryPrefix+category)
	if err != nil {
		s.logger.Warnf("catalog cache invalidate: %v", err)
		s.countError("cache")
	}
}
