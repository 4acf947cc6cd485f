package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Fi44er/shop_bot/config"
	"github.com/Fi44er/shop_bot/internal/cache"
	"github.com/Fi44er/shop_bot/internal/metrics"
	"github.com/Fi44er/shop_bot/internal/models"
	"github.com/Fi44er/shop_bot/internal/repository"
	"github.com/Fi44er/shop_bot/utils"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo    Repository
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *utils.Logger
	config  *config.Config
}

type Repository interface {
	UpsertUser(ctx context.Context, userID int64, username string) error
	UpsertAdmin(ctx context.Context, adminID int64, username string) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetAdmin(ctx context.Context, adminID int64) (*models.Admin, error)
	CreditWallet(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)

	AddProduct(ctx context.Context, p repository.NewProduct) (*models.Product, error)
	GetProduct(ctx context.Context, productNumber int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	UpdateProductQuantity(ctx context.Context, productNumber int64, quantity int) error
	UpdateProduct(ctx context.Context, productNumber int64, name string, price decimal.Decimal, quantity int) (*models.Product, error)

	Purchase(ctx context.Context, buyerID, productNumber int64) (*models.Order, error)
	ListOrders(ctx context.Context, buyerID int64) ([]models.Order, error)
	CountOrders(ctx context.Context, productNumber int64) (int64, error)

	CreateTopUp(ctx context.Context, topUp *models.TopUp) error
	GetTopUp(ctx context.Context, payload string) (*models.TopUp, error)
	ApplyPayment(ctx context.Context, p models.SuccessfulPayment) (decimal.Decimal, error)

	UpsertPaymentMethod(ctx context.Context, method *models.PaymentMethod) error
	GetActivePaymentMethod(ctx context.Context, name string) (*models.PaymentMethod, error)
}

var _ Repository = (*repository.Repository)(nil)

func NewService(repo Repository, c cache.Cache, m *metrics.Metrics, cfg *config.Config, logger *utils.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   c,
		metrics: m,
		logger:  logger,
		config:  cfg,
	}
}

func (s *Service) IsAdmin(userID int64) bool {
	return s.config.IsAdmin(userID)
}

func (s *Service) Currency() string {
	return s.config.StoreCurrency
}

func (s *Service) CurrencyExponent() int32 {
	return s.config.CurrencyExponent
}

func (s *Service) SupportContact() string {
	return s.config.SupportContact
}

// RegisterUser is idempotent; an existing user keeps the original name.
func (s *Service) RegisterUser(ctx context.Context, userID int64, username string) error {
	return s.repo.UpsertUser(ctx, userID, utils.SanitizeUsername(username))
}

func (s *Service) RegisterAdmin(ctx context.Context, adminID int64, username string) error {
	if !s.IsAdmin(adminID) {
		return fmt.Errorf("user %d is not on the admin list", adminID)
	}
	return s.repo.UpsertAdmin(ctx, adminID, utils.SanitizeUsername(username))
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.GetUser(ctx, userID)
}

func (s *Service) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if user == nil {
		return decimal.Zero, fmt.Errorf("user %d: %w", userID, repository.ErrNotFound)
	}
	return user.Wallet, nil
}

// SeedPaymentMethod stores the configured provider token so invoices can be issued.
func (s *Service) SeedPaymentMethod(ctx context.Context) error {
	if s.config.PaymentProviderToken == "" {
		s.logger.Warn("PAYMENT_PROVIDER_TOKEN is empty, wallet top-ups are disabled")
		return nil
	}

	var owner int64
	if len(s.config.AdminIDs) > 0 {
		owner = s.config.AdminIDs[0]
	}
	return s.repo.UpsertPaymentMethod(ctx, &models.PaymentMethod{
		AdminID:           owner,
		MethodName:        s.config.PaymentMethodName,
		TokenKeysClientID: s.config.PaymentProviderToken,
		Activated:         true,
	})
}

func (s *Service) countError(component string) {
	if s.metrics != nil {
		s.metrics.Errors.WithLabelValues(component).Inc()
	}
}

// IsNotFound lets handlers tell a missing row from a storage failure.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
