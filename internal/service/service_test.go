package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Fi44er/shop_bot/config"
	"github.com/Fi44er/shop_bot/db"
	"github.com/Fi44er/shop_bot/internal/cache"
	"github.com/Fi44er/shop_bot/internal/repository"
	"github.com/Fi44er/shop_bot/utils"
	"github.com/shopspring/decimal"
)

const (
	testAdmin int64 = 1
	testBuyer int64 = 500
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	logger := utils.NewNopLogger()
	dsn := filepath.Join(t.TempDir(), "shop.db") + "?_pragma=foreign_keys(1)"
	database, err := db.ConnectDb(db.DriverSQLite, dsn, logger)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Migrate(database, true, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AdminIDs:             []int64{testAdmin},
		StoreCurrency:        "USD",
		CurrencyExponent:     2,
		PaymentProviderToken: "provider-token",
		PaymentMethodName:    "telegram",
		CatalogCacheTTL:      time.Minute,
	}
	svc := NewService(repository.NewRepository(database, logger), cache.NewMemoryCache(0), nil, cfg, logger)
	if err := svc.SeedPaymentMethod(context.Background()); err != nil {
		t.Fatalf("seed payment method: %v", err)
	}
	if err := svc.RegisterUser(context.Background(), testBuyer, "buyer"); err != nil {
		t.Fatalf("register buyer: %v", err)
	}
	return svc
}

func addWidget(t *testing.T, svc *Service, qty int) int64 {
	t.Helper()
	p, err := svc.AddProduct(context.Background(), ProductInput{
		AdminID:  testAdmin,
		Username: "admin",
		Name:     "Widget",
		Price:    decimal.NewFromInt(10),
		Quantity: qty,
	})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	return p.ProductNumber
}

func TestAddProductRejectsNonAdmin(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AddProduct(context.Background(), ProductInput{AdminID: 999, Name: "Widget", Price: decimal.NewFromInt(1)})
	if err == nil {
		t.Fatal("expected an error for a user outside the admin list")
	}
}

func TestAvailableProductsHidesSoldOut(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	inStock := addWidget(t, svc, 3)
	addWidget(t, svc, 0)

	products, err := svc.AvailableProducts(ctx, "")
	if err != nil {
		t.Fatalf("available products: %v", err)
	}
	if len(products) != 1 || products[0].ProductNumber != inStock {
		t.Fatalf("expected only product %d, got %+v", inStock, products)
	}

	categories, err := svc.AvailableCategories(ctx)
	if err != nil {
		t.Fatalf("available categories: %v", err)
	}
	if len(categories) != 1 || categories[0] != "Default Category" {
		t.Fatalf("unexpected categories %v", categories)
	}
}

func TestCatalogCacheInvalidatedOnWrites(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	number := addWidget(t, svc, 1)
	if products, _ := svc.AvailableProducts(ctx, "Default Category"); len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}

	addWidget(t, svc, 1)
	if products, _ := svc.AvailableProducts(ctx, "Default Category"); len(products) != 2 {
		t.Fatalf("cache not invalidated after add, got %d products", len(products))
	}

	if err := svc.SetStock(ctx, number, 0); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	if products, _ := svc.AvailableProducts(ctx, "Default Category"); len(products) != 1 {
		t.Fatalf("cache not invalidated after stock change, got %d products", len(products))
	}
}

func TestPurchaseDropsSoldOutProductFromCatalog(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	number := addWidget(t, svc, 1)
	if _, err := svc.repo.CreditWallet(ctx, testBuyer, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if products, _ := svc.AvailableProducts(ctx, ""); len(products) != 1 {
		t.Fatalf("expected product listed before purchase")
	}

	if _, err := svc.Purchase(ctx, testBuyer, number); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if products, _ := svc.AvailableProducts(ctx, ""); len(products) != 0 {
		t.Fatalf("sold out product still listed: %+v", products)
	}

	_, err := svc.Purchase(ctx, testBuyer, 12345678)
	if !IsNotFound(err) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
}

func TestParseEditLine(t *testing.T) {
	tests := []struct {
		line    string
		name    string
		price   string
		qty     int
		wantErr bool
	}{
		{line: "Gadget,12.5,4", name: "Gadget", price: "12.5", qty: 4},
		{line: " Gadget , 3 , 0 ", name: "Gadget", price: "3", qty: 0},
		{line: "Gadget,12.5", wantErr: true},
		{line: "Gadget,abc,1", wantErr: true},
		{line: "Gadget,1,-1", wantErr: true},
		{line: ",1,1", wantErr: true},
	}

	for _, tt := range tests {
		name, price, qty, err := ParseEditLine(tt.line)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidEditLine) {
				t.Errorf("%q: expected ErrInvalidEditLine, got %v", tt.line, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.line, err)
			continue
		}
		if name != tt.name || !price.Equal(decimal.RequireFromString(tt.price)) || qty != tt.qty {
			t.Errorf("%q: got %q %s %d", tt.line, name, price, qty)
		}
	}
}

func TestEditUnknownProduct(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.EditProduct(context.Background(), 12345678, "Gadget,1,1")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateTopUpBuildsInvoice(t *testing.T) {
	svc := newTestService(t)

	invoice, err := svc.CreateTopUp(context.Background(), testBuyer, decimal.RequireFromString("5.25"))
	if err != nil {
		t.Fatalf("create top-up: %v", err)
	}
	if invoice.AmountMinor != 525 || invoice.Currency != "USD" || invoice.ProviderToken != "provider-token" {
		t.Fatalf("unexpected invoice %+v", invoice)
	}

	if _, err := svc.CreateTopUp(context.Background(), testBuyer, decimal.RequireFromString("0.001")); err == nil {
		t.Fatal("expected sub-cent amount to be rejected")
	}
	if _, err := svc.CreateTopUp(context.Background(), testBuyer, decimal.Zero); err == nil {
		t.Fatal("expected zero amount to be rejected")
	}
	for _, huge := range []string{"184467440737095516.17", "1e17"} {
		if _, err := svc.CreateTopUp(context.Background(), testBuyer, decimal.RequireFromString(huge)); !errors.Is(err, utils.ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v", huge, err)
		}
	}
}

func TestValidatePreCheckout(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	invoice, err := svc.CreateTopUp(ctx, testBuyer, decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("create top-up: %v", err)
	}
	valid := PreCheckout{QueryID: "q", FromID: testBuyer, Currency: "USD", TotalAmount: 200, Payload: invoice.Payload}

	if err := svc.ValidatePreCheckout(ctx, valid); err != nil {
		t.Fatalf("valid pre-checkout rejected: %v", err)
	}

	unknown := valid
	unknown.Payload = "topup:forged"
	if err := svc.ValidatePreCheckout(ctx, unknown); !errors.Is(err, ErrUnknownTopUp) {
		t.Fatalf("expected ErrUnknownTopUp, got %v", err)
	}

	for name, mutate := range map[string]func(*PreCheckout){
		"amount":   func(q *PreCheckout) { q.TotalAmount = 100 },
		"currency": func(q *PreCheckout) { q.Currency = "EUR" },
		"payer":    func(q *PreCheckout) { q.FromID = 777 },
	} {
		q := valid
		mutate(&q)
		if err := svc.ValidatePreCheckout(ctx, q); !errors.Is(err, ErrTopUpMismatch) {
			t.Errorf("%s: expected ErrTopUpMismatch, got %v", name, err)
		}
	}
}

func TestConfirmPaymentCreditsOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	invoice, err := svc.CreateTopUp(ctx, testBuyer, decimal.RequireFromString("0.01"))
	if err != nil {
		t.Fatalf("create top-up: %v", err)
	}
	confirmation := PaymentConfirmation{
		UserID:      testBuyer,
		PaymentID:   "charge-1",
		Currency:    "USD",
		TotalAmount: 1,
		Payload:     invoice.Payload,
	}

	credit, balance, err := svc.ConfirmPayment(ctx, confirmation)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	want := decimal.RequireFromString("0.01")
	if !credit.Equal(want) || !balance.Equal(want) {
		t.Fatalf("expected credit and balance 0.01, got %s and %s", credit, balance)
	}

	if _, _, err := svc.ConfirmPayment(ctx, confirmation); !errors.Is(err, ErrPaymentAlreadyProcessed) {
		t.Fatalf("expected duplicate to be rejected, got %v", err)
	}
	got, err := svc.Balance(ctx, testBuyer)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("balance after redelivery = %s, want %s", got, want)
	}

	q := PreCheckout{FromID: testBuyer, Currency: "USD", TotalAmount: 1, Payload: invoice.Payload}
	if err := svc.ValidatePreCheckout(ctx, q); !errors.Is(err, ErrTopUpMismatch) {
		t.Fatalf("paid top-up should not pass pre-checkout again, got %v", err)
	}
}

func TestCreditWalletRequiresAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreditWallet(ctx, testBuyer, testBuyer, decimal.NewFromInt(5)); err == nil {
		t.Fatal("expected non-admin credit to fail")
	}
	balance, err := svc.CreditWallet(ctx, testAdmin, testBuyer, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("balance = %s, want 5", balance)
	}
}
