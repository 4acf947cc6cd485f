package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultCategory = "Default Category"

const (
	PaidMethodWallet = "Wallet"

	TopUpStatusPending = "pending"
	TopUpStatusPaid    = "paid"
)

type User struct {
	UserID    int64           `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username  string          `json:"username"`
	Wallet    decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"wallet"`
	CreatedAt time.Time       `json:"created_at"`

	Orders []Order `gorm:"foreignKey:BuyerID;references:UserID" json:"orders,omitempty"`
}

type Admin struct {
	AdminID   int64           `gorm:"primaryKey;autoIncrement:false" json:"admin_id"`
	Username  string          `json:"username"`
	Wallet    decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"wallet"`
	CreatedAt time.Time       `json:"created_at"`

	Products []Product `gorm:"foreignKey:AdminID;references:AdminID" json:"products,omitempty"`
}

type Category struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	CategoryNumber int64  `gorm:"uniqueIndex;not null" json:"category_number"`
	CategoryName   string `gorm:"uniqueIndex;not null" json:"category_name"`
}

type Product struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	ProductNumber       int64           `gorm:"uniqueIndex;not null" json:"product_number"`
	AdminID             int64           `gorm:"index;not null" json:"admin_id"`
	Username            string          `json:"username"`
	ProductName         string          `gorm:"not null" json:"product_name"`
	ProductDescription  string          `json:"product_description"`
	ProductPrice        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"product_price"`
	ProductImageLink    string          `json:"product_image_link,omitempty"`
	ProductDownloadLink string          `json:"product_download_link,omitempty"`
	ProductKeysFile     string          `json:"product_keys_file,omitempty"`
	ProductQuantity     int             `gorm:"not null;default:0" json:"product_quantity"`
	ProductCategory     string          `gorm:"index;not null;default:'Default Category'" json:"product_category"`
	CreatedAt           time.Time       `json:"created_at"`

	Orders []Order `gorm:"foreignKey:ProductNumber;references:ProductNumber" json:"orders,omitempty"`
}

func (p *Product) InStock() bool {
	return p.ProductQuantity > 0
}

// Order keeps a snapshot of the product at purchase time; the snapshot is never updated.
type Order struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderNumber         string          `gorm:"uniqueIndex;size:36;not null" json:"order_number"`
	BuyerID             int64           `gorm:"index;not null" json:"buyer_id"`
	BuyerUsername       string          `json:"buyer_username"`
	ProductNumber       int64           `gorm:"index;not null" json:"product_number"`
	ProductName         string          `json:"product_name"`
	ProductPrice        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"product_price"`
	OrderDate           time.Time       `json:"order_date"`
	PaidMethod          string          `gorm:"default:'NO'" json:"paid_method"`
	PaymentID           string          `json:"payment_id,omitempty"`
	ProductDownloadLink string          `json:"product_download_link,omitempty"`
	ProductKeys         string          `json:"product_keys,omitempty"`
	BuyerComment        string          `json:"buyer_comment,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderNumber == "" {
		o.OrderNumber = uuid.NewString()
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now()
	}
	return nil
}

type PaymentMethod struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	AdminID           int64  `json:"admin_id"`
	Username          string `json:"username"`
	MethodName        string `gorm:"uniqueIndex;not null" json:"method_name"`
	TokenKeysClientID string `json:"-"`
	SecretKeys        string `json:"-"`
	Activated         bool   `gorm:"not null;default:false" json:"activated"`
}

// TopUp is an invoice the bot issued and has not necessarily been paid yet.
type TopUp struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Payload     string `gorm:"uniqueIndex;size:64;not null" json:"payload"`
	UserID      int64  `gorm:"index;not null" json:"user_id"`
	AmountMinor int64  `gorm:"not null" json:"amount_minor"`
	Currency    string `gorm:"size:3;not null" json:"currency"`
	Status      string `gorm:"not null;default:'pending'" json:"status"`
	CreatedAt   time.Time
	PaidAt      *time.Time
}

// ProcessedPayment is the idempotency ledger for successful payments.
type ProcessedPayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PaymentID   string          `gorm:"uniqueIndex;not null" json:"payment_id"`
	UserID      int64           `gorm:"index;not null" json:"user_id"`
	Payload     string          `json:"payload"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	Credited    decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"credited"`
	CreatedAt   time.Time
}

// SuccessfulPayment is the part of a provider confirmation the wallet cares about.
type SuccessfulPayment struct {
	PaymentID   string
	UserID      int64
	Payload     string
	AmountMinor int64
	Currency    string
	Credit      decimal.Decimal
}
