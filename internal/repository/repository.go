package repository

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/Fi44er/shop_bot/utils"
	"gorm.io/gorm"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrInsufficientFunds      = errors.New("insufficient wallet balance")
	ErrOutOfStock             = errors.New("product is out of stock")
	ErrAlreadyProcessed       = errors.New("payment already processed")
	ErrProductNumberExhausted = errors.New("could not allocate a free product number")
	ErrInvalidArgument        = errors.New("invalid argument")
)

const productNumberAttempts = 16

// Repository serializes every statement behind mu; at most one operation
// touches the database at any moment.
type Repository struct {
	db     *gorm.DB
	logger *utils.Logger

	mu            sync.Mutex
	productNumber func() int64
}

func NewRepository(db *gorm.DB, logger *utils.Logger) *Repository {
	return &Repository{
		db:            db,
		logger:        logger,
		productNumber: randomProductNumber,
	}
}

func randomProductNumber() int64 {
	return utils.MinProductNumber + rand.Int63n(utils.MaxProductNumber-utils.MinProductNumber+1)
}

func (r *Repository) lock() func() {
	r.mu.Lock()
	return r.mu.Unlock
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
