package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/shop_bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertUser inserts the user if absent. An existing row keeps its name and wallet.
func (r *Repository) UpsertUser(ctx context.Context, userID int64, username string) error {
	defer r.lock()()

	return r.withTx(ctx, "upsert user", func(tx *gorm.DB) error {
		user := &models.User{UserID: userID, Username: username}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
			return fmt.Errorf("failed to upsert user %d: %w", userID, err)
		}
		return nil
	})
}

func (r *Repository) UpsertAdmin(ctx context.Context, adminID int64, username string) error {
	defer r.lock()()

	return r.withTx(ctx, "upsert admin", func(tx *gorm.DB) error {
		admin := &models.Admin{AdminID: adminID, Username: username}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(admin).Error; err != nil {
			return fmt.Errorf("failed to upsert admin %d: %w", adminID, err)
		}
		return nil
	})
}

func (r *Repository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	defer r.lock()()

	var user models.User
	err := r.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		r.logger.Errorf("failed to get user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &user, nil
}

func (r *Repository) GetAdmin(ctx context.Context, adminID int64) (*models.Admin, error) {
	defer r.lock()()

	var admin models.Admin
	err := r.db.WithContext(ctx).First(&admin, "admin_id = ?", adminID).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		r.logger.Errorf("failed to get admin %d: %v", adminID, err)
		return nil, fmt.Errorf("failed to get admin %d: %w", adminID, err)
	}
	return &admin, nil
}

func loadUser(tx *gorm.DB, userID int64) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, "user_id = ?", userID).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &user, nil
}
