package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

func (r *Repository) BeginTransaction(ctx context.Context) (*gorm.DB, error) {
	r.logger.Debug("Starting transaction...")
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		r.logger.Errorf("Failed to start transaction: %v", tx.Error)
		return nil, tx.Error
	}
	return tx, nil
}

func (r *Repository) Commit(tx *gorm.DB) error {
	r.logger.Debug("Committing transaction...")
	if err := tx.Commit().Error; err != nil {
		r.logger.Errorf("Failed to commit transaction: %v", err)
		return err
	}
	return nil
}

func (r *Repository) Rollback(tx *gorm.DB) {
	r.logger.Warn("Rolling back transaction...")
	_ = tx.Rollback().Error
}

// withTx runs fn in a transaction. The caller must hold r.mu.
func (r *Repository) withTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) (err error) {
	tx, err := r.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorf("Panic in %s: %v", op, p)
			r.Rollback(tx)
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if isBusinessError(err) {
			r.logger.Warnf("%s rejected: %v", op, err)
		} else {
			r.logger.Errorf("%s failed: %v", op, err)
		}
		r.Rollback(tx)
		return err
	}

	return r.Commit(tx)
}

func isBusinessError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrAlreadyProcessed) ||
		errors.Is(err, ErrInvalidArgument)
}
