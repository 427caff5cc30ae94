package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focustrack-go/internal/database"
	"focustrack-go/internal/models"
	"focustrack-go/internal/points"

	"gorm.io/gorm"
)

// PointsStore implements points.Store over the gorm database. The unique
// index on (user_id, reason) does the real idempotency work; everything here
// just reacts to it.
type PointsStore struct{}

// NewPointsStore returns the gorm-backed ledger store.
func NewPointsStore() *PointsStore {
	return &PointsStore{}
}

// Award inserts the transaction and bumps the user's balance in one DB
// transaction. An existing (user, reason) pair makes this an idempotent
// no-op: (false, nil).
func (s *PointsStore) Award(ctx context.Context, userID uint, amount int, reason string) (bool, error) {
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn := models.PointTransaction{UserID: userID, Amount: amount, Reason: reason}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			Update("points", gorm.Expr("points + ?", amount)).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, storageErr(err)
	}
	return true, nil
}

// HasAward reports whether the reason was already granted.
func (s *PointsStore) HasAward(ctx context.Context, userID uint, reason string) (bool, error) {
	var count int64
	err := database.DB.WithContext(ctx).Model(&models.PointTransaction{}).
		Where("user_id = ? AND reason = ?", userID, reason).
		Count(&count).Error
	if err != nil {
		return false, storageErr(err)
	}
	return count > 0, nil
}

// CountAwards counts transactions with a reason prefix, e.g. "HOUR_<date>_".
func (s *PointsStore) CountAwards(ctx context.Context, userID uint, prefix string) (int, error) {
	var count int64
	err := database.DB.WithContext(ctx).Model(&models.PointTransaction{}).
		Where("user_id = ? AND reason LIKE ?", userID, prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, storageErr(err)
	}
	return int(count), nil
}

// SessionsEndedBetween returns finalized sessions ending in [from, to),
// breaks preloaded so net durations can be computed.
func (s *PointsStore) SessionsEndedBetween(ctx context.Context, userID uint, from, to time.Time) ([]models.StudySession, error) {
	var sessions []models.StudySession
	err := database.DB.WithContext(ctx).Preload("Breaks").
		Where("user_id = ? AND end_time >= ? AND end_time < ?", userID, from, to).
		Find(&sessions).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return sessions, nil
}

// Streak returns the user's attendance streak counter.
func (s *PointsStore) Streak(ctx context.Context, userID uint) (int, error) {
	var user models.User
	if err := database.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return 0, storageErr(err)
	}
	return user.ContinuousCount, nil
}

// SetStreak overwrites the user's attendance streak counter.
func (s *PointsStore) SetStreak(ctx context.Context, userID uint, count int) error {
	err := database.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("continuous_count", count).Error
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// Debit records a negative transaction and decrements the balance, all or
// nothing. Insufficient balance rolls everything back; a duplicate reason is
// an idempotent no-op (the original debit already went through).
func (s *PointsStore) Debit(ctx context.Context, userID uint, amount int, reason string) error {
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn := models.PointTransaction{UserID: userID, Amount: -amount, Reason: reason}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		result := tx.Model(&models.User{}).
			Where("id = ? AND points >= ?", userID, amount).
			Update("points", gorm.Expr("points - ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return points.ErrInsufficientFunds
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	if err != nil && !errors.Is(err, points.ErrInsufficientFunds) {
		return storageErr(err)
	}
	return err
}

// GetTransactions returns the user's ledger history, newest first.
func GetTransactions(ctx context.Context, userID uint) ([]models.PointTransaction, error) {
	var txns []models.PointTransaction
	err := database.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&txns).Error
	return txns, err
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", points.ErrStorageUnavailable, err)
}
