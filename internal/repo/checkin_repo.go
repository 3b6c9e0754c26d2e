// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Checkin
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a check-in is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateCheckin inserts a new Checkin row with Processed=false. The id is a
// randomly generated UUID and CreatedAt is set to UTC.
func CreateCheckin(ctx context.Context, db *gorm.DB, c *domain.Checkin) (*domain.Checkin, error) {
	c.ID = uuid.NewString()
	c.Processed = false
	c.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetCheckin fetches a single check-in by id, or ErrNotFound if missing.
func GetCheckin(ctx context.Context, db *gorm.DB, id string) (*domain.Checkin, error) {
	var c domain.Checkin
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCheckinsSince returns all of a user's check-ins recorded at or after
// since, newest first. Used by the prompt selector to compute the set of
// question ids already asked today.
func ListCheckinsSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) ([]domain.Checkin, error) {
	var out []domain.Checkin
	err := db.WithContext(ctx).
		Where("user_id = ? AND recorded_at >= ?", userID, since).
		Order("recorded_at desc").
		Find(&out).Error
	return out, err
}

// CountCheckinsSince returns the number of a user's check-ins recorded at or
// after since.
func CountCheckinsSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Checkin{}).
		Where("user_id = ? AND recorded_at >= ?", userID, since).
		Count(&total).Error
	return total, err
}

// ListCheckinsPageSince returns a paginated slice of a user's check-ins
// recorded at or after since, newest first. Use CountCheckinsSince for
// pagination metadata.
func ListCheckinsPageSince(ctx context.Context, db *gorm.DB, userID string, since time.Time, offset, limit int) ([]domain.Checkin, error) {
	var out []domain.Checkin
	err := db.WithContext(ctx).
		Where("user_id = ? AND recorded_at >= ?", userID, since).
		Order("recorded_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkCheckinProcessed flips the processed flag of an unprocessed check-in.
// The WHERE clause guards on processed=false so the false→true transition can
// happen at most once; flipped=false with a nil error means the row was
// already processed (or absent), which callers treat as a no-op.
func MarkCheckinProcessed(ctx context.Context, db *gorm.DB, id string) (flipped bool, err error) {
	res := db.WithContext(ctx).
		Model(&domain.Checkin{}).
		Where("id = ? AND processed = ?", id, false).
		Update("processed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
