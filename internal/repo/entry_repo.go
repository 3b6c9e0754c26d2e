// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file covers the six extracted sub-entity collections:
// batch inserts used by the persistence fan-out, and the "what was logged
// today" queries consumed by the prompt selector.
//
// Each Insert* function writes a full batch in one statement; the fan-out
// issues them concurrently and treats each collection's failure in isolation.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/domain"
)

// InsertMeals writes a batch of meal rows.
func InsertMeals(ctx context.Context, db *gorm.DB, rows []domain.Meal) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// InsertMoodEntry writes a single mood entry row.
func InsertMoodEntry(ctx context.Context, db *gorm.DB, row *domain.MoodEntry) error {
	return db.WithContext(ctx).Create(row).Error
}

// InsertWorkEntries writes a batch of work entry rows.
func InsertWorkEntries(ctx context.Context, db *gorm.DB, rows []domain.WorkEntry) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// InsertWorries writes a batch of worry rows.
func InsertWorries(ctx context.Context, db *gorm.DB, rows []domain.Worry) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// InsertAnticipations writes a batch of anticipation rows.
func InsertAnticipations(ctx context.Context, db *gorm.DB, rows []domain.Anticipation) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// InsertPersonMentions writes a batch of person mention rows.
func InsertPersonMentions(ctx context.Context, db *gorm.DB, rows []domain.PersonMention) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// ListMealTypesSince returns the distinct meal types the user logged at or
// after since (e.g. {"breakfast","lunch"}).
func ListMealTypesSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Meal{}).
		Distinct("meal_type").
		Where("user_id = ? AND logged_at >= ?", userID, since).
		Pluck("meal_type", &out).Error
	return out, err
}

// LatestMoodSince returns the user's most recent mood entry logged at or
// after since, or (nil, nil) when there is none.
func LatestMoodSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) (*domain.MoodEntry, error) {
	var rows []domain.MoodEntry
	err := db.WithContext(ctx).
		Where("user_id = ? AND logged_at >= ?", userID, since).
		Order("logged_at desc").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// HasWorkEntrySince reports whether the user logged any work entry at or
// after since.
func HasWorkEntrySince(ctx context.Context, db *gorm.DB, userID string, since time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.WorkEntry{}).
		Where("user_id = ? AND logged_at >= ?", userID, since).
		Count(&n).Error
	return n > 0, err
}

// ListMealsSince returns the user's meals logged at or after since, oldest
// first (dashboard order).
func ListMealsSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) ([]domain.Meal, error) {
	var out []domain.Meal
	err := db.WithContext(ctx).
		Where("user_id = ? AND logged_at >= ?", userID, since).
		Order("logged_at asc").
		Find(&out).Error
	return out, err
}
