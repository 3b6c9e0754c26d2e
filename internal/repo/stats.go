// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) and the daily summary. Each
// function is context-aware and safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/domain"
)

// CheckinStats returns aggregate metadata for a user's check-ins recorded at
// or after since: the total number of rows and the maximum CreatedAt among
// them. When there are no rows, count is 0 and maxCreatedAt is nil.
//
// Return values:
//   - count:        total check-ins in the window
//   - maxCreatedAt: pointer to the greatest CreatedAt, or nil if no rows
//   - err:          database error, if any
func CheckinStats(ctx context.Context, db *gorm.DB, userID string, since time.Time) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Checkin{}).Where("user_id = ? AND recorded_at >= ?", userID, since)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// MoodAverages returns the average mood and energy scores over the user's
// mood entries logged at or after since, plus the number of entries. With no
// entries the averages are 0 and n is 0.
func MoodAverages(ctx context.Context, db *gorm.DB, userID string, since time.Time) (avgMood, avgEnergy float64, n int64, err error) {
	q := db.WithContext(ctx).Model(&domain.MoodEntry{}).Where("user_id = ? AND logged_at >= ?", userID, since)

	if err = q.Count(&n).Error; err != nil {
		return 0, 0, 0, err
	}
	if n == 0 {
		return 0, 0, 0, nil
	}

	var row struct {
		AvgMood   float64
		AvgEnergy float64
	}
	if err = q.Select("AVG(mood_score) AS avg_mood, AVG(energy_score) AS avg_energy").Scan(&row).Error; err != nil {
		return 0, 0, 0, err
	}
	return row.AvgMood, row.AvgEnergy, n, nil
}
