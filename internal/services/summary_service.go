// Package services – SummaryService
//
// This file computes the dashboard's daily summary: today's check-in count
// and logged meal types, the 7-day mood/energy averages, and total presence
// minutes today. Aggregation stays at simple counts and averages.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/repo"
)

// TodaySummary is the daily rollup returned to the dashboard.
type TodaySummary struct {
	CheckinCount    int64    `json:"checkin_count"`
	MealTypes       []string `json:"meal_types"`
	AvgMood         float64  `json:"avg_mood"`
	AvgEnergy       float64  `json:"avg_energy"`
	MoodSamples     int64    `json:"mood_samples"`
	PresenceMinutes int      `json:"presence_minutes"`
}

// SummaryService computes daily summaries.
type SummaryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Now supplies the wall clock; open presence sessions are counted up to
	// this instant. Defaults to time.Now.
	Now func() time.Time
}

// Today returns the summary for userID's current day.
func (s *SummaryService) Today(ctx context.Context, userID string) (*TodaySummary, error) {
	if userID == "" {
		return nil, validationErr("user_id")
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	dayStart := startOfDay(now)
	weekStart := startOfDay(now.AddDate(0, 0, -7))

	count, err := repo.CountCheckinsSince(ctx, s.DB, userID, dayStart)
	if err != nil {
		return nil, err
	}

	mealTypes, err := repo.ListMealTypesSince(ctx, s.DB, userID, dayStart)
	if err != nil {
		return nil, err
	}

	avgMood, avgEnergy, samples, err := repo.MoodAverages(ctx, s.DB, userID, weekStart)
	if err != nil {
		return nil, err
	}

	sessions, err := repo.ListPresenceSince(ctx, s.DB, userID, dayStart)
	if err != nil {
		return nil, err
	}
	var present time.Duration
	for _, sess := range sessions {
		end := now
		if sess.DepartedAt != nil {
			end = *sess.DepartedAt
		}
		if end.After(sess.ArrivedAt) {
			present += end.Sub(sess.ArrivedAt)
		}
	}

	if mealTypes == nil {
		mealTypes = []string{}
	}
	return &TodaySummary{
		CheckinCount:    count,
		MealTypes:       mealTypes,
		AvgMood:         avgMood,
		AvgEnergy:       avgEnergy,
		MoodSamples:     samples,
		PresenceMinutes: int(present.Minutes()),
	}, nil
}
