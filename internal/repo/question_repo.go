// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Question
// model: listing selectable prompts, storing generated follow-ups, and
// seeding the default question set.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/domain"
)

// ListActiveQuestions returns the user's active questions in the given
// category, newest-created first.
func ListActiveQuestions(ctx context.Context, db *gorm.DB, userID, category string) ([]domain.Question, error) {
	var out []domain.Question
	err := db.WithContext(ctx).
		Where("user_id = ? AND category = ? AND active = ?", userID, category, true).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CreateGeneratedQuestions inserts one follow_up question per text, marked
// is_generated and linked back to the check-in whose extraction produced them.
func CreateGeneratedQuestions(ctx context.Context, db *gorm.DB, userID, sourceCheckinID string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]domain.Question, 0, len(texts))
	for _, t := range texts {
		src := sourceCheckinID
		rows = append(rows, domain.Question{
			ID:              uuid.NewString(),
			UserID:          userID,
			Text:            t,
			Category:        domain.CategoryFollowUp,
			Active:          true,
			IsGenerated:     true,
			SourceCheckinID: &src,
			CreatedAt:       now,
		})
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// defaultQuestions is the seed set installed for a user whose questions table
// is empty. One batch per category keeps every rung of the selector ladder
// answerable out of the box.
var defaultQuestions = map[string][]string{
	domain.CategoryMorning: {
		"What did you have for breakfast?",
		"How are you feeling as the day starts?",
		"What's the first thing you want to get done today?",
	},
	domain.CategoryAfternoon: {
		"How's your energy holding up?",
		"How are you feeling right now?",
	},
	domain.CategoryEndOfDay: {
		"What did you get done today?",
		"Anything still on your mind before you wrap up?",
	},
	domain.CategoryReturn: {
		"What did you have for lunch?",
		"Did you take a real break?",
	},
	domain.CategoryWeekly: {
		"What would make this week a good week?",
		"Anything you're worried about this week?",
	},
	domain.CategoryOpen: {
		"What's on your mind right now?",
		"Anything worth noting down?",
	},
}

// SeedDefaultQuestions inserts the default question set for userID if they
// have no questions yet. It is idempotent across restarts.
func SeedDefaultQuestions(ctx context.Context, db *gorm.DB, userID string) error {
	var n int64
	if err := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	now := time.Now().UTC()
	var rows []domain.Question
	for category, texts := range defaultQuestions {
		for _, t := range texts {
			rows = append(rows, domain.Question{
				ID:        uuid.NewString(),
				UserID:    userID,
				Text:      t,
				Category:  category,
				Active:    true,
				CreatedAt: now,
			})
		}
	}
	return db.WithContext(ctx).Create(&rows).Error
}
