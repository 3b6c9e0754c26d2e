// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for presence
// sessions (arrival/departure tracking).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/domain"
)

// CreatePresenceSession opens a new session for userID at arrivedAt.
func CreatePresenceSession(ctx context.Context, db *gorm.DB, userID string, arrivedAt time.Time) (*domain.PresenceSession, error) {
	s := &domain.PresenceSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		ArrivedAt: arrivedAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// ClosePresenceSession sets departed_at on an open session. Closing an
// already-closed or unknown session returns ErrNotFound.
func ClosePresenceSession(ctx context.Context, db *gorm.DB, sessionID string, departedAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.PresenceSession{}).
		Where("id = ? AND departed_at IS NULL", sessionID).
		Update("departed_at", departedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPresenceSince returns the user's sessions that started at or after
// since, oldest first. Open sessions (nil DepartedAt) are included.
func ListPresenceSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) ([]domain.PresenceSession, error) {
	var out []domain.PresenceSession
	err := db.WithContext(ctx).
		Where("user_id = ? AND arrived_at >= ?", userID, since).
		Order("arrived_at asc").
		Find(&out).Error
	return out, err
}
