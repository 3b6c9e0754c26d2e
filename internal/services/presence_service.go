// Package services – PresenceService
//
// Presence sessions have a lifecycle independent of check-ins: one row per
// arrival, closed by setting departed_at on departure. Open sessions are
// treated as ongoing until now when durations are computed (see
// SummaryService).
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/domain"
	"github.com/tbourn/go-journal-backend/internal/repo"
)

// PresenceService opens and closes presence sessions.
type PresenceService struct {
	// DB is the database handle used for all presence operations.
	DB *gorm.DB
}

// Arrive opens a new session for userID at arrivedAt.
func (s *PresenceService) Arrive(ctx context.Context, userID string, arrivedAt time.Time) (*domain.PresenceSession, error) {
	var missing []string
	if userID == "" {
		missing = append(missing, "user_id")
	}
	if arrivedAt.IsZero() {
		missing = append(missing, "arrived_at")
	}
	if len(missing) > 0 {
		return nil, validationErr(missing...)
	}
	return repo.CreatePresenceSession(ctx, s.DB, userID, arrivedAt)
}

// Depart closes an open session. Closing an unknown or already-closed
// session yields ErrSessionNotFound.
func (s *PresenceService) Depart(ctx context.Context, sessionID string, departedAt time.Time) error {
	var missing []string
	if sessionID == "" {
		missing = append(missing, "session_id")
	}
	if departedAt.IsZero() {
		missing = append(missing, "departed_at")
	}
	if len(missing) > 0 {
		return validationErr(missing...)
	}
	if err := repo.ClosePresenceSession(ctx, s.DB, sessionID, departedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}
