// Package services – CheckinService
//
// This file implements check-in intake. Submit validates the payload, stores
// the check-in durably, and returns immediately; extraction is triggered on a
// detached goroutine afterwards. The trigger is best-effort by design: the
// row is already safe in storage, the extraction pipeline is idempotent, and
// a stuck unprocessed check-in can be re-triggered through the extraction
// endpoint at any time. Trigger failures are therefore logged and swallowed,
// never surfaced to the submitting caller.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/domain"
	"github.com/tbourn/go-journal-backend/internal/repo"
)

// Processor triggers the extraction pipeline for a stored check-in.
// *ExtractionService is the production implementation.
type Processor interface {
	Process(ctx context.Context, checkinID string) (*ProcessResult, error)
}

// CheckinService owns check-in intake and listing.
type CheckinService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Processor receives the fire-and-forget extraction trigger. A nil
	// Processor disables triggering (useful in tests and backfills).
	Processor Processor

	// TriggerTimeout bounds the detached extraction run. Defaults to 60s.
	TriggerTimeout time.Duration
	// RecentWindow is the look-back for ListRecentPage. Defaults to 7 days.
	RecentWindow time.Duration
	// Now supplies the wall clock for the listing window. Defaults to time.Now.
	Now func() time.Time
}

// NewCheckinService constructs a CheckinService with production defaults.
func NewCheckinService(db *gorm.DB, p Processor) *CheckinService {
	return &CheckinService{
		DB:             db,
		Processor:      p,
		TriggerTimeout: 60 * time.Second,
		RecentWindow:   7 * 24 * time.Hour,
		Now:            time.Now,
	}
}

// SubmitCheckinInput is the validated intake payload.
type SubmitCheckinInput struct {
	UserID       string
	Transcript   string
	RecordedAt   time.Time
	QuestionID   *string
	QuestionText *string
	SessionID    *string
}

// Submit validates and stores a check-in, then signals the extraction
// pipeline without waiting for it. Success is defined solely by durable
// storage of the row.
func (s *CheckinService) Submit(ctx context.Context, in SubmitCheckinInput) (*domain.Checkin, error) {
	var missing []string
	if in.Transcript == "" {
		missing = append(missing, "transcript")
	}
	if in.RecordedAt.IsZero() {
		missing = append(missing, "recorded_at")
	}
	if in.UserID == "" {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return nil, validationErr(missing...)
	}

	checkin, err := repo.CreateCheckin(ctx, s.DB, &domain.Checkin{
		UserID:       in.UserID,
		Transcript:   in.Transcript,
		QuestionID:   in.QuestionID,
		QuestionText: in.QuestionText,
		SessionID:    in.SessionID,
		RecordedAt:   in.RecordedAt,
	})
	if err != nil {
		return nil, err
	}

	if s.Processor != nil {
		go s.trigger(checkin.ID)
	}
	return checkin, nil
}

// trigger runs the extraction pipeline on a context detached from the intake
// request, so the caller is never held open and a client disconnect cannot
// cancel the work.
func (s *CheckinService) trigger(checkinID string) {
	timeout := s.TriggerTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := s.Processor.Process(ctx, checkinID); err != nil {
		log.Warn().
			Err(err).
			Str("checkin_id", checkinID).
			Msg("async extraction trigger failed; check-in remains unprocessed")
	}
}

// ListRecentPage returns a page of the user's check-ins from the recent
// window (newest first) and the total count in that window.
func (s *CheckinService) ListRecentPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Checkin, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	since := s.recentSince()
	total, err := repo.CountCheckinsSince(ctx, s.DB, userID, since)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Checkin{}, 0, nil
	}

	items, err := repo.ListCheckinsPageSince(ctx, s.DB, userID, since, offset, pageSize)
	return items, total, err
}

// RecentSince exposes the window start so the handler can build a matching
// ETag from repo.CheckinStats.
func (s *CheckinService) RecentSince() time.Time { return s.recentSince() }

// recentSince returns local midnight of the day RecentWindow ago, mirroring
// how the dashboard window is anchored.
func (s *CheckinService) recentSince() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	window := s.RecentWindow
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return startOfDay(now.Add(-window))
}
