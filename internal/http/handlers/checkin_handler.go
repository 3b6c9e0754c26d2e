// Check-in HTTP handlers.
//
// This file exposes REST endpoints for check-in resources:
//   - POST   /checkins   (submit a voice check-in transcript)
//   - GET    /checkins   (list recent, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses
// and Idempotency-Key replays).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-journal-backend/internal/domain"
	"github.com/tbourn/go-journal-backend/internal/http/middleware"
	"github.com/tbourn/go-journal-backend/internal/repo"
	"github.com/tbourn/go-journal-backend/internal/services"
	"github.com/tbourn/go-journal-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// CheckinService defines check-in intake and listing operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CheckinService interface {
	// Submit validates and durably stores a check-in, then triggers extraction
	// asynchronously.
	Submit(ctx context.Context, in services.SubmitCheckinInput) (*domain.Checkin, error)
	// ListRecentPage returns a page of recent check-ins and the total count.
	ListRecentPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Checkin, int64, error)
	// RecentSince exposes the listing window start for ETag generation.
	RecentSince() time.Time
}

// PromptService selects the next question to ask a user.
type PromptService interface {
	// Next returns the prompt for userID given an optional situational context
	// and, for post-meeting, the meeting name.
	Next(ctx context.Context, userID, situation, meetingName string) (*services.Prompt, error)
}

// ExtractionService runs the extraction pipeline for a stored check-in.
type ExtractionService interface {
	// Process extracts structured entries from the check-in transcript and
	// persists them. Safe to call repeatedly for the same check-in.
	Process(ctx context.Context, checkinID string) (*services.ProcessResult, error)
}

// PresenceService opens and closes presence sessions.
type PresenceService interface {
	// Arrive opens a session for userID at the given time.
	Arrive(ctx context.Context, userID string, arrivedAt time.Time) (*domain.PresenceSession, error)
	// Depart closes an open session.
	Depart(ctx context.Context, sessionID string, departedAt time.Time) error
}

// SummaryService computes the daily dashboard summary.
type SummaryService interface {
	Today(ctx context.Context, userID string) (*services.TodaySummary, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for check-ins, prompts, extractions,
// presence, and summaries. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	checkinSvc  CheckinService
	promptSvc   PromptService
	extractSvc  ExtractionService
	presenceSvc PresenceService
	summarySvc  SummaryService

	// IdempotencyTTL controls how long stored Idempotency-Key records replay.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(checkinSvc CheckinService, promptSvc PromptService, extractSvc ExtractionService, presenceSvc PresenceService, summarySvc SummaryService) *Handlers {
	return &Handlers{
		checkinSvc:     checkinSvc,
		promptSvc:      promptSvc,
		extractSvc:     extractSvc,
		presenceSvc:    presenceSvc,
		summarySvc:     summarySvc,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// SubmitCheckinRequest is the JSON payload for submitting a check-in.
type SubmitCheckinRequest struct {
	// Transcript is the raw voice transcript text.
	Transcript string `json:"transcript"`
	// RecordedAt is when the check-in was captured on the client.
	RecordedAt time.Time `json:"recorded_at"`
	// QuestionID optionally links the check-in to the stored question asked.
	QuestionID *string `json:"question_id,omitempty"`
	// QuestionText optionally carries the asked question verbatim.
	QuestionText *string `json:"question_text,omitempty"`
	// SessionID optionally links the check-in to a presence session.
	SessionID *string `json:"session_id,omitempty"`
}

// SubmitCheckinResponse acknowledges a stored check-in. Extraction runs in
// the background, so "received" is all intake can promise.
type SubmitCheckinResponse struct {
	CheckinID string `json:"checkin_id"`
	Status    string `json:"status"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListCheckinsResponse wraps a page of check-ins and pagination information.
type ListCheckinsResponse struct {
	Checkins   []domain.Checkin `json:"checkins"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// db returns the underlying GORM handle when the check-in service is the
// concrete implementation; nil otherwise (e.g., fakes in tests).
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.checkinSvc.(*services.CheckinService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// SubmitCheckin handles POST /checkins.
//
// Validates the payload, stores the check-in, and triggers extraction in the
// background; the response never waits for extraction. When the request
// carries a previously seen Idempotency-Key, the originally created check-in
// id is returned again and no new row is written.
func (h *Handlers) SubmitCheckin(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// Idempotency replay: serve the stored check-in without re-submitting.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey {
		if db := h.db(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, uid, key, time.Now().UTC()); err == nil && rec != nil {
				if prev, err := repo.GetCheckin(ctx, db, rec.CheckinID); err == nil {
					ok(c, http.StatusOK, SubmitCheckinResponse{CheckinID: prev.ID, Status: "received"})
					return
				}
			}
		}
	}

	var req SubmitCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	checkin, err := h.checkinSvc.Submit(ctx, services.SubmitCheckinInput{
		UserID:       uid,
		Transcript:   strings.TrimSpace(req.Transcript),
		RecordedAt:   req.RecordedAt,
		QuestionID:   req.QuestionID,
		QuestionText: req.QuestionText,
		SessionID:    req.SessionID,
	})
	if err != nil {
		if services.IsValidation(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	// Record the key so retries replay this check-in. Failure to record is
	// non-fatal; the worst case is a duplicate row on retry.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey {
		if db := h.db(); db != nil {
			ttl := h.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			_, _ = repo.CreateIdempotency(ctx, db, uid, key, checkin.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, SubmitCheckinResponse{CheckinID: checkin.ID, Status: "received"})
}

// ListCheckins handles GET /checkins.
//
// Returns a page of the user's recent check-ins (newest first). Supports weak
// ETag via If-None-Match and may return 304.
func (h *Handlers) ListCheckins(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.db(); db != nil {
		count, maxTS, err := repo.CheckinStats(ctx, db, uid, h.checkinSvc.RecentSince())
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"checkins:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.checkinSvc.ListRecentPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListCheckinsResponse{
		Checkins: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}
