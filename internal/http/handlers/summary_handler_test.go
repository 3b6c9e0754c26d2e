package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-journal-backend/internal/services"
)

func summaryRouter(svc SummaryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(stubCheckinSvc{}, stubPromptSvc{}, stubExtractSvc{}, stubPresenceSvc{}, svc)
	r := gin.New()
	r.GET("/summary/today", h.TodaySummary)
	return r
}

func TestTodaySummary_Success(t *testing.T) {
	r := summaryRouter(stubSummarySvc{
		today: func(_ context.Context, uid string) (*services.TodaySummary, error) {
			if uid != "u-9" {
				return nil, errors.New("wrong user")
			}
			return &services.TodaySummary{
				CheckinCount:    3,
				MealTypes:       []string{"breakfast", "lunch"},
				AvgMood:         6.5,
				AvgEnergy:       5.0,
				MoodSamples:     4,
				PresenceMinutes: 410,
			}, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/summary/today", nil)
	req.Header.Set("X-User-ID", "u-9")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var sum services.TodaySummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("json: %v", err)
	}
	if sum.CheckinCount != 3 || len(sum.MealTypes) != 2 || sum.PresenceMinutes != 410 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestTodaySummary_ServiceError(t *testing.T) {
	r := summaryRouter(stubSummarySvc{
		today: func(context.Context, string) (*services.TodaySummary, error) {
			return nil, errors.New("db down")
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/summary/today", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeInternal {
		t.Fatalf("code=%q", er.Code)
	}
}
