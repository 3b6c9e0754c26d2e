// Summary HTTP handlers.
//
// This file exposes the daily summary endpoint:
//   - GET /summary/today
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-journal-backend/internal/services"
)

// TodaySummary handles GET /summary/today.
//
// Returns today's check-in count and logged meal types, the trailing 7-day
// mood and energy averages, and total presence minutes today (open sessions
// count up to now).
func (h *Handlers) TodaySummary(c *gin.Context) {
	s, err := h.summarySvc.Today(c.Request.Context(), userID(c))
	if err != nil {
		if services.IsValidation(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, s)
}
