// Prompt HTTP handlers.
//
// This file exposes the prompt selection endpoint:
//   - GET /prompt/next
//
// The selector itself lives in the services layer; this handler only reads
// the optional query parameters and maps service errors to HTTP responses.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-journal-backend/internal/services"
)

// NextPrompt handles GET /prompt/next.
//
// Query parameters:
//   - context:      optional situational hint (first_arrival, return_from_break,
//     post_meeting)
//   - meeting_name: required to synthesize a post_meeting prompt; without it
//     the hint is ignored and the selector proceeds normally
//
// Always returns a prompt on success; when no stored question qualifies the
// selector falls back to a fixed question with source "fallback".
func (h *Handlers) NextPrompt(c *gin.Context) {
	situation := c.Query("context")
	meetingName := c.Query("meeting_name")

	p, err := h.promptSvc.Next(c.Request.Context(), userID(c), situation, meetingName)
	if err != nil {
		if services.IsValidation(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodePromptFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}
