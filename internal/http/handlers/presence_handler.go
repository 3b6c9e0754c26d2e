// Presence HTTP handlers.
//
// This file exposes presence session endpoints:
//   - POST  /presence        (open a session on arrival)
//   - PATCH /presence/:id    (close a session on departure)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-journal-backend/internal/services"
)

// ArriveRequest is the JSON payload for opening a presence session.
type ArriveRequest struct {
	// ArrivedAt is when the user arrived.
	ArrivedAt time.Time `json:"arrived_at"`
}

// DepartRequest is the JSON payload for closing a presence session.
type DepartRequest struct {
	// DepartedAt is when the user left.
	DepartedAt time.Time `json:"departed_at"`
}

// Arrive handles POST /presence.
func (h *Handlers) Arrive(c *gin.Context) {
	var req ArriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sess, err := h.presenceSvc.Arrive(c.Request.Context(), userID(c), req.ArrivedAt)
	if err != nil {
		if services.IsValidation(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, sess)
}

// Depart handles PATCH /presence/:id.
func (h *Handlers) Depart(c *gin.Context) {
	var req DepartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.presenceSvc.Depart(c.Request.Context(), c.Param("id"), req.DepartedAt); err != nil {
		switch {
		case services.IsValidation(err):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "presence session not found or already closed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
