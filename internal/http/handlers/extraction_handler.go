// Extraction HTTP handlers.
//
// This file exposes the manual extraction trigger:
//   - POST /extractions
//
// The endpoint is safe to retry: re-triggering an already processed check-in
// returns an "already_processed" result without re-running the model or
// writing anything. Partial insert failures are reported in the result body
// alongside a 200; only model and parse failures fail the request.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-journal-backend/internal/llm"
	"github.com/tbourn/go-journal-backend/internal/services"
)

// ProcessExtractionRequest is the JSON payload for triggering extraction.
type ProcessExtractionRequest struct {
	// CheckinID identifies the stored check-in to process.
	CheckinID string `json:"checkin_id"`
}

// ProcessExtraction handles POST /extractions.
//
// Status mapping:
//   - 200: processed (possibly with insert_errors) or already_processed
//   - 400: missing/invalid checkin_id
//   - 404: unknown check-in
//   - 502: model call failed or model output was not parseable JSON; the
//     check-in stays unprocessed and the trigger can be retried
func (h *Handlers) ProcessExtraction(c *gin.Context) {
	var req ProcessExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	result, err := h.extractSvc.Process(c.Request.Context(), strings.TrimSpace(req.CheckinID))
	if err != nil {
		var svcErr *services.ExtractionServiceError
		var parseErr *llm.ParseError
		switch {
		case services.IsValidation(err):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrCheckinNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "check-in not found")
		case errors.As(err, &svcErr):
			fail(c, http.StatusBadGateway, ErrCodeExtractionFailed, svcErr.Error())
		case errors.As(err, &parseErr):
			fail(c, http.StatusBadGateway, ErrCodeExtractionParseFailed, parseErr.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, result)
}
