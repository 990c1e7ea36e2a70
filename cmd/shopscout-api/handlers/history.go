package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopscout-ai/shopscout/internal/observability"
)

// HistoryHandler handles search history requests.
type HistoryHandler struct {
	logger   *observability.Logger
	searches SearchReader
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(logger *observability.Logger, searches SearchReader) *HistoryHandler {
	return &HistoryHandler{
		logger:   logger,
		searches: searches,
	}
}

// List handles GET /history?userId=...&limit=...
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	history, err := h.searches.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("History lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":   userID,
		"searches": history,
	})
}
