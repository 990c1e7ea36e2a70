package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shopscout-ai/shopscout/internal/observability"
	"github.com/shopscout-ai/shopscout/internal/orchestrator"
	"github.com/shopscout-ai/shopscout/internal/storage"
)

// SearchHandler handles search requests.
type SearchHandler struct {
	logger   *observability.Logger
	service  SearchService
	searches SearchReader
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(logger *observability.Logger, service SearchService, searches SearchReader) *SearchHandler {
	return &SearchHandler{
		logger:   logger,
		service:  service,
		searches: searches,
	}
}

// SearchRequestDTO represents the API request for a search.
type SearchRequestDTO struct {
	UserID   string  `json:"userId"`
	Query    string  `json:"query"`
	MinPrice float64 `json:"minPrice,omitempty"`
	MaxPrice float64 `json:"maxPrice,omitempty"`
	Category string  `json:"category,omitempty"`
	UseAI    bool    `json:"useAI,omitempty"`
}

func (dto SearchRequestDTO) toRequest() orchestrator.Request {
	userID := dto.UserID
	if userID == "" {
		userID = "anonymous"
	}
	return orchestrator.Request{
		UserID:   userID,
		Query:    dto.Query,
		MinPrice: dto.MinPrice,
		MaxPrice: dto.MaxPrice,
		Category: dto.Category,
		UseAI:    dto.UseAI,
	}
}

// Create handles POST /search.
func (h *SearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto SearchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if dto.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required", "")
		return
	}

	result, err := h.service.Perform(r.Context(), dto.toRequest(), nil)
	if err != nil {
		h.logger.Error().Err(err).Str("query", dto.Query).Msg("Search failed")
		writeError(w, http.StatusBadGateway, "search failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Stream handles GET /search/stream: the same flow as Create, but delivered
// as server-sent events so the client can render progress.
func (h *SearchHandler) Stream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dto := SearchRequestDTO{
		UserID:   query.Get("userId"),
		Query:    query.Get("q"),
		Category: query.Get("category"),
		UseAI:    query.Get("useAI") == "true",
	}
	if v := query.Get("minPrice"); v != "" {
		dto.MinPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v := query.Get("maxPrice"); v != "" {
		dto.MaxPrice, _ = strconv.ParseFloat(v, 64)
	}

	if dto.Query == "" {
		writeError(w, http.StatusBadRequest, "q is required", "")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	observer := func(event orchestrator.StepEvent) {
		writeSSE(w, "step", event)
		flusher.Flush()
	}

	result, err := h.service.Perform(r.Context(), dto.toRequest(), observer)
	if err != nil {
		h.logger.Error().Err(err).Str("query", dto.Query).Msg("Streamed search failed")
		writeSSE(w, "error", map[string]string{"error": err.Error()})
		flusher.Flush()
		return
	}

	writeSSE(w, "result", result)
	flusher.Flush()
}

// Get handles GET /searches/{searchId}.
func (h *SearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	searchID := chi.URLParam(r, "searchId")

	result, err := h.searches.GetByID(r.Context(), searchID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "search not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("search_id", searchID).Msg("Search lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeSSE(w http.ResponseWriter, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
