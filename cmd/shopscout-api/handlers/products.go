package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopscout-ai/shopscout/internal/observability"
	"github.com/shopscout-ai/shopscout/internal/storage"
)

// ProductsHandler handles product detail requests.
type ProductsHandler struct {
	logger  *observability.Logger
	service SearchService
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(logger *observability.Logger, service SearchService) *ProductsHandler {
	return &ProductsHandler{
		logger:  logger,
		service: service,
	}
}

// Get handles GET /searches/{searchId}/products/{productId}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	searchID := chi.URLParam(r, "searchId")
	productID := chi.URLParam(r, "productId")

	product, err := h.service.ProductDetails(r.Context(), searchID, productID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).
			Str("search_id", searchID).
			Str("product_id", productID).
			Msg("Product lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, product)
}
