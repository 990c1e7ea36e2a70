// Package handlers provides HTTP handlers for the ShopScout API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/orchestrator"
	"github.com/shopscout-ai/shopscout/internal/storage"
)

// SearchService runs the search and enrichment flows.
type SearchService interface {
	Perform(ctx context.Context, req orchestrator.Request, observe orchestrator.StepObserver) (*catalog.SearchResult, error)
	ProductDetails(ctx context.Context, searchID, productID string) (*storage.StoredProduct, error)
}

// SearchReader reads persisted search results.
type SearchReader interface {
	GetByID(ctx context.Context, id string) (*catalog.SearchResult, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]catalog.SearchResult, error)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
