// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shopscout-ai/shopscout/cmd/shopscout-api/handlers"
	"github.com/shopscout-ai/shopscout/cmd/shopscout-api/middleware"
	"github.com/shopscout-ai/shopscout/internal/config"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"shopscout"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ready"}`))
	})

	searchHandler := handlers.NewSearchHandler(logger, deps.Orchestrator, deps.Searches)
	productsHandler := handlers.NewProductsHandler(logger, deps.Orchestrator)
	historyHandler := handlers.NewHistoryHandler(logger, deps.Searches)

	var conversation handlers.Conversation
	if deps.Conversation != nil {
		conversation = deps.Conversation
	}
	whatsappHandler := handlers.NewWhatsAppHandler(logger, conversation, cfg.WhatsApp.VerifyToken)

	// The webhook must stay reachable by Meta without a bearer token.
	r.Route("/whatsapp", func(r chi.Router) {
		r.Get("/webhook", whatsappHandler.Verify)
		r.Post("/webhook", whatsappHandler.Receive)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Enabled: cfg.Auth.Enabled,
			Tokens:  cfg.Auth.Tokens,
		}))

		r.Post("/search", searchHandler.Create)
		r.Get("/search/stream", searchHandler.Stream)
		r.Get("/searches/{searchId}", searchHandler.Get)
		r.Get("/searches/{searchId}/products/{productId}", productsHandler.Get)
		r.Get("/history", historyHandler.List)
	})

	return r
}
