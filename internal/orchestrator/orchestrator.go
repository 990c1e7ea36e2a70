// Package orchestrator runs the end-to-end search flow: fetch listings,
// structure them, analyze, fuse and persist.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopscout-ai/shopscout/internal/analysis"
	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
	"github.com/shopscout-ai/shopscout/internal/search"
	"github.com/shopscout-ai/shopscout/internal/storage"
)

// Flow step identifiers emitted while a search progresses.
const (
	StepSearching = "searching"
	StepCleaning  = "cleaning"
	StepAnalyzing = "analyzing"
	StepSaving    = "saving"
	StepDone      = "done"
)

// StepEvent reports progress of one search flow step.
type StepEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// StepObserver receives step events during a search. May be nil.
type StepObserver func(StepEvent)

// Request describes one orchestrated search.
type Request struct {
	UserID   string  `json:"userId"`
	Query    string  `json:"query"`
	MinPrice float64 `json:"minPrice,omitempty"`
	MaxPrice float64 `json:"maxPrice,omitempty"`
	Category string  `json:"category,omitempty"`
	UseAI    bool    `json:"useAI,omitempty"`
}

// Cleaner structures raw listings.
type Cleaner interface {
	Structure(ctx context.Context, listings []catalog.Listing) []catalog.StructuredListing
}

// Recommender produces an LLM-refined analysis.
type Recommender interface {
	Analyze(ctx context.Context, query string, listings []catalog.Listing) (*catalog.Analysis, error)
}

// SearchStore persists completed search results.
type SearchStore interface {
	Save(ctx context.Context, result *catalog.SearchResult) error
}

// ProductStore reads and enriches stored products.
type ProductStore interface {
	Get(ctx context.Context, searchID, productID string) (*storage.StoredProduct, error)
	SaveDetails(ctx context.Context, searchID, productID string, details *catalog.ProductDetails) error
}

// Options configures a search orchestrator.
type Options struct {
	Provider    search.Provider
	Cleaner     Cleaner
	Engine      *analysis.Engine
	Recommender Recommender // optional
	Searches    SearchStore
	Products    ProductStore
	Logger      *observability.Logger

	CountryCode  string
	LanguageCode string
	Currency     string
}

// Orchestrator coordinates the full search and enrichment flows.
type Orchestrator struct {
	provider    search.Provider
	cleaner     Cleaner
	engine      *analysis.Engine
	recommender Recommender
	searches    SearchStore
	products    ProductStore
	logger      *observability.Logger

	countryCode  string
	languageCode string
	currency     string

	now func() time.Time
}

// New creates a search orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		provider:     opts.Provider,
		cleaner:      opts.Cleaner,
		engine:       opts.Engine,
		recommender:  opts.Recommender,
		searches:     opts.Searches,
		products:     opts.Products,
		logger:       opts.Logger.WithComponent("orchestrator"),
		countryCode:  opts.CountryCode,
		languageCode: opts.LanguageCode,
		currency:     opts.Currency,
		now:          time.Now,
	}
}

// Perform runs the full search flow and returns the persisted result. The
// observer, when non-nil, receives a step event as each stage starts.
func (o *Orchestrator) Perform(ctx context.Context, req Request, observe StepObserver) (*catalog.SearchResult, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if observe == nil {
		observe = func(StepEvent) {}
	}

	logger := o.logger.WithUser(req.UserID)
	start := o.now()

	observe(StepEvent{Step: StepSearching, Message: "Buscando productos..."})
	resp, err := o.provider.Search(ctx, search.Request{
		Query:        req.Query,
		CountryCode:  o.countryCode,
		LanguageCode: o.languageCode,
		Currency:     o.currency,
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	observe(StepEvent{Step: StepCleaning, Message: "Limpiando resultados..."})
	structured := o.cleaner.Structure(ctx, resp.Listings)

	category := req.Category
	if category == "" {
		category = analysis.DetectCategory(req.Query)
	}

	observe(StepEvent{Step: StepAnalyzing, Message: "Analizando productos..."})
	result := o.analyze(ctx, req, resp.Listings, structured, category)

	out := &catalog.SearchResult{
		ID:                  uuid.NewString(),
		UserID:              req.UserID,
		Query:               req.Query,
		FinalRecommendation: result.FinalRecommendation,
		Products:            analysis.FuseAnalysis(o.logger, resp.Listings, result),
		TotalResults:        resp.TotalResults,
		CreatedAt:           o.now(),
	}

	observe(StepEvent{Step: StepSaving, Message: "Guardando resultados..."})
	if err := o.searches.Save(ctx, out); err != nil {
		// The user already waited for the analysis; a history write
		// failure should not discard it.
		logger.Error().Err(err).Str("search_id", out.ID).Msg("Failed to persist search result")
	}

	observe(StepEvent{Step: StepDone, Message: "Listo"})
	logger.Info().
		Str("search_id", out.ID).
		Str("query", req.Query).
		Str("category", category).
		Int("products", len(out.Products)).
		Dur("duration", o.now().Sub(start)).
		Msg("Search flow completed")
	return out, nil
}

// analyze runs the LLM recommender when requested and available, falling
// back to the local rule engine on any failure.
func (o *Orchestrator) analyze(ctx context.Context, req Request, listings []catalog.Listing, structured []catalog.StructuredListing, category string) catalog.Analysis {
	if req.UseAI && o.recommender != nil && len(listings) > 0 {
		refined, err := o.recommender.Analyze(ctx, req.Query, listings)
		if err == nil {
			return *refined
		}
		o.logger.Warn().Err(err).Str("query", req.Query).Msg("LLM analysis failed, falling back to rule engine")
	}
	return o.engine.Analyze(req.Query, listings, structured, category)
}

// ProductDetails returns a stored product enriched with provider details,
// fetching and persisting them the first time they are requested. A failed
// fetch degrades to the stored product without details.
func (o *Orchestrator) ProductDetails(ctx context.Context, searchID, productID string) (*storage.StoredProduct, error) {
	product, err := o.products.Get(ctx, searchID, productID)
	if err != nil {
		return nil, err
	}

	if product.Details != nil || product.DetailAPILink == "" {
		return product, nil
	}

	details, err := o.provider.ProductDetails(ctx, product.DetailAPILink)
	if err != nil {
		o.logger.Warn().Err(err).
			Str("search_id", searchID).
			Str("product_id", productID).
			Msg("Product detail fetch failed, returning stored data")
		return product, nil
	}

	if err := o.products.SaveDetails(ctx, searchID, productID, details); err != nil {
		o.logger.Error().Err(err).
			Str("search_id", searchID).
			Str("product_id", productID).
			Msg("Failed to persist product details")
	}

	product.Details = details
	return product, nil
}
