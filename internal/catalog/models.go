// Package catalog defines the domain types shared across the shopping
// assistant: raw listings from the search provider, structured listings from
// the LLM cleaner, and the analysis shapes produced by the rule engine.
package catalog

import "time"

// Listing is one raw product search result as delivered by the search
// provider. Fields arrive messy: localized price strings, numeric strings
// for rating/reviews, free-text (often wrong or absent) brand. Immutable
// once received.
type Listing struct {
	ProductID     string `json:"product_id"`
	Title         string `json:"title"`
	Price         string `json:"price"`
	ExtractedPrice string `json:"extracted_price,omitempty"` // pre-discount price when present
	Rating        string `json:"rating,omitempty"`
	Reviews       string `json:"reviews,omitempty"`
	Brand         string `json:"brand,omitempty"`
	Source        string `json:"source,omitempty"`
	Link          string `json:"link,omitempty"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	DetailAPILink string `json:"serpapi_immersive_product_api,omitempty"`
}

// StructuredListing is the cleaned variant of a Listing produced by the LLM
// cleaner: normalized title, identified brand/model and extracted spec
// keywords. Falls back to a passthrough of the raw listing when cleaning is
// unavailable.
type StructuredListing struct {
	ProductID  string   `json:"product_id"`
	CleanTitle string   `json:"clean_title"`
	Brand      string   `json:"brand"`
	Model      string   `json:"model"`
	Specs      []string `json:"specs"`
}

// ProductAnalysis is the per-listing output of an analysis run.
type ProductAnalysis struct {
	ProductID     string   `json:"product_id"`
	Pros          []string `json:"pros"`
	Cons          []string `json:"contras"`
	IsRecommended bool     `json:"isRecommended"`
}

// Analysis is the ranked output of the rule engine (or the LLM recommender,
// which emits the same shape): at most six analyzed products ordered by
// score, plus one natural-language recommendation sentence. At most one
// entry is recommended and it is always the first.
type Analysis struct {
	ProductAnalyses     []ProductAnalysis `json:"productos_analisis"`
	FinalRecommendation string            `json:"recomendacion_final"`
}

// RecommendedListing is a raw listing with the analysis joined back on.
type RecommendedListing struct {
	Listing
	Pros          []string `json:"pros"`
	Cons          []string `json:"contras"`
	IsRecommended bool     `json:"isRecommended"`
}

// SearchResult is the fused, persisted outcome of one search flow.
type SearchResult struct {
	ID                  string               `json:"id"`
	UserID              string               `json:"userId"`
	Query               string               `json:"query"`
	FinalRecommendation string               `json:"recomendacion_final"`
	Products            []RecommendedListing `json:"productos"`
	TotalResults        int                  `json:"total_results"`
	CreatedAt           time.Time            `json:"createdAt"`
}

// ProductDetails holds provider-side enrichment fetched on demand for a
// single stored product.
type ProductDetails struct {
	Description string            `json:"description,omitempty"`
	Media       []string          `json:"media,omitempty"`
	Specs       map[string]string `json:"specs,omitempty"`
	Stores      []StoreOffer      `json:"stores,omitempty"`
}

// StoreOffer is one merchant offer inside product details.
type StoreOffer struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Link     string `json:"link,omitempty"`
	Shipping string `json:"shipping,omitempty"`
}
