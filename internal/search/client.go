// Package search provides the shopping search provider client and a caching
// wrapper around it.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopscout-ai/shopscout/internal/catalog"
)

// ratingFilterTBS restricts provider results to well-rated offers.
const ratingFilterTBS = "mr:1,rt:4"

// Request describes one shopping search.
type Request struct {
	Query        string
	CountryCode  string
	LanguageCode string
	Currency     string
	MinPrice     float64 // 0 means unset
	MaxPrice     float64 // 0 means unset
}

// Response holds the provider results for one search.
type Response struct {
	Listings     []catalog.Listing `json:"products"`
	TotalResults int               `json:"totalResults"`
}

// Provider supplies shopping listings and per-product details.
type Provider interface {
	Search(ctx context.Context, req Request) (*Response, error)
	ProductDetails(ctx context.Context, detailURL string) (*catalog.ProductDetails, error)
}

// Client talks to a SerpApi-compatible shopping search endpoint.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	engine      string
	resultLimit int
}

// Config holds search client configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	Engine      string
	ResultLimit int
	Timeout     time.Duration
}

// NewClient creates a new search provider client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://serpapi.com"
	}

	if cfg.Engine == "" {
		cfg.Engine = "google_shopping"
	}

	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = 20
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		engine:      cfg.Engine,
		resultLimit: cfg.ResultLimit,
	}, nil
}

// searchEnvelope is the provider wire format.
type searchEnvelope struct {
	ShoppingResults   []catalog.Listing `json:"shopping_results"`
	SearchInformation struct {
		TotalResults int `json:"total_results"`
	} `json:"search_information"`
	Error string `json:"error"`
}

// Search fetches shopping listings for the request.
func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", req.Query)
	params.Set("gl", orDefault(req.CountryCode, "ar"))
	params.Set("hl", orDefault(req.LanguageCode, "es"))
	params.Set("currency", orDefault(req.Currency, "ARS"))
	params.Set("num", strconv.Itoa(c.resultLimit))
	params.Set("tbs", ratingFilterTBS)
	params.Set("api_key", c.apiKey)
	if req.MinPrice > 0 {
		params.Set("min_price", strconv.FormatFloat(req.MinPrice, 'f', -1, 64))
	}
	if req.MaxPrice > 0 {
		params.Set("max_price", strconv.FormatFloat(req.MaxPrice, 'f', -1, 64))
	}

	var envelope searchEnvelope
	if err := c.getJSON(ctx, c.baseURL+"/search.json?"+params.Encode(), &envelope); err != nil {
		return nil, err
	}

	if envelope.Error != "" {
		return nil, fmt.Errorf("search provider error: %s (query: %s)", envelope.Error, req.Query)
	}

	total := envelope.SearchInformation.TotalResults
	if total == 0 {
		total = len(envelope.ShoppingResults)
	}

	return &Response{
		Listings:     envelope.ShoppingResults,
		TotalResults: total,
	}, nil
}

// detailEnvelope is the provider wire format for product details.
type detailEnvelope struct {
	ProductResults struct {
		Description string   `json:"description"`
		Media       []string `json:"media"`
		Specs       []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"specs"`
		Stores []catalog.StoreOffer `json:"stores"`
	} `json:"product_results"`
	Error string `json:"error"`
}

// ProductDetails fetches enrichment for a single product using the detail
// link the provider attached to its listing.
func (c *Client) ProductDetails(ctx context.Context, detailURL string) (*catalog.ProductDetails, error) {
	if detailURL == "" {
		return nil, fmt.Errorf("detail URL cannot be empty")
	}

	u, err := url.Parse(detailURL)
	if err != nil {
		return nil, fmt.Errorf("parse detail URL: %w", err)
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	var envelope detailEnvelope
	if err := c.getJSON(ctx, u.String(), &envelope); err != nil {
		return nil, err
	}

	if envelope.Error != "" {
		return nil, fmt.Errorf("search provider error: %s", envelope.Error)
	}

	details := &catalog.ProductDetails{
		Description: envelope.ProductResults.Description,
		Media:       envelope.ProductResults.Media,
		Stores:      envelope.ProductResults.Stores,
	}
	if len(envelope.ProductResults.Specs) > 0 {
		details.Specs = make(map[string]string, len(envelope.ProductResults.Specs))
		for _, spec := range envelope.ProductResults.Specs {
			details.Specs[spec.Name] = spec.Value
		}
	}
	return details, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func orDefault(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}
