package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopscout-ai/shopscout/internal/cache"
	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

const searchFixture = `{
	"search_information": {"total_results": 240},
	"shopping_results": [
		{"product_id": "p1", "title": "Samsung Galaxy S24", "price": "$500.000", "rating": "4.8", "reviews": "1500", "source": "Tienda A"},
		{"product_id": "p2", "title": "Celular generico", "price": "$50.000"}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		ResultLimit: 20,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)
	return client, srv
}

func TestClient_Search(t *testing.T) {
	var gotQuery, gotKey, gotTBS string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("api_key")
		gotTBS = r.URL.Query().Get("tbs")
		w.Write([]byte(searchFixture))
	})

	resp, err := client.Search(context.Background(), Request{Query: "celular samsung"})
	require.NoError(t, err)

	assert.Equal(t, "celular samsung", gotQuery)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, ratingFilterTBS, gotTBS)
	assert.Equal(t, 240, resp.TotalResults)
	require.Len(t, resp.Listings, 2)
	assert.Equal(t, "p1", resp.Listings[0].ProductID)
	assert.Equal(t, "$500.000", resp.Listings[0].Price)
}

func TestClient_Search_PriceRangeParams(t *testing.T) {
	var gotMin, gotMax string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMin = r.URL.Query().Get("min_price")
		gotMax = r.URL.Query().Get("max_price")
		w.Write([]byte(`{"shopping_results": []}`))
	})

	_, err := client.Search(context.Background(), Request{Query: "tv", MinPrice: 1000, MaxPrice: 5000})
	require.NoError(t, err)

	assert.Equal(t, "1000", gotMin)
	assert.Equal(t, "5000", gotMax)
}

func TestClient_Search_TotalFallsBackToLen(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"shopping_results": [{"product_id": "a", "title": "x"}]}`))
	})

	resp, err := client.Search(context.Background(), Request{Query: "tv"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalResults)
}

func TestClient_Search_ProviderError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Google Shopping hasn't returned any results"}`))
	})

	_, err := client.Search(context.Background(), Request{Query: "tv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hasn't returned any results")
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.Search(context.Background(), Request{})
	assert.Error(t, err)
}

func TestClient_Search_HTTPStatusError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), Request{Query: "tv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_ProductDetails(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{
			"product_results": {
				"description": "Un gran celular",
				"media": ["https://img.example/1.jpg"],
				"specs": [{"name": "Pantalla", "value": "6.1 pulgadas"}],
				"stores": [{"name": "Tienda A", "price": "$500.000"}]
			}
		}`))
	})

	details, err := client.ProductDetails(context.Background(), srv.URL+"/details?product_id=p1")
	require.NoError(t, err)

	assert.Equal(t, "Un gran celular", details.Description)
	assert.Equal(t, "6.1 pulgadas", details.Specs["Pantalla"])
	require.Len(t, details.Stores, 1)
	assert.Equal(t, "Tienda A", details.Stores[0].Name)
}

// countingProvider records calls for cache tests.
type countingProvider struct {
	calls int
	resp  *Response
}

func (p *countingProvider) Search(ctx context.Context, req Request) (*Response, error) {
	p.calls++
	return p.resp, nil
}

func (p *countingProvider) ProductDetails(ctx context.Context, detailURL string) (*catalog.ProductDetails, error) {
	return &catalog.ProductDetails{}, nil
}

func TestCachedProvider_HitSkipsProvider(t *testing.T) {
	inner := &countingProvider{resp: &Response{
		Listings:     []catalog.Listing{{ProductID: "p1", Title: "Celular"}},
		TotalResults: 1,
	}}
	cached := NewCachedProvider(inner, cache.NewMemoryClient(100), observability.Nop(), time.Minute)

	ctx := context.Background()
	req := Request{Query: "celular", CountryCode: "ar"}

	first, err := cached.Search(ctx, req)
	require.NoError(t, err)
	second, err := cached.Search(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedProvider_DistinctRequestsMiss(t *testing.T) {
	inner := &countingProvider{resp: &Response{TotalResults: 0}}
	cached := NewCachedProvider(inner, cache.NewMemoryClient(100), observability.Nop(), time.Minute)

	ctx := context.Background()
	_, err := cached.Search(ctx, Request{Query: "celular"})
	require.NoError(t, err)
	_, err = cached.Search(ctx, Request{Query: "celular", MaxPrice: 100})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}
