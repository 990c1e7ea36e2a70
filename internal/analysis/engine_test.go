package analysis

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()

	store := NewProfileStore(map[string]*CategoryProfile{
		"celular": {
			Category: "celular",
			Brands:   map[string]int{"samsung": 15, "apple": 15},
			PositiveKeywords: map[string]int{
				"amoled": 10,
				"128gb":  10,
			},
			NegativeKeywords: map[string]int{
				"usado":           -15,
				"reacondicionado": -10,
			},
		},
	})

	e := NewEngine(observability.Nop(), store)
	// Pin the clock so recency scoring is deterministic.
	e.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestAnalyze_EmptyInput(t *testing.T) {
	e := testEngine(t)

	result := e.Analyze("celular", nil, nil, "")

	assert.Empty(t, result.ProductAnalyses)
	assert.Equal(t, NoResultsMessage, result.FinalRecommendation)
}

func TestAnalyze_ScenarioCelularSamsung(t *testing.T) {
	e := testEngine(t)

	listings := []catalog.Listing{
		{ProductID: "1", Title: "Samsung Galaxy S24 2024", Price: "$500.000", Rating: "4.8", Reviews: "1500", Brand: "Samsung"},
		{ProductID: "2", Title: "Celular generico usado", Price: "$50.000"},
	}

	result := e.Analyze("celular samsung", listings, nil, "")

	require.Len(t, result.ProductAnalyses, 2)

	best := result.ProductAnalyses[0]
	assert.Equal(t, "1", best.ProductID)
	assert.True(t, best.IsRecommended)
	assert.Contains(t, best.Pros, "Marca: Samsung")
	assert.Contains(t, best.Pros, "Modelo reciente")

	second := result.ProductAnalyses[1]
	assert.Equal(t, "2", second.ProductID)
	assert.False(t, second.IsRecommended)
	assert.Contains(t, second.Cons, "Sin valoración")
	assert.Contains(t, second.Cons, "Detalle a revisar: usado")

	assert.Contains(t, result.FinalRecommendation, "celular samsung")
	assert.Contains(t, result.FinalRecommendation, "Samsung Galaxy S24 2024")
}

func TestAnalyze_DiscountGeneratesOfferPro(t *testing.T) {
	e := testEngine(t)

	listings := []catalog.Listing{
		{ProductID: "1", Title: "Celular en oferta", Price: "$100.000", ExtractedPrice: "$150.000", Rating: "4.0", Reviews: "200"},
	}

	result := e.Analyze("celular", listings, nil, "celular")

	require.Len(t, result.ProductAnalyses, 1)
	var offer bool
	for _, pro := range result.ProductAnalyses[0].Pros {
		if strings.Contains(strings.ToLower(pro), "oferta") {
			offer = true
		}
	}
	assert.True(t, offer, "expected an offer pro for a 33%% discount, got %v", result.ProductAnalyses[0].Pros)
}

func TestAnalyze_CapsAtSixProducts(t *testing.T) {
	e := testEngine(t)

	var listings []catalog.Listing
	for i := 0; i < 9; i++ {
		listings = append(listings, catalog.Listing{
			ProductID: fmt.Sprintf("p%d", i),
			Title:     fmt.Sprintf("Celular modelo %d", i),
			Price:     "$100.000",
			Rating:    "4.0",
			Reviews:   "500",
		})
	}

	result := e.Analyze("celular", listings, nil, "")

	assert.Len(t, result.ProductAnalyses, 6)
}

func TestAnalyze_SingleWinnerAtIndexZero(t *testing.T) {
	e := testEngine(t)

	listings := []catalog.Listing{
		{ProductID: "a", Title: "Celular A", Price: "$90.000", Rating: "3.0", Reviews: "5"},
		{ProductID: "b", Title: "Celular B", Price: "$100.000", Rating: "4.9", Reviews: "2000"},
		{ProductID: "c", Title: "Celular C", Price: "$110.000"},
	}

	result := e.Analyze("celular", listings, nil, "")

	recommended := 0
	for i, p := range result.ProductAnalyses {
		if p.IsRecommended {
			recommended++
			assert.Zero(t, i, "recommended product must be first")
		}
	}
	assert.Equal(t, 1, recommended)
	assert.Equal(t, "b", result.ProductAnalyses[0].ProductID)
}

func TestAnalyze_TiesKeepInputOrder(t *testing.T) {
	e := testEngine(t)

	// Identical listings score identically; stable sort preserves order.
	listings := []catalog.Listing{
		{ProductID: "first", Title: "Celular gemelo", Price: "$100.000", Rating: "4.2", Reviews: "300"},
		{ProductID: "second", Title: "Celular gemelo", Price: "$100.000", Rating: "4.2", Reviews: "300"},
	}

	result := e.Analyze("celular", listings, nil, "")

	require.Len(t, result.ProductAnalyses, 2)
	assert.Equal(t, "first", result.ProductAnalyses[0].ProductID)
	assert.Equal(t, "second", result.ProductAnalyses[1].ProductID)
}

func TestAnalyze_Deterministic(t *testing.T) {
	e := testEngine(t)

	listings := []catalog.Listing{
		{ProductID: "1", Title: "Samsung Galaxy A54 128GB", Price: "$300.000", Rating: "4.4", Reviews: "800", Brand: "Samsung"},
		{ProductID: "2", Title: "Celular economico", Price: "$80.000", Rating: "3.9", Reviews: "50"},
		{ProductID: "3", Title: "iPhone 13 reacondicionado", Price: "$450.000", Rating: "4.6", Reviews: "120", Brand: "Apple"},
	}

	first := e.Analyze("celular 128gb", listings, nil, "")
	second := e.Analyze("celular 128gb", listings, nil, "")

	assert.Equal(t, first, second)
}

func TestAnalyze_StructuredSpecsFeedKeywords(t *testing.T) {
	e := testEngine(t)

	listings := []catalog.Listing{
		{ProductID: "1", Title: "Celular X", Price: "$100.000", Rating: "4.0", Reviews: "200"},
		{ProductID: "2", Title: "Celular Y", Price: "$100.000", Rating: "4.0", Reviews: "200"},
	}
	structured := []catalog.StructuredListing{
		{ProductID: "2", CleanTitle: "Celular Y", Brand: "Genérico", Specs: []string{"amoled", "128gb"}},
	}

	result := e.Analyze("celular", listings, structured, "")

	require.Len(t, result.ProductAnalyses, 2)
	// The keyword bonuses from extracted specs push product 2 ahead.
	assert.Equal(t, "2", result.ProductAnalyses[0].ProductID)
	assert.Contains(t, result.ProductAnalyses[0].Pros, "Características destacadas")
}

func TestAnalyze_ProsConsCappedAndDeduped(t *testing.T) {
	e := testEngine(t)

	listings := []catalog.Listing{
		{ProductID: "1", Title: "Samsung Galaxy S24 Ultra 2024 AMOLED 128GB", Price: "$100.000", ExtractedPrice: "$160.000", Rating: "4.9", Reviews: "5000", Brand: "Samsung"},
		{ProductID: "2", Title: "Celular sin datos"},
	}

	result := e.Analyze("celular samsung galaxy", listings, nil, "")

	for _, p := range result.ProductAnalyses {
		assert.LessOrEqual(t, len(p.Pros), 3)
		assert.LessOrEqual(t, len(p.Cons), 3)
		assert.Equal(t, dedupeCap(p.Pros, 3), p.Pros)
	}
}

func TestAnalyze_MissingProfileNeverFails(t *testing.T) {
	e := NewEngine(observability.Nop(), NewProfileStore(nil))

	listings := []catalog.Listing{
		{ProductID: "1", Title: "Algo sin categoria", Price: "no disponible"},
	}

	result := e.Analyze("algo rarisimo", listings, nil, "categoria_inexistente")

	require.Len(t, result.ProductAnalyses, 1)
	assert.True(t, result.ProductAnalyses[0].IsRecommended)
	assert.NotEmpty(t, result.FinalRecommendation)
}

func TestAnalyze_FallbackReasonWithoutPros(t *testing.T) {
	e := testEngine(t)

	listings := []catalog.Listing{
		{ProductID: "1", Title: "Celular basico", Price: ""},
	}

	result := e.Analyze("celular", listings, nil, "")

	assert.Contains(t, result.FinalRecommendation, "su puntaje general")
	// The leading con is surfaced as a caveat, joined without punctuation.
	assert.Contains(t, result.FinalRecommendation, "Tené en cuenta que ")
	assert.NotContains(t, result.FinalRecommendation, "Tené en cuenta que:")
}

func TestDedupeCap(t *testing.T) {
	in := []string{"a", "b", "a", "c", "d"}
	assert.Equal(t, []string{"a", "b", "c"}, dedupeCap(in, 3))
	assert.Empty(t, dedupeCap(nil, 3))
}
