package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

func TestFuseAnalysis(t *testing.T) {
	listings := []catalog.Listing{
		{ProductID: "1", Title: "Producto uno", Price: "$100"},
		{ProductID: "2", Title: "Producto dos", Price: "$200"},
	}
	analysis := catalog.Analysis{
		ProductAnalyses: []catalog.ProductAnalysis{
			{ProductID: "2", Pros: []string{"Precio competitivo"}, Cons: []string{"Pocas reseñas"}, IsRecommended: true},
			{ProductID: "1", Pros: []string{"Valoración (4.2⭐)"}},
		},
	}

	fused := FuseAnalysis(observability.Nop(), listings, analysis)

	require.Len(t, fused, 2)
	// Fusion preserves analysis (ranking) order, not listing order.
	assert.Equal(t, "2", fused[0].ProductID)
	assert.Equal(t, "Producto dos", fused[0].Title)
	assert.True(t, fused[0].IsRecommended)
	assert.Equal(t, []string{"Precio competitivo"}, fused[0].Pros)
	assert.Equal(t, []string{"Pocas reseñas"}, fused[0].Cons)

	assert.Equal(t, "1", fused[1].ProductID)
	assert.False(t, fused[1].IsRecommended)
}

func TestFuseAnalysis_SkipsUnknownProducts(t *testing.T) {
	listings := []catalog.Listing{
		{ProductID: "1", Title: "Producto uno"},
	}
	analysis := catalog.Analysis{
		ProductAnalyses: []catalog.ProductAnalysis{
			{ProductID: "ghost", IsRecommended: true},
			{ProductID: "1"},
		},
	}

	fused := FuseAnalysis(observability.Nop(), listings, analysis)

	require.Len(t, fused, 1)
	assert.Equal(t, "1", fused[0].ProductID)
}

func TestFuseAnalysis_Empty(t *testing.T) {
	fused := FuseAnalysis(observability.Nop(), nil, catalog.Analysis{})
	assert.Empty(t, fused)
}
