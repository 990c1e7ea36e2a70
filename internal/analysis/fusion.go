package analysis

import (
	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

// FuseAnalysis joins the ranked analysis back onto the original listings by
// product ID, in analysis order. Analysis entries whose product is no longer
// present in the listing set are skipped with a warning.
func FuseAnalysis(logger *observability.Logger, listings []catalog.Listing, analysis catalog.Analysis) []catalog.RecommendedListing {
	byID := make(map[string]catalog.Listing, len(listings))
	for _, l := range listings {
		if l.ProductID != "" {
			byID[l.ProductID] = l
		}
	}

	fused := make([]catalog.RecommendedListing, 0, len(analysis.ProductAnalyses))
	for _, item := range analysis.ProductAnalyses {
		original, ok := byID[item.ProductID]
		if !ok {
			logger.Warn().Str("product_id", item.ProductID).Msg("Analyzed product missing from listing set, skipping")
			continue
		}

		fused = append(fused, catalog.RecommendedListing{
			Listing:       original,
			Pros:          item.Pros,
			Cons:          item.Cons,
			IsRecommended: item.IsRecommended,
		})
	}
	return fused
}
