package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

// analysisSchema constrains the recommender response to the analysis shape
// produced by the local rule engine.
var analysisSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"productos_analisis": {
			"type": "ARRAY",
			"items": {
				"type": "OBJECT",
				"properties": {
					"product_id": {"type": "STRING"},
					"pros": {"type": "ARRAY", "items": {"type": "STRING"}},
					"contras": {"type": "ARRAY", "items": {"type": "STRING"}},
					"isRecommended": {"type": "BOOLEAN"}
				},
				"required": ["product_id", "pros", "contras", "isRecommended"]
			}
		},
		"recomendacion_final": {"type": "STRING"}
	},
	"required": ["productos_analisis", "recomendacion_final"]
}`)

// Recommender asks the LLM for a refined analysis of the raw listings,
// returning the same shape as the local rule engine so the fusion and
// persistence steps are shared.
type Recommender struct {
	client *Client
	logger *observability.Logger
	model  string
}

// NewRecommender creates an LLM recommender.
func NewRecommender(client *Client, logger *observability.Logger, model string) *Recommender {
	return &Recommender{
		client: client,
		logger: logger.WithComponent("llm-recommender"),
		model:  model,
	}
}

// Analyze requests a refined recommendation. Unlike the local engine this
// can fail; callers decide whether to surface the error or fall back to the
// local analysis.
func (r *Recommender) Analyze(ctx context.Context, query string, listings []catalog.Listing) (*catalog.Analysis, error) {
	if len(listings) == 0 {
		return nil, fmt.Errorf("no listings to analyze")
	}

	listingsJSON, err := json.Marshal(listings)
	if err != nil {
		return nil, fmt.Errorf("marshal listings: %w", err)
	}

	prompt := fmt.Sprintf(`Sos un asistente de compras experto. Un usuario busca: "%s".
Analiza los siguientes resultados de shopping y devolvé un análisis con los 6 mejores productos.
Para cada producto indicá pros y contras concretos (máximo 3 de cada uno) y marcá exactamente
uno con isRecommended=true: el mejor balance entre calidad, precio y confiabilidad.
En "recomendacion_final" escribí una sola oración explicando tu recomendación.

Productos:
%s`, query, listingsJSON)

	raw, err := r.client.GenerateJSON(ctx, r.model, prompt, analysisSchema)
	if err != nil {
		return nil, fmt.Errorf("llm analysis: %w", err)
	}

	var analysis catalog.Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("parse llm analysis: %w", err)
	}

	if len(analysis.ProductAnalyses) == 0 {
		return nil, fmt.Errorf("llm returned an empty analysis")
	}

	r.logger.Debug().Str("query", query).Int("products", len(analysis.ProductAnalyses)).Msg("LLM analysis completed")
	return &analysis, nil
}
