package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
)

// cleanSchema constrains the cleaner response to the structured listing
// array shape.
var cleanSchema = json.RawMessage(`{
	"type": "ARRAY",
	"items": {
		"type": "OBJECT",
		"properties": {
			"product_id": {"type": "STRING"},
			"clean_title": {"type": "STRING"},
			"brand": {"type": "STRING"},
			"model": {"type": "STRING"},
			"specs": {"type": "ARRAY", "items": {"type": "STRING"}}
		},
		"required": ["product_id", "clean_title", "brand", "model", "specs"]
	}
}`)

// Cleaner structures messy listing titles into clean entities using the LLM.
type Cleaner struct {
	client *Client
	logger *observability.Logger
	model  string
}

// NewCleaner creates a listing cleaner. A nil client produces a cleaner
// that always falls back to passthrough output.
func NewCleaner(client *Client, logger *observability.Logger, model string) *Cleaner {
	return &Cleaner{
		client: client,
		logger: logger.WithComponent("llm-cleaner"),
		model:  model,
	}
}

// Structure extracts clean titles, brands, models and spec keywords from the
// raw listings. It never fails: on any error it returns a passthrough
// fallback so the analysis flow keeps going with the raw data.
func (c *Cleaner) Structure(ctx context.Context, listings []catalog.Listing) []catalog.StructuredListing {
	if len(listings) == 0 {
		return nil
	}

	if c.client == nil {
		return fallbackStructured(listings)
	}

	structured, err := c.structure(ctx, listings)
	if err != nil {
		c.logger.Warn().Err(err).Int("listings", len(listings)).Msg("LLM cleaning failed, using passthrough fallback")
		return fallbackStructured(listings)
	}

	c.logger.Debug().Int("listings", len(listings)).Int("structured", len(structured)).Msg("Listings structured")
	return structured
}

func (c *Cleaner) structure(ctx context.Context, listings []catalog.Listing) ([]catalog.StructuredListing, error) {
	type simplified struct {
		ProductID string `json:"product_id"`
		Title     string `json:"title"`
	}
	input := make([]simplified, 0, len(listings))
	for _, l := range listings {
		input = append(input, simplified{ProductID: l.ProductID, Title: l.Title})
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal listings: %w", err)
	}

	prompt := fmt.Sprintf(`Tu tarea es actuar como un experto en extracción de entidades para e-commerce.
Analiza el siguiente array de títulos de productos de una búsqueda de shopping y extrae:
1. "product_id": el ID original, sin cambios.
2. "clean_title": el título limpio (ej: "Samsung Galaxy S24 Ultra 512GB").
3. "brand": la marca. Si no puedes identificarla, usa "Genérico".
4. "model": el modelo principal.
5. "specs": un array de strings con las especificaciones clave (ej: ["512gb", "12gb ram"]).
Si una especificación no es obvia, deja el array vacío. No inventes datos.

Resultados:
%s`, inputJSON)

	raw, err := c.client.GenerateJSON(ctx, c.model, prompt, cleanSchema)
	if err != nil {
		return nil, err
	}

	var structured []catalog.StructuredListing
	if err := json.Unmarshal(raw, &structured); err != nil {
		return nil, fmt.Errorf("parse structured listings: %w", err)
	}
	return structured, nil
}

// fallbackStructured mirrors the raw listings into the structured shape.
func fallbackStructured(listings []catalog.Listing) []catalog.StructuredListing {
	out := make([]catalog.StructuredListing, 0, len(listings))
	for _, l := range listings {
		brand := l.Brand
		if brand == "" {
			brand = "Genérico"
		}
		out = append(out, catalog.StructuredListing{
			ProductID:  l.ProductID,
			CleanTitle: l.Title,
			Brand:      brand,
			Model:      l.Title,
			Specs:      []string{},
		})
	}
	return out
}
