package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopscout-ai/shopscout/internal/analysis"
	"github.com/shopscout-ai/shopscout/internal/catalog"
	"github.com/shopscout-ai/shopscout/internal/observability"
	"github.com/shopscout-ai/shopscout/internal/orchestrator"
	"github.com/shopscout-ai/shopscout/internal/session"
	"github.com/shopscout-ai/shopscout/internal/storage"
)

// Interactive option IDs used across the conversation flow.
const (
	optionBudgetSkip = "budget_skip"
	optionAIYes      = "ai_yes"
	optionAINo       = "ai_no"
	optionNewSearch  = "new_search"
	categoryPrefix   = "cat_"
	categoryAuto     = "cat_auto"
	productPrefix    = "prod_"
)

const greeting = "¡Hola! Soy tu asistente de compras 🛍️. Decime qué producto estás buscando."

// SearchService runs searches and fetches product details.
type SearchService interface {
	Perform(ctx context.Context, req orchestrator.Request, observe orchestrator.StepObserver) (*catalog.SearchResult, error)
	ProductDetails(ctx context.Context, searchID, productID string) (*storage.StoredProduct, error)
}

// Conversation drives the guided WhatsApp shopping flow: query, budget,
// category, analysis mode, results, product detail drill-down.
type Conversation struct {
	sessions *session.Store
	sender   Sender
	service  SearchService
	profiles *analysis.ProfileStore
	logger   *observability.Logger
}

// NewConversation creates the conversation handler.
func NewConversation(sessions *session.Store, sender Sender, service SearchService, profiles *analysis.ProfileStore, logger *observability.Logger) *Conversation {
	return &Conversation{
		sessions: sessions,
		sender:   sender,
		service:  service,
		profiles: profiles,
		logger:   logger.WithComponent("whatsapp"),
	}
}

// Handle processes one incoming user message and advances the conversation.
func (c *Conversation) Handle(ctx context.Context, msg IncomingMessage) error {
	text := strings.TrimSpace(msg.Text)
	lower := strings.ToLower(text)

	if lower == "cancelar" || lower == "reiniciar" {
		c.sessions.Reset(msg.From)
		return c.sender.SendText(ctx, msg.From, greeting)
	}

	sess := c.sessions.Get(msg.From)

	switch sess.State {
	case session.StateAwaitingQuery:
		return c.handleQuery(ctx, sess, text)
	case session.StateAwaitingBudget:
		return c.handleBudget(ctx, sess, text)
	case session.StateAwaitingCategory:
		return c.handleCategory(ctx, sess, text)
	case session.StateAwaitingAIConfirmation:
		return c.handleAIConfirmation(ctx, sess, text)
	case session.StateAwaitingProductSelection:
		return c.handleProductSelection(ctx, sess, text)
	default:
		c.sessions.Reset(sess.Phone)
		return c.sender.SendText(ctx, sess.Phone, greeting)
	}
}

func (c *Conversation) handleQuery(ctx context.Context, sess *session.Session, text string) error {
	if text == "" || len(text) < 3 {
		return c.sender.SendText(ctx, sess.Phone, greeting)
	}

	sess.Query = text
	sess.State = session.StateAwaitingBudget
	c.sessions.Put(sess)

	return c.sender.SendButtons(ctx, sess.Phone,
		"¿Hasta cuánto querés gastar? Escribí un monto (ej: 500.000) o tocá la opción.",
		[]Button{{ID: optionBudgetSkip, Title: "Sin límite"}})
}

func (c *Conversation) handleBudget(ctx context.Context, sess *session.Session, text string) error {
	if text != optionBudgetSkip {
		price := analysis.ParsePrice(text)
		if price <= 0 {
			return c.sender.SendText(ctx, sess.Phone,
				"No entendí el monto. Escribí un número (ej: 500.000) o tocá \"Sin límite\".")
		}
		sess.MaxPrice = price
	}

	sess.State = session.StateAwaitingCategory
	c.sessions.Put(sess)

	rows := []ListRow{{ID: categoryAuto, Title: "Detectar automática", Description: "Dejá que lo resuelva yo"}}
	for _, category := range c.profiles.Categories() {
		if category == analysis.DefaultCategory {
			continue
		}
		rows = append(rows, ListRow{ID: categoryPrefix + category, Title: strings.ToUpper(category[:1]) + category[1:]})
	}

	return c.sender.SendList(ctx, sess.Phone,
		"¿Qué tipo de producto buscás?", "Elegir categoría", rows)
}

func (c *Conversation) handleCategory(ctx context.Context, sess *session.Session, text string) error {
	if text != categoryAuto && strings.HasPrefix(text, categoryPrefix) {
		sess.Category = strings.TrimPrefix(text, categoryPrefix)
	}

	sess.State = session.StateAwaitingAIConfirmation
	c.sessions.Put(sess)

	return c.sender.SendButtons(ctx, sess.Phone,
		"¿Querés un análisis más detallado con IA? Tarda un poco más.",
		[]Button{
			{ID: optionAIYes, Title: "Sí, con IA"},
			{ID: optionAINo, Title: "Análisis rápido"},
		})
}

func (c *Conversation) handleAIConfirmation(ctx context.Context, sess *session.Session, text string) error {
	lower := strings.ToLower(text)
	sess.UseAI = text == optionAIYes || lower == "si" || lower == "sí"

	if err := c.sender.SendText(ctx, sess.Phone, "🔎 Buscando los mejores precios, dame unos segundos..."); err != nil {
		return err
	}

	result, err := c.service.Perform(ctx, orchestrator.Request{
		UserID:   sess.Phone,
		Query:    sess.Query,
		MaxPrice: sess.MaxPrice,
		Category: sess.Category,
		UseAI:    sess.UseAI,
	}, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("query", sess.Query).Msg("WhatsApp search failed")
		c.sessions.Reset(sess.Phone)
		return c.sender.SendText(ctx, sess.Phone,
			"Uy, algo falló buscando productos 😔. Probá de nuevo en un rato.")
	}

	if len(result.Products) == 0 {
		c.sessions.Reset(sess.Phone)
		return c.sender.SendText(ctx, sess.Phone, result.FinalRecommendation)
	}

	sess.LastResult = result
	sess.State = session.StateAwaitingProductSelection
	c.sessions.Put(sess)

	if err := c.sender.SendText(ctx, sess.Phone, "💡 "+result.FinalRecommendation); err != nil {
		return err
	}

	rows := make([]ListRow, 0, len(result.Products)+1)
	for _, p := range result.Products {
		title := p.Title
		if p.IsRecommended {
			title = "⭐ " + title
		}
		rows = append(rows, ListRow{ID: productPrefix + p.ProductID, Title: title, Description: p.Price})
	}
	rows = append(rows, ListRow{ID: optionNewSearch, Title: "Nueva búsqueda"})

	return c.sender.SendList(ctx, sess.Phone,
		"Estos son los mejores resultados que encontré:", "Ver productos", rows)
}

func (c *Conversation) handleProductSelection(ctx context.Context, sess *session.Session, text string) error {
	if text == optionNewSearch {
		c.sessions.Reset(sess.Phone)
		return c.sender.SendText(ctx, sess.Phone, greeting)
	}

	if !strings.HasPrefix(text, productPrefix) || sess.LastResult == nil {
		return c.sender.SendText(ctx, sess.Phone,
			"Elegí un producto de la lista o escribí \"reiniciar\" para empezar de nuevo.")
	}

	productID := strings.TrimPrefix(text, productPrefix)
	product, err := c.service.ProductDetails(ctx, sess.LastResult.ID, productID)
	if err != nil {
		c.logger.Warn().Err(err).Str("product_id", productID).Msg("Product detail lookup failed")
		return c.sender.SendText(ctx, sess.Phone, "No encontré ese producto. Elegí otro de la lista.")
	}

	c.sessions.Put(sess)
	return c.sender.SendText(ctx, sess.Phone, formatProduct(product))
}

// formatProduct renders one product as a WhatsApp text message.
func formatProduct(p *storage.StoredProduct) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n", p.Title)
	if p.Price != "" {
		fmt.Fprintf(&b, "💰 %s", p.Price)
		if p.Source != "" {
			fmt.Fprintf(&b, " en %s", p.Source)
		}
		b.WriteString("\n")
	}
	if p.Rating != "" {
		fmt.Fprintf(&b, "⭐ %s (%s reseñas)\n", p.Rating, p.Reviews)
	}

	for _, pro := range p.Pros {
		fmt.Fprintf(&b, "✅ %s\n", pro)
	}
	for _, con := range p.Cons {
		fmt.Fprintf(&b, "⚠️ %s\n", con)
	}

	if p.Details != nil {
		if p.Details.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", p.Details.Description)
		}
		for i, store := range p.Details.Stores {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "🏪 %s: %s\n", store.Name, store.Price)
		}
	}

	if p.Link != "" {
		fmt.Fprintf(&b, "\n🔗 %s", p.Link)
	}
	return strings.TrimRight(b.String(), "\n")
}
