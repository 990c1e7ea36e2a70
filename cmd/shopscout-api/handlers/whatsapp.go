package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopscout-ai/shopscout/internal/observability"
	"github.com/shopscout-ai/shopscout/internal/whatsapp"
)

// Conversation drives the WhatsApp flow for one incoming message.
type Conversation interface {
	Handle(ctx context.Context, msg whatsapp.IncomingMessage) error
}

// WhatsAppHandler handles WhatsApp webhook requests.
type WhatsAppHandler struct {
	logger       *observability.Logger
	conversation Conversation
	verifyToken  string
}

// NewWhatsAppHandler creates a new WhatsApp webhook handler. The
// conversation may be nil when the channel is not configured.
func NewWhatsAppHandler(logger *observability.Logger, conversation Conversation, verifyToken string) *WhatsAppHandler {
	return &WhatsAppHandler{
		logger:       logger,
		conversation: conversation,
		verifyToken:  verifyToken,
	}
}

// Verify handles GET /whatsapp/webhook, the Meta subscription handshake.
func (h *WhatsAppHandler) Verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode != "subscribe" || token == "" || token != h.verifyToken {
		h.logger.Warn().Str("mode", mode).Msg("Webhook verification rejected")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// Receive handles POST /whatsapp/webhook. Meta retries deliveries that are
// not acknowledged quickly, so the message is processed in the background
// and the webhook acknowledged immediately.
func (h *WhatsAppHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if h.conversation == nil {
		writeError(w, http.StatusServiceUnavailable, "whatsapp channel not configured", "")
		return
	}

	var payload whatsapp.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	msg, ok := whatsapp.ExtractMessage(payload)
	if ok {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			if err := h.conversation.Handle(ctx, msg); err != nil {
				h.logger.Error().Err(err).Str("from", msg.From).Msg("Conversation handling failed")
			}
		}()
	}

	w.WriteHeader(http.StatusOK)
}
