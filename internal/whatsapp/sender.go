// Package whatsapp implements the WhatsApp Business channel: the Graph API
// message sender, webhook payload parsing and the guided conversation flow.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Button is one interactive reply button. WhatsApp allows at most three.
type Button struct {
	ID    string
	Title string
}

// ListRow is one selectable row inside an interactive list message.
type ListRow struct {
	ID          string
	Title       string
	Description string
}

// Sender delivers messages to a WhatsApp user.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to, body, buttonLabel string, rows []ListRow) error
}

// Client sends messages through the WhatsApp Business Graph API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	phoneNumberID string
}

// Config holds WhatsApp client configuration.
type Config struct {
	BaseURL       string
	Token         string
	PhoneNumberID string
	Timeout       time.Duration
}

// NewClient creates a Graph API message sender.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("phone number ID is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com/v19.0"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       cfg.BaseURL,
		token:         cfg.Token,
		phoneNumberID: cfg.PhoneNumberID,
	}, nil
}

// normalizePhone fixes Argentine WhatsApp IDs: inbound numbers carry an
// extra 9 after the country code (549...) that the send API rejects.
func normalizePhone(phone string) string {
	if strings.HasPrefix(phone, "549") && len(phone) == 13 {
		return "54" + phone[3:]
	}
	return phone
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                normalizePhone(to),
		"type":              "text",
		"text":              map[string]string{"body": body},
	})
}

// SendButtons sends an interactive message with up to three reply buttons.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}

	wireButtons := make([]map[string]interface{}, 0, len(buttons))
	for _, b := range buttons {
		wireButtons = append(wireButtons, map[string]interface{}{
			"type":  "reply",
			"reply": map[string]string{"id": b.ID, "title": b.Title},
		})
	}

	return c.send(ctx, map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                normalizePhone(to),
		"type":              "interactive",
		"interactive": map[string]interface{}{
			"type":   "button",
			"body":   map[string]string{"text": body},
			"action": map[string]interface{}{"buttons": wireButtons},
		},
	})
}

// SendList sends an interactive list message. WhatsApp caps a section at
// ten rows.
func (c *Client) SendList(ctx context.Context, to, body, buttonLabel string, rows []ListRow) error {
	if len(rows) > 10 {
		rows = rows[:10]
	}

	wireRows := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		row := map[string]string{"id": r.ID, "title": truncate(r.Title, 24)}
		if r.Description != "" {
			row["description"] = truncate(r.Description, 72)
		}
		wireRows = append(wireRows, row)
	}

	return c.send(ctx, map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                normalizePhone(to),
		"type":              "interactive",
		"interactive": map[string]interface{}{
			"type": "list",
			"body": map[string]string{"text": body},
			"action": map[string]interface{}{
				"button":   buttonLabel,
				"sections": []map[string]interface{}{{"rows": wireRows}},
			},
		},
	})
}

func (c *Client) send(ctx context.Context, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("whatsapp API error: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("whatsapp API returned status %d", resp.StatusCode)
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
