package whatsapp

// WebhookPayload is the Graph API webhook notification envelope.
type WebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From        string `json:"from"`
	Type        string `json:"type"`
	Text        struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive struct {
		Type        string `json:"type"`
		ButtonReply struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// IncomingMessage is one user message extracted from a webhook payload.
// For interactive replies Text carries the selected option ID.
type IncomingMessage struct {
	From string
	Text string
}

// ExtractMessage pulls the first user message out of a webhook payload.
// Status updates and other non-message notifications return false.
func ExtractMessage(payload WebhookPayload) (IncomingMessage, bool) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				switch msg.Type {
				case "text":
					return IncomingMessage{From: msg.From, Text: msg.Text.Body}, true
				case "interactive":
					if msg.Interactive.ButtonReply.ID != "" {
						return IncomingMessage{From: msg.From, Text: msg.Interactive.ButtonReply.ID}, true
					}
					if msg.Interactive.ListReply.ID != "" {
						return IncomingMessage{From: msg.From, Text: msg.Interactive.ListReply.ID}, true
					}
				}
			}
		}
	}
	return IncomingMessage{}, false
}
