package payments

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76/webhook"
)

const EventCheckoutCompleted = "checkout.session.completed"

// Event is the part of a processor webhook the booking flow acts on.
type Event struct {
	ID        string
	Type      string
	SessionID string
}

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// ParseEvent authenticates payload against its Stripe-Signature header and
// extracts the event. SessionID is set for checkout session events only.
func (v *WebhookVerifier) ParseEvent(payload []byte, signature string) (Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return out, nil
	}

	var obj struct {
		ID     string `json:"id"`
		Object string `json:"object"`
	}
	if err := json.Unmarshal(evt.Data.Raw, &obj); err != nil {
		return Event{}, fmt.Errorf("decode event object: %w", err)
	}
	if obj.Object == "checkout.session" {
		out.SessionID = obj.ID
	}
	return out, nil
}
