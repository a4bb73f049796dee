package payment

import (
	"context"
	"net/http"
)

// Gateway names accepted by the API and used as metric labels.
const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
)

// IntentRequest carries the information a gateway needs to open an intent.
// Amount is in the currency's smallest unit (paise for INR).
type IntentRequest struct {
	Reference string
	Amount    int64
	Currency  string
	Notes     map[string]string
}

// IntentResponse is the normalised result of creating a gateway intent.
// GatewayRef is the upstream identifier webhooks later correlate on;
// ClientToken is what the frontend hands to the gateway's SDK (a Razorpay
// order id, a Stripe client secret).
type IntentResponse struct {
	Gateway     string
	GatewayRef  string
	ClientToken string
}

// WebhookResult is the normalised outcome of verifying a gateway callback.
type WebhookResult struct {
	Valid      bool
	GatewayRef string
	Status     string
	Payload    []byte
}

// Webhook statuses normalised across gateways.
const (
	WebhookStatusCompleted = "completed"
	WebhookStatusFailed    = "failed"
	WebhookStatusRefunded  = "refunded"
)

// Provider abstracts a payment gateway.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error)
	VerifyWebhook(r *http.Request, body []byte) (WebhookResult, error)
}
