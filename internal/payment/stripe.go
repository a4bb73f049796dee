package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"
	stripeclient "github.com/stripe/stripe-go/v79/client"
	stripewebhook "github.com/stripe/stripe-go/v79/webhook"
)

// Stripe creates payment intents and verifies webhook callbacks.
type Stripe struct {
	Client        *stripeclient.API
	WebhookSecret string
}

// NewStripe builds a provider from API credentials.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	api := &stripeclient.API{}
	api.Init(secretKey, nil)
	return &Stripe{Client: api, WebhookSecret: webhookSecret}
}

// CreateIntent opens a Stripe payment intent. The intent id is the webhook
// correlation key; the client secret goes back to the frontend.
func (p *Stripe) CreateIntent(_ context.Context, req IntentRequest) (IntentResponse, error) {
	if p == nil || p.Client == nil {
		return IntentResponse{}, errors.New("stripe client not configured")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.AddMetadata("reference", req.Reference)
	for k, v := range req.Notes {
		params.AddMetadata(k, v)
	}
	intent, err := p.Client.PaymentIntents.New(params)
	if err != nil {
		return IntentResponse{}, fmt.Errorf("stripe payment intent: %w", err)
	}
	return IntentResponse{
		Gateway:     GatewayStripe,
		GatewayRef:  intent.ID,
		ClientToken: intent.ClientSecret,
	}, nil
}

// VerifyWebhook validates the Stripe-Signature header and extracts the
// payment outcome. Event types outside succeeded/failed/refunded are
// acknowledged without a status.
func (p *Stripe) VerifyWebhook(r *http.Request, body []byte) (WebhookResult, error) {
	event, err := stripewebhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), p.WebhookSecret)
	if err != nil {
		return WebhookResult{}, nil
	}

	// Refund events wrap a charge, not a payment intent; the charge still
	// points back at the intent we correlate on.
	if event.Type == "charge.refunded" {
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return WebhookResult{}, fmt.Errorf("stripe webhook decode: %w", err)
		}
		result := WebhookResult{Valid: true, Payload: body, Status: WebhookStatusRefunded}
		if charge.PaymentIntent != nil {
			result.GatewayRef = charge.PaymentIntent.ID
		}
		return result, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return WebhookResult{}, fmt.Errorf("stripe webhook decode: %w", err)
	}
	result := WebhookResult{Valid: true, GatewayRef: intent.ID, Payload: body}
	switch event.Type {
	case "payment_intent.succeeded":
		result.Status = WebhookStatusCompleted
	case "payment_intent.payment_failed", "payment_intent.canceled":
		result.Status = WebhookStatusFailed
	}
	return result, nil
}
