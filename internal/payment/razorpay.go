package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	razorpay "github.com/razorpay/razorpay-go"
	razorpayutils "github.com/razorpay/razorpay-go/utils"
)

// Razorpay creates gateway orders and verifies webhook callbacks.
type Razorpay struct {
	Client        *razorpay.Client
	WebhookSecret string
}

// NewRazorpay builds a provider from API credentials.
func NewRazorpay(keyID, keySecret, webhookSecret string) *Razorpay {
	return &Razorpay{
		Client:        razorpay.NewClient(keyID, keySecret),
		WebhookSecret: webhookSecret,
	}
}

// CreateIntent opens a Razorpay order. The returned order id doubles as the
// client token consumed by Razorpay's checkout widget.
func (p *Razorpay) CreateIntent(_ context.Context, req IntentRequest) (IntentResponse, error) {
	if p == nil || p.Client == nil {
		return IntentResponse{}, errors.New("razorpay client not configured")
	}
	notes := map[string]interface{}{}
	for k, v := range req.Notes {
		notes[k] = v
	}
	body, err := p.Client.Order.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Reference,
		"notes":    notes,
	}, nil)
	if err != nil {
		return IntentResponse{}, fmt.Errorf("razorpay order create: %w", err)
	}
	orderID, _ := body["id"].(string)
	if orderID == "" {
		return IntentResponse{}, errors.New("razorpay order create: missing order id")
	}
	return IntentResponse{
		Gateway:     GatewayRazorpay,
		GatewayRef:  orderID,
		ClientToken: orderID,
	}, nil
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// VerifyWebhook checks the X-Razorpay-Signature HMAC and extracts the
// payment outcome. Events other than captured/failed/refunded are
// acknowledged without a status so the handler treats them as no-ops.
func (p *Razorpay) VerifyWebhook(r *http.Request, body []byte) (WebhookResult, error) {
	signature := r.Header.Get("X-Razorpay-Signature")
	if signature == "" {
		return WebhookResult{}, nil
	}
	if !razorpayutils.VerifyWebhookSignature(string(body), signature, p.WebhookSecret) {
		return WebhookResult{}, nil
	}
	var event razorpayWebhook
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookResult{}, fmt.Errorf("razorpay webhook decode: %w", err)
	}
	result := WebhookResult{
		Valid:      true,
		GatewayRef: event.Payload.Payment.Entity.OrderID,
		Payload:    body,
	}
	switch event.Event {
	case "payment.captured":
		result.Status = WebhookStatusCompleted
	case "payment.failed":
		result.Status = WebhookStatusFailed
	case "refund.processed":
		// refund events carry the payment entity alongside the refund,
		// so the order id correlation above still holds
		result.Status = WebhookStatusRefunded
	}
	return result, nil
}
