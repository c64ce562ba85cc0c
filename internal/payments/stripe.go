package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/diagnosis/inkbook/pkg/config"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrNotConfigured  = errors.New("payments not configured")
	ErrInvalidWebhook = errors.New("invalid webhook")
)

// Intent is the part of a Stripe PaymentIntent the booking flow needs.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// WebhookEvent is a verified payment_intent.* event.
type WebhookEvent struct {
	ID        string
	Type      string
	IntentID  string
	BookingID int64
	Amount    int64
}

type Gateway interface {
	Enabled() bool
	CreateDeposit(ctx context.Context, bookingID, amountCents int64, idempotencyKey string) (*Intent, error)
	Refund(ctx context.Context, intentID string) error
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type StripeGateway struct {
	secretKey     string
	webhookSecret string
	currency      string
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{secretKey: cfg.SecretKey, webhookSecret: cfg.WebhookSecret, currency: currency}
}

func (g *StripeGateway) Enabled() bool {
	return g != nil && g.secretKey != ""
}

func (g *StripeGateway) CreateDeposit(ctx context.Context, bookingID, amountCents int64, idempotencyKey string) (*Intent, error) {
	if !g.Enabled() {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(fmt.Sprintf("Deposit for booking #%d", bookingID)),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", strconv.FormatInt(bookingID, 10))
	if idempotencyKey != "" {
		params.IdempotencyKey = stripe.String("deposit:" + idempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentID string) error {
	if !g.Enabled() {
		return ErrNotConfigured
	}
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx
	params.IdempotencyKey = stripe.String("refund:" + intentID)
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("refund payment intent: %w", err)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes payment_intent events.
// Other event types come back with an empty IntentID.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g == nil || g.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	evt, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	out := &WebhookEvent{ID: evt.ID, Type: string(evt.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: decode payment intent: %v", ErrInvalidWebhook, err)
	}
	out.IntentID = pi.ID
	out.Amount = pi.Amount
	if id, err := strconv.ParseInt(pi.Metadata["booking_id"], 10, 64); err == nil {
		out.BookingID = id
	}
	return out, nil
}

var _ Gateway = (*StripeGateway)(nil)
