// Package payments talks to the card processor: it opens hosted checkout
// sessions, refunds them, and authenticates processor webhooks.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"staybook/internal/pricing"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type CheckoutRequest struct {
	BookingID   string
	CustomerID  string
	Amount      float64
	ProductName string
	Description string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// ErrSessionCompleted is returned by ExpireSession when the customer already
// paid the session.
var ErrSessionCompleted = errors.New("checkout session already completed")

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ExpireSession makes an open session unpayable. A session that is
	// already expired is not an error.
	ExpireSession(ctx context.Context, sessionID string) error
	// Refund returns the full captured amount of a completed session.
	Refund(ctx context.Context, sessionID string) error
}

type StripeGateway struct {
	api      *client.API
	currency string
	minimum  float64
	log      *logger.Logger
}

func NewStripeGateway(cfg *config.Config) *StripeGateway {
	return newStripeGateway(cfg, "")
}

// newStripeGateway points every backend at baseURL when it is set.
func newStripeGateway(cfg *config.Config, baseURL string) *StripeGateway {
	httpClient := &http.Client{Timeout: cfg.GatewayTimeout}
	backend := func(t stripe.SupportedBackend) stripe.Backend {
		bc := &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		}
		if baseURL != "" {
			bc.URL = stripe.String(baseURL)
		}
		return stripe.GetBackendWithConfig(t, bc)
	}

	return &StripeGateway{
		api: client.New(cfg.StripeSecretKey, &stripe.Backends{
			API:     backend(stripe.APIBackend),
			Connect: backend(stripe.ConnectBackend),
			Uploads: backend(stripe.UploadsBackend),
		}),
		currency: cfg.PaymentCurrency,
		minimum:  cfg.MinimumBookingAmount,
		log:      cfg.Log,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.Amount < g.minimum {
		return nil, apperrors.PaymentGateway("Amount is below the payment minimum",
			fmt.Errorf("amount %.2f is below the minimum of %.2f", req.Amount, g.minimum))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
		ClientReferenceID:        stripe.String(req.BookingID),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(pricing.ToMinorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("customer_id", req.CustomerID)

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("Checkout session creation failed", "booking_id", req.BookingID, "error", describe(err))
		return nil, apperrors.PaymentGateway("Failed to create payment session", err)
	}

	g.log.Info("Checkout session created", "booking_id", req.BookingID, "session_id", sess.ID)
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) ExpireSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	_, err := g.api.CheckoutSessions.Expire(sessionID, params)
	if err == nil {
		g.log.Info("Checkout session expired", "session_id", sessionID)
		return nil
	}
	g.log.Warn("Checkout session expire rejected", "session_id", sessionID, "error", describe(err))

	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx
	sess, err := g.api.CheckoutSessions.Get(sessionID, getParams)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	switch sess.Status {
	case stripe.CheckoutSessionStatusExpired:
		return nil
	case stripe.CheckoutSessionStatusComplete:
		return ErrSessionCompleted
	}
	return fmt.Errorf("session %s is still %s", sessionID, sess.Status)
}

func (g *StripeGateway) Refund(ctx context.Context, sessionID string) error {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx
	sess, err := g.api.CheckoutSessions.Get(sessionID, getParams)
	if err != nil {
		g.log.Error("Failed to load checkout session for refund", "session_id", sessionID, "error", describe(err))
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("session %s has no payment intent", sessionID)
	}

	refundParams := &stripe.RefundParams{PaymentIntent: stripe.String(sess.PaymentIntent.ID)}
	refundParams.Context = ctx
	refundParams.AddMetadata("session_id", sessionID)
	ref, err := g.api.Refunds.New(refundParams)
	if err != nil {
		g.log.Error("Refund failed", "session_id", sessionID, "payment_intent", sess.PaymentIntent.ID, "error", describe(err))
		return fmt.Errorf("refund payment intent %s: %w", sess.PaymentIntent.ID, err)
	}

	g.log.Info("Refund created", "session_id", sessionID, "refund_id", ref.ID)
	return nil
}

func describe(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Sprintf("%s (type=%s code=%s status=%d)", stripeErr.Msg, stripeErr.Type, stripeErr.Code, stripeErr.HTTPStatusCode)
	}
	return err.Error()
}
