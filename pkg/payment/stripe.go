package payment

import (
	"errors"
	"fmt"

	"github.com/holidaysplanners/tour-booking-backend/internal/models"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// ErrProviderInitFailed is returned when the payment client cannot be built
var ErrProviderInitFailed = errors.New("failed to initialize payment provider")

// CheckoutSession is the external payment-session locator handed back to the
// caller; provider protocol details stay inside this package.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Provider creates checkout sessions against an external payment collaborator
type Provider interface {
	CreateCheckoutSession(booking *models.Booking, tour *models.Tour) (*CheckoutSession, error)
}

// StripeProvider implements Provider using Stripe Checkout
type StripeProvider struct {
	client     *client.API
	currency   string
	successURL string
	cancelURL  string
}

// StripeConfig holds the Stripe credentials and redirect targets
type StripeConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
}

// NewStripeProvider creates a new StripeProvider
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret key not set", ErrProviderInitFailed)
	}

	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}

	return &StripeProvider{
		client:     client.New(cfg.SecretKey, nil),
		currency:   currency,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
	}, nil
}

// CreateCheckoutSession creates a Stripe checkout session bound to the
// booking's ticket count and the tour's discounted price
func (p *StripeProvider) CreateCheckoutSession(booking *models.Booking, tour *models.Tour) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(booking.ID),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(int64(booking.NumberOfTickets)),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.currency),
					UnitAmount: stripe.Int64(unitAmountCents(tour)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(tour.Title),
						Description: stripe.String(tour.Destination),
					},
				},
			},
		},
	}

	session, err := p.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// unitAmountCents converts the tour's per-ticket price, net of the discount,
// into the minor currency unit Stripe expects. Never negative.
func unitAmountCents(tour *models.Tour) int64 {
	price := tour.Price - tour.Discount
	if price < 0 {
		price = 0
	}
	return int64(price * 100)
}
