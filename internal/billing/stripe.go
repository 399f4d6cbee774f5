package billing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v79"
	stripeclient "github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// CheckoutParams carries everything needed to open a hosted checkout page.
type CheckoutParams struct {
	UserID     string
	Email      string
	CustomerID string
	PriceID    string
	Origin     string
}

// CheckoutCreator opens Stripe checkout sessions. Handlers depend on the
// interface so tests can stub the hosted redirect.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
}

// SubscriptionRetriever resolves the price attached to a subscription, needed
// because checkout-completed events do not carry line items.
type SubscriptionRetriever interface {
	SubscriptionPriceID(ctx context.Context, subscriptionID string) (string, error)
}

// Client wraps the Stripe SDK behind the two interfaces above.
type Client struct {
	api           *stripeclient.API
	webhookSecret string
	logger        zerolog.Logger
}

// NewClient initializes the Stripe API client. The secret key may be empty in
// development; calls will then fail with Stripe's own auth error.
func NewClient(secretKey, webhookSecret string, logger zerolog.Logger) *Client {
	api := &stripeclient.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, webhookSecret: webhookSecret, logger: logger}
}

// CreateCheckoutSession opens a subscription-mode checkout for the given
// price. An existing Stripe customer is reused; otherwise the account email
// prefills customer creation. The user ID travels in session metadata so the
// completion webhook can find the profile.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(p.Origin + "/profile?success=true"),
		CancelURL:  stripe.String(p.Origin + "/profile?canceled=true"),
	}
	params.AddMetadata("userId", p.UserID)
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return session.URL, nil
}

// SubscriptionPriceID fetches a subscription and returns its first item's
// price ID.
func (c *Client) SubscriptionPriceID(ctx context.Context, subscriptionID string) (string, error) {
	sub, err := c.api.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return "", fmt.Errorf("stripe: retrieve subscription %s: %w", subscriptionID, err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return "", fmt.Errorf("stripe: subscription %s has no priced items", subscriptionID)
	}
	return sub.Items.Data[0].Price.ID, nil
}

// VerifyEvent checks the webhook signature against the shared secret and
// parses the event. Verification failure must reject the request outright.
func (c *Client) VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signatureHeader, c.webhookSecret)
}

var (
	_ CheckoutCreator       = (*Client)(nil)
	_ SubscriptionRetriever = (*Client)(nil)
)
