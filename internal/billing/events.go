package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v79"

	"stylens-server/internal/domain"
)

// BalanceWriter is the slice of the credit ledger the webhook needs.
// Satisfied by *credits.Ledger.
type BalanceWriter interface {
	SetBalance(ctx context.Context, userID string, amount int, customerID string) error
	SetBalanceByCustomer(ctx context.Context, customerID string, amount int) error
	MarkCanceledByCustomer(ctx context.Context, customerID string) error
}

// Processor applies verified Stripe events to the credit ledger. Three event
// kinds are handled; everything else is acknowledged untouched.
type Processor struct {
	ledger BalanceWriter
	subs   SubscriptionRetriever
	logger zerolog.Logger
}

func NewProcessor(ledger BalanceWriter, subs SubscriptionRetriever, logger zerolog.Logger) *Processor {
	return &Processor{ledger: ledger, subs: subs, logger: logger}
}

// HandleEvent dispatches one verified event.
func (p *Processor) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return p.handleCheckoutCompleted(ctx, event.Data.Raw)
	case "invoice.payment_succeeded":
		return p.handleInvoicePaid(ctx, event.Data.Raw)
	case "customer.subscription.deleted":
		return p.handleSubscriptionDeleted(ctx, event.Data.Raw)
	default:
		p.logger.Debug().Str("type", string(event.Type)).Msg("ignoring stripe event")
		return nil
	}
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("billing: parse checkout session: %w", err)
	}

	userID := session.Metadata["userId"]
	if userID == "" {
		// Checkout opened outside our flow; nothing to credit.
		p.logger.Error().Str("session", session.ID).Msg("checkout session has no userId metadata")
		return nil
	}
	if session.Subscription == nil {
		return fmt.Errorf("billing: checkout session %s has no subscription", session.ID)
	}

	priceID, err := p.subs.SubscriptionPriceID(ctx, session.Subscription.ID)
	if err != nil {
		return err
	}
	amount, ok := domain.CreditsForPrice(priceID)
	if !ok {
		p.logger.Warn().Str("price_id", priceID).Str("user_id", userID).
			Msg("no credits mapped for price; balance set to 0")
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	if err := p.ledger.SetBalance(ctx, userID, amount, customerID); err != nil {
		return err
	}
	p.logger.Info().Str("user_id", userID).Str("price_id", priceID).Int("credits", amount).
		Msg("checkout completed, balance set")
	return nil
}

func (p *Processor) handleInvoicePaid(ctx context.Context, raw json.RawMessage) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return fmt.Errorf("billing: parse invoice: %w", err)
	}
	if invoice.BillingReason != stripe.InvoiceBillingReasonSubscriptionCycle {
		// Only recurring renewals reset the balance; the initial invoice is
		// covered by the checkout event.
		return nil
	}
	if invoice.Customer == nil {
		return fmt.Errorf("billing: renewal invoice %s has no customer", invoice.ID)
	}

	priceID := ""
	if invoice.Lines != nil && len(invoice.Lines.Data) > 0 && invoice.Lines.Data[0].Price != nil {
		priceID = invoice.Lines.Data[0].Price.ID
	}
	amount, ok := domain.CreditsForPrice(priceID)
	if !ok {
		p.logger.Warn().Str("price_id", priceID).Str("customer", invoice.Customer.ID).
			Msg("no credits mapped for renewal price; balance reset to 0")
	}

	if err := p.ledger.SetBalanceByCustomer(ctx, invoice.Customer.ID, amount); err != nil {
		return err
	}
	p.logger.Info().Str("customer", invoice.Customer.ID).Int("credits", amount).
		Msg("renewal processed, balance reset")
	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("billing: parse subscription: %w", err)
	}
	if sub.Customer == nil {
		return fmt.Errorf("billing: deleted subscription %s has no customer", sub.ID)
	}
	if err := p.ledger.MarkCanceledByCustomer(ctx, sub.Customer.ID); err != nil {
		return err
	}
	p.logger.Info().Str("customer", sub.Customer.ID).Msg("subscription canceled")
	return nil
}
