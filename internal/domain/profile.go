package domain

import "time"

// SubscriptionStatus enumerates billing states mirrored from Stripe events.
type SubscriptionStatus string

const (
	SubscriptionNone     SubscriptionStatus = "none"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Profile represents an authenticated account and its credit balance. One row
// per user; the balance is mutated by generation debits and billing webhooks.
type Profile struct {
	ID                 string
	Email              string
	Username           string
	Credits            int
	AvatarURL          string
	StripeCustomerID   string
	SubscriptionStatus SubscriptionStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanAfford reports whether the balance covers a debit of the given cost.
func (p Profile) CanAfford(cost int) bool {
	return p.Credits >= cost
}
