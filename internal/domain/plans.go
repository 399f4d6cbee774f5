package domain

// PlanCredits maps Stripe price IDs to the absolute credit balance granted on
// checkout completion and on each subscription renewal. Balances are reset to
// the plan amount, they do not accumulate.
var PlanCredits = map[string]int{
	"price_1SiFMtKn9kCv0rqZuqPasJqA": 600,   // Starter
	"price_1SiFRkKn9kCv0rqZ5jxrdwnm": 3500,  // Creator
	"price_1SiFUBKn9kCv0rqZg6VmXXfz": 12000, // Pro Studio
}

// CreditsForPrice resolves the credit grant for a price ID. Unmapped prices
// grant zero; callers are expected to log a warning rather than fail.
func CreditsForPrice(priceID string) (int, bool) {
	credits, ok := PlanCredits[priceID]
	return credits, ok
}
