package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"stylens-server/internal/domain"
	"stylens-server/internal/infra"
	"stylens-server/internal/sqlinline"
)

// Ledger mediates every write to the per-profile credit balance: generation
// debits and refunds, and the absolute sets driven by billing webhooks.
type Ledger struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

func NewLedger(sql infra.SQLExecutor, logger zerolog.Logger) *Ledger {
	return &Ledger{sql: sql, logger: logger}
}

// TryDebit atomically subtracts cost from the balance and returns the
// pre-debit balance. The check and the decrement are a single conditional
// UPDATE so the balance can never go negative, even under concurrent
// requests. Returns domain.ErrProfileNotFound when no profile exists and
// domain.ErrInsufficientCredits when the balance does not cover the cost.
func (l *Ledger) TryDebit(ctx context.Context, userID string, cost int) (int, error) {
	if cost <= 0 {
		return 0, fmt.Errorf("credits: invalid debit cost %d", cost)
	}

	// Pre-read so a missing profile maps to 404 rather than 403.
	var current int
	if err := l.sql.QueryRow(ctx, sqlinline.QSelectCredits, userID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrProfileNotFound
		}
		return 0, fmt.Errorf("credits: read balance: %w", err)
	}
	if current < cost {
		return 0, domain.ErrInsufficientCredits
	}

	var before int
	err := l.sql.QueryRow(ctx, sqlinline.QDebitCredits, userID, cost).Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Another request spent the balance between the read and the
			// conditional write.
			return 0, domain.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("credits: debit: %w", err)
	}

	l.logger.Info().Str("user_id", userID).Int("cost", cost).Int("balance_before", before).
		Msg("credits debited")
	return before, nil
}

// Refund credits the debited cost back. It is additive rather than a
// snapshot restore, so balance writes that landed between the debit and the
// refund are preserved.
func (l *Ledger) Refund(ctx context.Context, userID string, cost int) {
	if _, err := l.sql.Exec(ctx, sqlinline.QRefundCredits, userID, cost); err != nil {
		l.logger.Error().Err(err).Str("user_id", userID).Int("cost", cost).
			Msg("credit refund failed")
		return
	}
	l.logger.Info().Str("user_id", userID).Int("cost", cost).Msg("credits refunded")
}

// SetBalance overwrites the balance with an absolute amount and records the
// Stripe customer reference. Used on checkout completion.
func (l *Ledger) SetBalance(ctx context.Context, userID string, amount int, customerID string) error {
	tag, err := l.sql.Exec(ctx, sqlinline.QSetCreditsByUser, userID, amount, customerID)
	if err != nil {
		return fmt.Errorf("credits: set balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// SetBalanceByCustomer resets the balance for a subscription renewal, keyed
// by the Stripe customer reference the checkout recorded.
func (l *Ledger) SetBalanceByCustomer(ctx context.Context, customerID string, amount int) error {
	tag, err := l.sql.Exec(ctx, sqlinline.QSetCreditsByCustomer, customerID, amount)
	if err != nil {
		return fmt.Errorf("credits: reset balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// MarkCanceledByCustomer flags the subscription as canceled. The remaining
// balance is left untouched.
func (l *Ledger) MarkCanceledByCustomer(ctx context.Context, customerID string) error {
	if _, err := l.sql.Exec(ctx, sqlinline.QMarkCanceledByCustomer, customerID); err != nil {
		return fmt.Errorf("credits: mark canceled: %w", err)
	}
	return nil
}
