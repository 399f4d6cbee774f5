package credits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"stylens-server/internal/domain"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("no row")
	}
	return r.scan(dest...)
}

type stubDB struct {
	mu       sync.Mutex
	balances map[string]int
	// debitRace drains the balance between the pre-read and the conditional
	// write, simulating a concurrent spender.
	debitRace bool
}

func (s *stubDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(query, "credits + $2"):
		userID := args[0].(string)
		s.balances[userID] += args[1].(int)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	case strings.Contains(query, "credits = $2"):
		userID := args[0].(string)
		if _, ok := s.balances[userID]; !ok {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		s.balances[userID] = args[1].(int)
		return pgconn.NewCommandTag("UPDATE 1"), nil
	default:
		return pgconn.CommandTag{}, fmt.Errorf("unsupported exec: %s", query)
	}
}

func (s *stubDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(query, "select credits"):
		balance, ok := s.balances[args[0].(string)]
		if !ok {
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		}
		if s.debitRace {
			s.balances[args[0].(string)] = 0
		}
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = balance
			return nil
		}}
	case strings.Contains(query, "credits - $2"):
		userID := args[0].(string)
		cost := args[1].(int)
		balance, ok := s.balances[userID]
		if !ok || balance < cost {
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		}
		s.balances[userID] = balance - cost
		return stubRow{scan: func(dest ...any) error {
			*dest[0].(*int) = balance
			return nil
		}}
	default:
		return stubRow{scan: func(dest ...any) error {
			return fmt.Errorf("unsupported query: %s", query)
		}}
	}
}

func (s *stubDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unsupported query: %s", query)
}

const userID = "4f0c88aa-0000-4000-8000-000000000009"

func TestTryDebit(t *testing.T) {
	testCases := []struct {
		name        string
		balance     int
		noProfile   bool
		race        bool
		cost        int
		wantErr     error
		wantBefore  int
		wantBalance int
	}{
		{name: "success", balance: 500, cost: 100, wantBefore: 500, wantBalance: 400},
		{name: "exact balance", balance: 100, cost: 100, wantBefore: 100, wantBalance: 0},
		{name: "insufficient", balance: 99, cost: 100, wantErr: domain.ErrInsufficientCredits, wantBalance: 99},
		{name: "missing profile", noProfile: true, cost: 100, wantErr: domain.ErrProfileNotFound},
		{name: "lost race maps to insufficient", balance: 500, race: true, cost: 100, wantErr: domain.ErrInsufficientCredits, wantBalance: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := &stubDB{balances: map[string]int{}, debitRace: tc.race}
			if !tc.noProfile {
				db.balances[userID] = tc.balance
			}
			ledger := NewLedger(db, zerolog.Nop())

			before, err := ledger.TryDebit(context.Background(), userID, tc.cost)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if before != tc.wantBefore {
					t.Fatalf("before = %d, want %d", before, tc.wantBefore)
				}
			}
			if !tc.noProfile && db.balances[userID] != tc.wantBalance {
				t.Fatalf("balance = %d, want %d", db.balances[userID], tc.wantBalance)
			}
		})
	}
}

func TestTryDebitRejectsNonPositiveCost(t *testing.T) {
	ledger := NewLedger(&stubDB{balances: map[string]int{userID: 500}}, zerolog.Nop())
	if _, err := ledger.TryDebit(context.Background(), userID, 0); err == nil {
		t.Fatalf("expected error for zero cost")
	}
	if _, err := ledger.TryDebit(context.Background(), userID, -5); err == nil {
		t.Fatalf("expected error for negative cost")
	}
}

func TestRefundIsAdditive(t *testing.T) {
	db := &stubDB{balances: map[string]int{userID: 400}}
	ledger := NewLedger(db, zerolog.Nop())

	// A renewal webhook landed after the debit; the refund must not clobber it.
	db.balances[userID] = 3500
	ledger.Refund(context.Background(), userID, 100)

	if db.balances[userID] != 3600 {
		t.Fatalf("balance = %d, want 3600", db.balances[userID])
	}
}

func TestSetBalanceMissingProfile(t *testing.T) {
	ledger := NewLedger(&stubDB{balances: map[string]int{}}, zerolog.Nop())
	err := ledger.SetBalance(context.Background(), userID, 600, "cus_1")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}
}
