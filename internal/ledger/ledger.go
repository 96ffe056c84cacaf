// Package ledger applies signed balance mutations to accounts.
//
// Balances may go negative: a debit is never blocked by insufficient funds,
// deficits are settled later by a cashier's balance addition. Each mutation
// is a single atomic delta at the store boundary; multi-leg operations
// compensate committed legs when a later leg fails.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/metrics"
	"github.com/mmynk/claimflow/internal/storage"
)

// BalanceStore applies atomic balance deltas.
type BalanceStore interface {
	ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error)
}

// Ledger debits, credits and transfers between accounts.
type Ledger struct {
	store BalanceStore
}

// New creates a Ledger over store.
func New(store BalanceStore) *Ledger {
	return &Ledger{store: store}
}

// Debit subtracts amount from the account and returns the new balance.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.apply(ctx, "debit", accountID, amount, amount.Neg())
}

// Credit adds amount to the account and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.apply(ctx, "credit", accountID, amount, amount)
}

// Transfer debits from and credits to. When the credit fails the debit is
// reversed before the error is returned, so no partial transfer survives.
// If the reversal fails too the error is apperr.KindInconsistent.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if from == to {
		return apperr.InvalidInput("transfer", "cannot transfer to the same account")
	}
	if _, err := l.Debit(ctx, from, amount); err != nil {
		metrics.LedgerOps.WithLabelValues("transfer", metrics.OutcomeError).Inc()
		return err
	}

	if _, err := l.Credit(ctx, to, amount); err != nil {
		if _, undoErr := l.Credit(ctx, from, amount); undoErr != nil {
			slog.Error("Transfer rollback failed",
				"from", from, "to", to, "amount", amount, "error", err, "rollback_error", undoErr)
			metrics.Compensations.WithLabelValues("transfer", metrics.OutcomeInconsistent).Inc()
			return apperr.Inconsistent("transfer", err, undoErr)
		}
		slog.Warn("Transfer credit failed, debit reversed", "from", from, "to", to, "amount", amount, "error", err)
		metrics.Compensations.WithLabelValues("transfer", metrics.OutcomeCompensated).Inc()
		return err
	}

	metrics.LedgerOps.WithLabelValues("transfer", metrics.OutcomeOK).Inc()
	return nil
}

// Reverse undoes a committed Transfer(from, to, amount).
func (l *Ledger) Reverse(ctx context.Context, from, to string, amount decimal.Decimal) error {
	return l.Transfer(ctx, to, from, amount)
}

func (l *Ledger) apply(ctx context.Context, op, accountID string, amount, delta decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperr.InvalidInput(op, "amount must be positive, got %s", amount)
	}

	balance, err := l.store.ApplyBalanceDelta(ctx, accountID, delta)
	if err != nil {
		metrics.LedgerOps.WithLabelValues(op, metrics.OutcomeError).Inc()
		if errors.Is(err, storage.ErrNotFound) {
			return decimal.Zero, apperr.NotFound(op, "account", accountID)
		}
		return decimal.Zero, apperr.Dependency(op, err)
	}

	metrics.LedgerOps.WithLabelValues(op, metrics.OutcomeOK).Inc()
	slog.Debug("Balance updated", "op", op, "account_id", accountID, "amount", amount, "balance", balance)
	return balance, nil
}
